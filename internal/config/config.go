package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Load builds the app config from defaults, GORRC_ environment variables and an
// optional config file. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(AppEnvBase)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	autoCfg, err := GetAutoConfig(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:   strings.ToLower(v.GetString("loglevel")),
		ServerCfg:  GetServerConfig(v),
		CommandCfg: GetCommandConfig(v),
		GPIOCfg:    GetGPIOConfig(v),
		IMUCfg:     GetIMUConfig(v),
		CANCfg:     GetCANConfig(v),
		DriveCfg:   GetDriveConfig(v),
		AutoCfg:    autoCfg,
	}
	if cfg.DriveCfg.Period <= 0 {
		return Config{}, fmt.Errorf("drive.period must be positive, got %s", cfg.DriveCfg.Period)
	}

	log.Debug().Msgf("app config: %+v", cfg)
	return cfg, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", DefaultLogLevel)

	v.SetDefault("server.address", DefaultServer)
	v.SetDefault("server.carkey", DefaultCarKey)
	v.SetDefault("server.password", DefaultPassword)
	v.SetDefault("server.seatcount", DefaultSeatCount)
	v.SetDefault("server.netinterface", DefaultNetInterface)
	v.SetDefault("server.healthinterval", DefaultHealthInterval)

	v.SetDefault("command.driver", DefaultCommandDriver)
	v.SetDefault("command.address", DefaultAddress)
	v.SetDefault("command.i2cdevice", DefaultI2CDevice)

	motors := []struct {
		name    string
		channel int
	}{
		{DefaultLeftMotorName, DefaultLeftMotorChannel},
		{DefaultRightMotorName, DefaultRightMotorChan},
		{DefaultCenterMotorName, DefaultCenterMotorChan},
	}
	for i, motor := range motors {
		prefix := fmt.Sprintf("servo%d.", i)
		v.SetDefault(prefix+"name", motor.name)
		v.SetDefault(prefix+"channel", motor.channel)
	}

	v.SetDefault("gpio.suspensionpin", DefaultSuspensionPin)
	v.SetDefault("gpio.sonicenabled", DefaultSonicEnabled)
	v.SetDefault("gpio.sonictrigger", DefaultSonicTrigger)
	v.SetDefault("gpio.sonicecho", DefaultSonicEcho)

	v.SetDefault("imu.port", DefaultIMUPort)
	v.SetDefault("imu.baud", DefaultIMUBaud)

	v.SetDefault("can.interface", DefaultCANInterface)
	v.SetDefault("can.leftid", DefaultLeftEncoderID)
	v.SetDefault("can.rightid", DefaultRightEncoderID)
	v.SetDefault("can.centerid", DefaultCenterEncoderID)
	v.SetDefault("can.centerenabled", DefaultCenterEncoder)
	v.SetDefault("can.distanceperpulse", DefaultDistancePerPulse)
	v.SetDefault("can.centerdistanceperpulse", DefaultCenterDistPerPulse)

	v.SetDefault("drive.deadbandx", DefaultDeadbandX)
	v.SetDefault("drive.deadbandy", DefaultDeadbandY)
	v.SetDefault("drive.deadbandrotation", DefaultDeadbandRotation)
	v.SetDefault("drive.deadbandminoutput", DefaultDeadbandMinOutput)
	v.SetDefault("drive.outputfloor", DefaultOutputFloor)
	v.SetDefault("drive.slowstrafescalar", DefaultSlowStrafeScalar)
	v.SetDefault("drive.strafetuning", DefaultStrafeTuning)
	v.SetDefault("drive.maxdeltax", DefaultMaxDeltaX)
	v.SetDefault("drive.maxdeltay", DefaultMaxDeltaY)
	v.SetDefault("drive.maxdeltaydanger", DefaultMaxDeltaYDanger)
	v.SetDefault("drive.strafemaxsignaldelta", DefaultStrafeMaxSignalDelta)
	v.SetDefault("drive.lowencoderrate", DefaultLowEncoderRate)
	v.SetDefault("drive.rotateontargetcycles", DefaultRotateOnTargetCycles)

	v.SetDefault("drive.tolerance.headingrotate", DefaultHeadingRotateTolerance)
	v.SetDefault("drive.tolerance.headingstraight", DefaultHeadingStraightTolerance)
	v.SetDefault("drive.tolerance.drive", DefaultDriveTolerance)
	v.SetDefault("drive.tolerance.strafe", DefaultStrafeTolerance)
	v.SetDefault("drive.tolerance.sonic", DefaultSonicTolerance)

	v.SetDefault("drive.gains.drivestraight.p", DefaultDriveStraightP)
	v.SetDefault("drive.gains.strafe.p", DefaultStrafeP)
	v.SetDefault("drive.gains.sonic.p", DefaultSonicP)
	v.SetDefault("drive.gains.headingstraight.p", DefaultHeadingStraightP)
	v.SetDefault("drive.gains.headingstraight.d", DefaultHeadingStraightD)
	v.SetDefault("drive.gains.headingrotate.p", DefaultHeadingRotateP)
	v.SetDefault("drive.gains.headingrotate.d", DefaultHeadingRotateD)

	v.SetDefault("drive.speed.fast", DefaultFastSpeed)
	v.SetDefault("drive.speed.normal", DefaultNormalSpeed)
	v.SetDefault("drive.speed.slow", DefaultSlowSpeed)
	v.SetDefault("drive.period", DefaultPeriod)

	v.SetDefault("auto.routine", DefaultRoutine)
}

func GetServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Server:         v.GetString("server.address"),
		Key:            v.GetString("server.carkey"),
		Password:       v.GetString("server.password"),
		SeatCount:      v.GetInt("server.seatcount"),
		NetInterface:   v.GetString("server.netinterface"),
		HealthInterval: v.GetDuration("server.healthinterval"),
	}
}

func GetCommandConfig(v *viper.Viper) CommandConfig {
	commandCfg := CommandConfig{
		CommandDriver: strings.ToLower(v.GetString("command.driver")),
		Address:       byte(v.GetUint("command.address")),
		I2CDevice:     v.GetString("command.i2cdevice"),
		ServoCfgs:     make([]ServoConfig, 0, MaxSupportedServos),
	}

	for i := 0; i < MaxSupportedServos; i++ {
		prefix := fmt.Sprintf("servo%d.", i)
		servoCfg := ServoConfig{
			Name:     v.GetString(prefix + "name"),
			Channel:  getIntOr(v, prefix+"channel", i),
			MaxPulse: float64(getIntOr(v, prefix+"maxpulse", DefaultMaxPulse)),
			MinPulse: float64(getIntOr(v, prefix+"minpulse", DefaultMinPulse)),
			Inverted: v.GetBool(prefix + "inverted"),
			Offset:   v.GetInt(prefix + "midoffset"),
		}

		if servoCfg.Name != "" {
			log.Debug().Msgf("found config for motor: %s", servoCfg.Name)
			commandCfg.ServoCfgs = append(commandCfg.ServoCfgs, servoCfg)
		}
	}
	return commandCfg
}

func GetGPIOConfig(v *viper.Viper) GPIOConfig {
	return GPIOConfig{
		SuspensionPin: v.GetInt("gpio.suspensionpin"),
		SonicEnabled:  v.GetBool("gpio.sonicenabled"),
		SonicTrigger:  v.GetInt("gpio.sonictrigger"),
		SonicEcho:     v.GetInt("gpio.sonicecho"),
	}
}

func GetIMUConfig(v *viper.Viper) IMUConfig {
	return IMUConfig{
		Port: v.GetString("imu.port"),
		Baud: v.GetInt("imu.baud"),
	}
}

func GetCANConfig(v *viper.Viper) CANConfig {
	return CANConfig{
		Interface:              v.GetString("can.interface"),
		LeftID:                 v.GetUint32("can.leftid"),
		RightID:                v.GetUint32("can.rightid"),
		CenterID:               v.GetUint32("can.centerid"),
		CenterEnabled:          v.GetBool("can.centerenabled"),
		DistancePerPulse:       v.GetFloat64("can.distanceperpulse"),
		CenterDistancePerPulse: v.GetFloat64("can.centerdistanceperpulse"),
	}
}

func GetDriveConfig(v *viper.Viper) DriveConfig {
	return DriveConfig{
		DeadbandX:         v.GetFloat64("drive.deadbandx"),
		DeadbandY:         v.GetFloat64("drive.deadbandy"),
		DeadbandRotation:  v.GetFloat64("drive.deadbandrotation"),
		DeadbandMinOutput: v.GetFloat64("drive.deadbandminoutput"),
		OutputFloor:       v.GetFloat64("drive.outputfloor"),

		SlowStrafeScalar:     v.GetFloat64("drive.slowstrafescalar"),
		StrafeTuning:         v.GetFloat64("drive.strafetuning"),
		MaxDeltaX:            v.GetFloat64("drive.maxdeltax"),
		MaxDeltaY:            v.GetFloat64("drive.maxdeltay"),
		MaxDeltaYDanger:      v.GetFloat64("drive.maxdeltaydanger"),
		StrafeMaxSignalDelta: v.GetFloat64("drive.strafemaxsignaldelta"),

		LowEncoderRate:       v.GetFloat64("drive.lowencoderrate"),
		RotateOnTargetCycles: v.GetInt("drive.rotateontargetcycles"),

		HeadingRotateTolerance:   v.GetFloat64("drive.tolerance.headingrotate"),
		HeadingStraightTolerance: v.GetFloat64("drive.tolerance.headingstraight"),
		DriveTolerance:           v.GetFloat64("drive.tolerance.drive"),
		StrafeTolerance:          v.GetFloat64("drive.tolerance.strafe"),
		SonicTolerance:           v.GetFloat64("drive.tolerance.sonic"),

		DriveStraightGains:   getGains(v, "drive.gains.drivestraight"),
		StrafeGains:          getGains(v, "drive.gains.strafe"),
		SonicGains:           getGains(v, "drive.gains.sonic"),
		HeadingStraightGains: getGains(v, "drive.gains.headingstraight"),
		HeadingRotateGains:   getGains(v, "drive.gains.headingrotate"),

		FastSpeed:   v.GetFloat64("drive.speed.fast"),
		NormalSpeed: v.GetFloat64("drive.speed.normal"),
		SlowSpeed:   v.GetFloat64("drive.speed.slow"),

		Period: v.GetDuration("drive.period"),
	}
}

func GetAutoConfig(v *viper.Viper) (AutoConfig, error) {
	routines := make([]RoutineConfig, 0)
	err := v.UnmarshalKey("routines", &routines)
	if err != nil {
		return AutoConfig{}, fmt.Errorf("error parsing routines: %w", err)
	}

	for _, routine := range routines {
		if routine.Name == "" {
			return AutoConfig{}, fmt.Errorf("error parsing routines: routine without a name")
		}
		log.Debug().Msgf("found routine in config: %s (%d steps)", routine.Name, len(routine.Steps))
	}

	return AutoConfig{
		Routine:  strings.ToLower(v.GetString("auto.routine")),
		Routines: routines,
	}, nil
}

// DefaultDriveConfig returns the drive tuning without reading the environment.
func DefaultDriveConfig() DriveConfig {
	v := viper.New()
	SetDefaults(v)
	return GetDriveConfig(v)
}

func getGains(v *viper.Viper, prefix string) Gains {
	return Gains{
		P: v.GetFloat64(prefix + ".p"),
		I: v.GetFloat64(prefix + ".i"),
		D: v.GetFloat64(prefix + ".d"),
	}
}

func getIntOr(v *viper.Viper, key string, defaultValue int) int {
	if !v.IsSet(key) {
		return defaultValue
	}
	return v.GetInt(key)
}
