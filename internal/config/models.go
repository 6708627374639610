package config

import "time"

const (
	MaxSupportedServos = 16
	AppEnvBase         = "GORRC"

	DefaultLogLevel = "info"

	DefaultServer         = "127.0.0.1:8181"
	DefaultCarKey         = ""
	DefaultPassword       = ""
	DefaultSeatCount      = 1
	DefaultNetInterface   = "wlan0"
	DefaultHealthInterval = 30 * time.Second

	DefaultMaxPulse = 2000
	DefaultMinPulse = 1000
	DefaultInverted = false
	DefaultOffset   = 0

	// Default Command Options
	DefaultCommandDriver = "pca9685"
	DefaultAddress       = 0x40
	DefaultI2CDevice     = "/dev/i2c-1"

	DefaultLeftMotorName    = "left"
	DefaultRightMotorName   = "right"
	DefaultCenterMotorName  = "center"
	DefaultLeftMotorChannel = 0
	DefaultRightMotorChan   = 1
	DefaultCenterMotorChan  = 2

	// Default GPIO Options (BCM numbering)
	DefaultSuspensionPin = 17
	DefaultSonicEnabled  = true
	DefaultSonicTrigger  = 23
	DefaultSonicEcho     = 24

	// Default IMU Options
	DefaultIMUPort = "/dev/ttyUSB0"
	DefaultIMUBaud = 57600

	// Default CAN encoder options
	DefaultCANInterface       = "can0"
	DefaultLeftEncoderID      = 0x101
	DefaultRightEncoderID     = 0x102
	DefaultCenterEncoderID    = 0x103
	DefaultCenterEncoder      = true
	DefaultDistancePerPulse   = 0.0414221608
	DefaultCenterDistPerPulse = 0.0414221608

	// Drive tuning
	DefaultDeadbandX         = 0.25
	DefaultDeadbandY         = 0.2
	DefaultDeadbandRotation  = 0.2
	DefaultDeadbandMinOutput = 0.1
	DefaultOutputFloor       = 0.1

	DefaultSlowStrafeScalar     = 0.6
	DefaultStrafeTuning         = 1.0
	DefaultMaxDeltaX            = 0.02
	DefaultMaxDeltaY            = 0.05
	DefaultMaxDeltaYDanger      = 0.025
	DefaultStrafeMaxSignalDelta = 0.045

	DefaultLowEncoderRate       = 40.0
	DefaultRotateOnTargetCycles = 10

	DefaultHeadingRotateTolerance   = 1.0
	DefaultHeadingStraightTolerance = 2.0
	DefaultDriveTolerance           = 3.0
	DefaultStrafeTolerance          = 2.0
	DefaultSonicTolerance           = 2.0

	DefaultDriveStraightP   = 0.025
	DefaultStrafeP          = 0.08
	DefaultSonicP           = 0.075
	DefaultHeadingStraightP = 0.05
	DefaultHeadingStraightD = 0.01
	DefaultHeadingRotateP   = 0.025
	DefaultHeadingRotateD   = 0.01

	DefaultFastSpeed   = 1.0
	DefaultNormalSpeed = 0.75
	DefaultSlowSpeed   = 0.5

	DefaultPeriod = 20 * time.Millisecond

	DefaultRoutine = "cross_line"
)

type Config struct {
	LogLevel   string
	ServerCfg  ServerConfig
	CommandCfg CommandConfig
	GPIOCfg    GPIOConfig
	IMUCfg     IMUConfig
	CANCfg     CANConfig
	DriveCfg   DriveConfig
	AutoCfg    AutoConfig
}

type ServerConfig struct {
	Server         string
	Key            string
	Password       string
	SeatCount      int
	NetInterface   string
	HealthInterval time.Duration
}

type CommandConfig struct {
	CommandDriver string
	Address       byte
	I2CDevice     string
	ServoCfgs     []ServoConfig
}

type ServoConfig struct {
	Name     string
	Inverted bool
	Channel  int
	MaxPulse float64
	MinPulse float64
	Offset   int
}

type GPIOConfig struct {
	SuspensionPin int
	SonicEnabled  bool
	SonicTrigger  int
	SonicEcho     int
}

type IMUConfig struct {
	Port string
	Baud int
}

type CANConfig struct {
	Interface              string
	LeftID                 uint32
	RightID                uint32
	CenterID               uint32
	CenterEnabled          bool
	DistancePerPulse       float64
	CenterDistancePerPulse float64
}

type Gains struct {
	P float64
	I float64
	D float64
}

type DriveConfig struct {
	DeadbandX         float64
	DeadbandY         float64
	DeadbandRotation  float64
	DeadbandMinOutput float64
	OutputFloor       float64

	SlowStrafeScalar     float64
	StrafeTuning         float64
	MaxDeltaX            float64
	MaxDeltaY            float64
	MaxDeltaYDanger      float64
	StrafeMaxSignalDelta float64

	LowEncoderRate       float64
	RotateOnTargetCycles int

	HeadingRotateTolerance   float64
	HeadingStraightTolerance float64
	DriveTolerance           float64
	StrafeTolerance          float64
	SonicTolerance           float64

	DriveStraightGains   Gains
	StrafeGains          Gains
	SonicGains           Gains
	HeadingStraightGains Gains
	HeadingRotateGains   Gains

	FastSpeed   float64
	NormalSpeed float64
	SlowSpeed   float64

	Period time.Duration
}

type AutoConfig struct {
	Routine  string
	Routines []RoutineConfig
}

// RoutineConfig is a routine declared in the config file.
type RoutineConfig struct {
	Name  string       `mapstructure:"name"`
	Steps []StepConfig `mapstructure:"steps"`
}

// StepConfig describes one sequenced item. Unused fields are ignored by the step type.
type StepConfig struct {
	Type    string   `mapstructure:"type"`
	Inches  float64  `mapstructure:"inches"`
	Degrees float64  `mapstructure:"degrees"`
	Heading *float64 `mapstructure:"heading"`
	Left    float64  `mapstructure:"left"`
	Right   float64  `mapstructure:"right"`
	P       float64  `mapstructure:"p"`
	I       float64  `mapstructure:"i"`
	D       float64  `mapstructure:"d"`
	Value   bool     `mapstructure:"value"`
	Speed   string   `mapstructure:"speed"`
	Timeout float64  `mapstructure:"timeout"` // seconds
}
