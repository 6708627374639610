package app

import (
	"fmt"

	"github.com/Team6378/frc-2015/internal/auto"
	"github.com/Team6378/frc-2015/internal/command/gpio"
	command "github.com/Team6378/frc-2015/internal/command/pca9685"
	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/drive"
	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/sensor"
	"github.com/Team6378/frc-2015/internal/sensor/canenc"
	"github.com/Team6378/frc-2015/internal/sensor/nav6"
	"github.com/Team6378/frc-2015/internal/sensor/sonic"
	"github.com/Team6378/frc-2015/internal/vehicle/strafer"
	"github.com/rs/zerolog/log"
)

// NewStrafer wires the drive hardware into a strafer. The returned cleanup
// releases the GPIO mapping.
func NewStrafer(cfg config.Config, seats []models.Seat) (*strafer.Strafer, func(), error) {
	pins := gpio.NewDriver()
	err := pins.Init()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		err := pins.Stop()
		if err != nil {
			log.Error().Msgf("failed releasing gpio: %s", err.Error())
		}
	}

	suspension, err := pins.Solenoid("suspension", cfg.GPIOCfg.SuspensionPin)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	bus := canenc.NewBus(cfg.CANCfg.Interface)
	left := bus.Register(cfg.CANCfg.LeftID, cfg.CANCfg.DistancePerPulse)
	right := bus.Register(cfg.CANCfg.RightID, cfg.CANCfg.DistancePerPulse)

	imu := nav6.New(cfg.IMUCfg)
	devices := []strafer.Device{bus, imu}

	sensors := drive.Sensors{
		// the right side encoder counts down going forward
		DriveEncoder: sensor.NewDualEncoder(left, sensor.Inverted{Encoder: right}),
		Heading:      imu,
		Suspension:   suspension,
	}
	if cfg.CANCfg.CenterEnabled {
		sensors.StrafeEncoder = bus.Register(cfg.CANCfg.CenterID, cfg.CANCfg.CenterDistancePerPulse)
	}
	if cfg.GPIOCfg.SonicEnabled {
		ranger := sonic.New(cfg.GPIOCfg.SonicTrigger, cfg.GPIOCfg.SonicEcho)
		sensors.Range = ranger
		devices = append(devices, ranger)
	}

	motors := command.NewCommand(cfg.CommandCfg)
	train, err := drive.NewDriveTrain(cfg.DriveCfg, motors, sensors)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed building drive train: %w", err)
	}

	factory, err := auto.NewFactory(train, cfg.AutoCfg, cfg.DriveCfg.Period)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed building routines: %w", err)
	}

	car := strafer.NewStrafer(cfg, train, factory, motors, seats, devices...)
	err = car.Init()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return car, cleanup, nil
}
