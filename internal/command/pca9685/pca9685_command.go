package command

import (
	"fmt"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/vehicle"
	"github.com/googolgl/go-i2c"
	"github.com/googolgl/go-pca9685"
	"github.com/rs/zerolog/log"
)

const (
	MaxValue = 1.0
	MinValue = 0.0
	Neutral  = 0.5
	AcRange  = pca9685.ServoRangeDef

	MaxSupportedChannels = 16
)

// Command drives speed controllers on a PCA9685 board. Each output takes a servo
// style pulse where the middle of the range is neutral.
type Command struct {
	cfg    config.CommandConfig
	servos map[string]Servo
	driver *pca9685.PCA9685
}

type Servo struct {
	name     string
	inverted bool
	offset   float64
	servo    *pca9685.Servo
}

var _ vehicle.CommandDriverIFace = (*Command)(nil)

func NewCommand(cfg config.CommandConfig) *Command {
	return &Command{
		cfg: cfg,
	}
}

func (c *Command) Init() error {
	i2c, err := i2c.New(c.cfg.Address, c.cfg.I2CDevice)
	if err != nil {
		return fmt.Errorf("error starting i2c with address - %w", err)
	}

	c.driver, err = pca9685.New(i2c, nil)
	if err != nil {
		return fmt.Errorf("error getting servo driver - %w", err)
	}

	servos := make(map[string]Servo, MaxSupportedChannels)
	for i := range c.cfg.ServoCfgs {
		servoCfg := c.cfg.ServoCfgs[i]
		if servoCfg.Channel < 0 || servoCfg.Channel >= MaxSupportedChannels {
			return fmt.Errorf("servo %s has invalid channel %d", servoCfg.Name, servoCfg.Channel)
		}
		servos[servoCfg.Name] = Servo{
			name:     servoCfg.Name,
			inverted: servoCfg.Inverted,
			offset:   float64(servoCfg.Offset) / 100,
			servo: c.driver.ServoNew(servoCfg.Channel, &pca9685.ServOptions{
				AcRange:  AcRange,
				MinPulse: float32(servoCfg.MinPulse),
				MaxPulse: float32(servoCfg.MaxPulse),
			}),
		}
		log.Info().Msgf("output added: %s on channel %d", servoCfg.Name, servoCfg.Channel)
	}
	c.servos = servos
	return c.CenterAll()
}

// CenterAll sends neutral to every output.
func (c *Command) CenterAll() error {
	log.Info().Msg("centering all outputs")
	for name := range c.servos {
		err := c.servos[name].servo.Fraction(Neutral)
		if err != nil {
			return fmt.Errorf("failed centering %s: %w", name, err)
		}
	}
	return nil
}

func (c *Command) Stop() error {
	if c.driver == nil {
		return nil
	}
	return c.CenterAll()
}

func (c *Command) SetMany(cmds []vehicle.DriverCommand) error {
	for i := range cmds {
		err := c.Set(cmds[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Command) Set(cmd vehicle.DriverCommand) error {
	val, ok := c.servos[cmd.Name]
	if !ok {
		return nil
	}

	fraction := Fraction(cmd, val.offset, val.inverted)
	err := val.servo.Fraction(float32(fraction))
	if err != nil {
		return fmt.Errorf("failed setting output value - name: %s value: %.2f - error: %w", cmd.Name, fraction, err)
	}
	return nil
}

// Fraction maps a command onto the 0..1 duty range of one output.
func Fraction(cmd vehicle.DriverCommand, offset float64, inverted bool) float64 {
	if cmd.Max <= cmd.Min {
		return Neutral
	}
	mapped := vehicle.MapToRange(cmd.Value+offset, cmd.Min, cmd.Max, MinValue, MaxValue)
	if inverted {
		mapped = MaxValue - mapped
	}
	return mapped
}
