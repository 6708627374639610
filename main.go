package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Team6378/frc-2015/internal/app"
	"github.com/Team6378/frc-2015/internal/auto"
	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/models"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

func main() {
	cliApp := cli.NewApp()
	cliApp.Name = "strafer"
	cliApp.Usage = "three wheel strafing drive"
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a config file",
		},
	}
	cliApp.Action = teleop
	cliApp.Commands = []cli.Command{
		{
			Name:   "teleop",
			Usage:  "connect to the track server and drive from the seats",
			Action: teleop,
		},
		{
			Name:  "auto",
			Usage: "run one routine and exit",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "routine",
					Usage: "routine name, defaults to auto.routine from config",
				},
			},
			Action: runRoutine,
		},
		{
			Name:   "routines",
			Usage:  "list routine names",
			Action: listRoutines,
		},
	}

	err := cliApp.Run(os.Args)
	if err != nil {
		log.Error().Msgf("shutdown with error: %s", err.Error())
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cfg, err
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

func teleop(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	socketURI := fmt.Sprintf("http://%s", cfg.ServerCfg.Server)
	client, err := socketio.NewClient(socketURI, nil)
	if err != nil {
		return fmt.Errorf("error creating client - %w", err)
	}

	seats := models.NewSeats(cfg.ServerCfg.SeatCount)
	car, cleanup, err := app.NewStrafer(cfg, seats)
	if err != nil {
		return err
	}
	defer cleanup()

	a := app.NewApp(cfg, client, car, seats)
	err = a.RegisterHandlers()
	if err != nil {
		return err
	}

	err = a.Start(context.Background())
	if err != nil {
		return err
	}
	log.Info().Msg("client shutdown successfully")
	return nil
}

func runRoutine(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	name := c.String("routine")
	if name == "" {
		name = cfg.AutoCfg.Routine
	}

	car, cleanup, err := app.NewStrafer(cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return car.RunRoutine(ctx, name)
}

// listRoutines needs no hardware. Items only touch the drive when they run.
func listRoutines(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	factory, err := auto.NewFactory(nil, cfg.AutoCfg, cfg.DriveCfg.Period)
	if err != nil {
		return err
	}
	for _, name := range factory.Names() {
		fmt.Println(name)
	}
	return nil
}
