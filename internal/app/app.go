package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/Team6378/frc-2015/internal/models"
	"github.com/Team6378/frc-2015/internal/vehicle"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrSignal = errors.New("received signal")

// App links the vehicle to the track server. Operators reach the seats over
// WebRTC data channels negotiated through socket.io.
type App struct {
	cfg    config.Config
	client *socketio.Client
	car    vehicle.Vehicle
	seats  []models.Seat

	lock      sync.Mutex
	userConns []*Connection
	carInfo   models.Car
	trackInfo models.Track
}

func NewApp(cfg config.Config, client *socketio.Client, car vehicle.Vehicle, seats []models.Seat) *App {
	return &App{
		cfg:       cfg,
		client:    client,
		car:       car,
		seats:     seats,
		userConns: make([]*Connection, len(seats)),
	}
}

func (a *App) RegisterHandlers() error {
	log.Info().Msg("registering handlers")
	a.client.OnEvent("reply", func(s socketio.Conn, msg string) {
		log.Debug().Msgf("receive message /reply: %s", msg)
	})

	a.client.OnEvent("offer", a.onOffer)

	a.client.OnEvent("candidate", a.onICECandidate)

	a.client.OnEvent("register_success", a.onRegisterSuccess)

	log.Info().Msg("attemping to connect to server...")
	err := a.client.Connect() //Client must have atleast 1 event handler to work
	if err != nil {
		return fmt.Errorf("error connecting to server - %w", err)
	}
	log.Info().Msg("connected to server")
	return nil
}

func (a *App) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	log.Info().Msg("starting...")

	defer func() {
		log.Info().Msg("stopping...")
		a.disconnectAll()
		a.client.Close()
	}()

	//kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalChannel)
		select {
		case sig := <-signalChannel:
			log.Info().Msgf("received signal: %s", sig)
			return fmt.Errorf("%w: %s", ErrSignal, sig)
		case <-groupCtx.Done():
			log.Debug().Msg("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	//Start car
	group.Go(func() error {
		return a.car.Start(groupCtx)
	})

	//Send connect and send healthchecks
	group.Go(func() error {
		encodedMsg, err := encode(models.ConnectReq{
			Key:       a.cfg.ServerCfg.Key,
			Password:  a.cfg.ServerCfg.Password,
			SeatCount: len(a.seats),
		})
		if err != nil {
			return fmt.Errorf("failed encoding connect request: %w", err)
		}
		a.client.Emit("car_connect", encodedMsg)

		healthTicker := time.NewTicker(a.cfg.ServerCfg.HealthInterval)
		defer healthTicker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				log.Info().Msg("health checker stopped")
				return groupCtx.Err()
			case <-healthTicker.C:
				log.Debug().Msg("healthcheck: healthy")
				a.client.Emit("car_healthy", "")
			}
		}
	})

	err := group.Wait()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, ErrSignal) {
			log.Info().Msgf("shutting down: %s", err.Error())
			return nil
		}
		return fmt.Errorf("client stopping due to error - %w", err)
	}

	log.Info().Msg("shutting down")
	return nil
}

// setConnection replaces the connection of a seat, closing the old one.
func (a *App) setConnection(seat int, conn *Connection) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.userConns[seat] != nil {
		log.Info().Msgf("replacing connection on seat %d", seat)
		a.userConns[seat].Disconnect()
	}
	a.userConns[seat] = conn
}

func (a *App) connection(seat int) *Connection {
	a.lock.Lock()
	defer a.lock.Unlock()
	if seat < 0 || seat >= len(a.userConns) {
		return nil
	}
	return a.userConns[seat]
}

func (a *App) disconnectAll() {
	a.lock.Lock()
	defer a.lock.Unlock()
	for i := range a.userConns {
		if a.userConns[i] != nil {
			a.userConns[i].Disconnect()
			a.userConns[i] = nil
		}
	}
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(msg string, v any) error {
	return json.Unmarshal([]byte(msg), v)
}
