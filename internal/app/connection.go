package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Team6378/frc-2015/internal/models"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

const (
	pingInterval = 1 * time.Second
	hudInterval  = 33 * time.Millisecond //30hz
)

// Connection is one operator's peer connection bound to a seat.
type Connection struct {
	Seat           int
	PeerConnection *webrtc.PeerConnection
	Ctx            context.Context
	CtxCancel      context.CancelFunc
	CommandChannel chan models.ControlState
	HudChannel     chan models.Hud

	lock       sync.RWMutex
	hudOutput  *webrtc.DataChannel
	pingOutput *webrtc.DataChannel
	PingInput  chan int64
}

func NewConnection(ctx context.Context, seat models.Seat, peerConn *webrtc.PeerConnection) *Connection {
	log.Info().Msgf("creating user connection for seat %d", seat.Index)
	ctx, cancel := context.WithCancel(ctx)
	return &Connection{
		Seat:           seat.Index,
		PeerConnection: peerConn,
		Ctx:            ctx,
		CtxCancel:      cancel,
		CommandChannel: seat.CommandChannel,
		HudChannel:     seat.HudChannel,
		PingInput:      make(chan int64, 10),
	}
}

func (c *Connection) Disconnect() {
	log.Info().Msgf("user disconnecting from seat %d", c.Seat)
	c.CtxCancel()
	if c.PeerConnection != nil {
		err := c.PeerConnection.Close()
		if err != nil {
			log.Warn().Msgf("failed closing peer connection: %s", err.Error())
		}
	}
}

func (c *Connection) RegisterHandlers() {
	log.Info().Msg("start event listeners")
	// Set the handler for ICE connection state
	// This will notify you when the peer has connected/disconnected
	c.PeerConnection.OnICEConnectionStateChange(c.onICEConnectionStateChange)

	// Handle ICE candidate messages from the client
	c.PeerConnection.OnICECandidate(c.onICECandidate)

	c.PeerConnection.OnDataChannel(c.onDataChannel)

	go c.updateUser()
}

// updateUser forwards the newest hud at a fixed rate and keeps the ping going.
func (c *Connection) updateUser() {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	hudTicker := time.NewTicker(hudInterval)
	defer hudTicker.Stop()

	sent := true
	hudToSend := models.Hud{}
	lastPing := int64(0)
	for {
		select {
		case <-c.Ctx.Done():
			log.Info().Msgf("stopping user updater: %s", c.Ctx.Err().Error())
			return
		case hud, ok := <-c.HudChannel:
			if !ok {
				log.Info().Msg("hud channel closed")
				return
			}
			hudToSend = hud
			sent = false
		case <-pingTicker.C:
			output := c.output("ping")
			if output == nil {
				continue
			}
			encodedMsg, err := encode(models.Ping{
				TimeStamp: time.Now().UnixMilli(),
				Source:    PingSourceName,
			})
			if err != nil {
				log.Error().Msgf("failed encoding ping: %s", err.Error())
				continue
			}
			err = output.SendText(encodedMsg)
			if err != nil {
				log.Warn().Msgf("failed sending ping: %s", err.Error())
			}
		case recievedPing, ok := <-c.PingInput:
			if !ok {
				log.Info().Msg("ping channel closed")
				return
			}
			lastPing = recievedPing
		case <-hudTicker.C:
			output := c.output("hud")
			if sent || output == nil {
				continue
			}
			encodedMsg, err := encode(withPing(hudToSend, lastPing))
			sent = true
			if err != nil {
				log.Error().Msgf("failed encoding hud: %s", err.Error())
				continue
			}
			err = output.SendText(encodedMsg)
			if err != nil {
				log.Warn().Msgf("failed sending hud: %s", err.Error())
			}
		}
	}
}

// withPing appends the round trip time to the first hud line.
func withPing(hud models.Hud, ping int64) models.Hud {
	if len(hud.Lines) == 0 {
		return hud
	}
	lines := append([]string(nil), hud.Lines...)
	lines[0] = fmt.Sprintf("%s | Ping:%dms", lines[0], ping)
	return models.Hud{Lines: lines}
}

func (c *Connection) setOutput(label string, d *webrtc.DataChannel) {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch label {
	case "hud":
		c.hudOutput = d
	case "ping":
		c.pingOutput = d
	}
}

func (c *Connection) output(label string) *webrtc.DataChannel {
	c.lock.RLock()
	defer c.lock.RUnlock()
	switch label {
	case "hud":
		return c.hudOutput
	case "ping":
		return c.pingOutput
	}
	return nil
}
