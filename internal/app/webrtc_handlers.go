package app

import (
	"time"

	"github.com/Team6378/frc-2015/internal/models"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

const PingSourceName = "car"

func (c *Connection) onICEConnectionStateChange(connectionState webrtc.ICEConnectionState) {
	log.Info().Msgf("seat %d connection state has changed: %s", c.Seat, connectionState.String())
	if connectionState == webrtc.ICEConnectionStateFailed {
		c.CtxCancel()
	}
}

func (c *Connection) onICECandidate(candidate *webrtc.ICECandidate) {
	if candidate != nil {
		log.Debug().Msgf("gathered ICE candidate: %s", candidate.String())
	}
}

func (c *Connection) onDataChannel(d *webrtc.DataChannel) {
	log.Info().Msgf("new data channel: %s", d.Label())

	// Register channel opening handler
	d.OnOpen(func() {
		log.Info().Msgf("data channel open: %s", d.Label())
		c.setOutput(d.Label(), d)
	})

	// Register text message handling
	switch d.Label() {
	case "command":
		d.OnMessage(func(msg webrtc.DataChannelMessage) { c.onCommandHandler(msg.Data) })
	case "ping":
		d.OnMessage(func(msg webrtc.DataChannelMessage) { c.onPingHandler(msg.Data, time.Now()) })
	case "hud":
	default:
		log.Warn().Msgf("recieved message on unsupported channel: %s", d.Label())
	}
}

// onCommandHandler never blocks the data channel; commands are dropped when
// the seat falls behind.
func (c *Connection) onCommandHandler(data []byte) {
	state := models.ControlState{}
	err := decode(string(data), &state)
	if err != nil {
		log.Warn().Msgf("failed unmarshalling command msg: %s", data)
		return
	}

	select {
	case c.CommandChannel <- state:
	default:
		log.Debug().Msgf("seat %d command channel full, dropping command", c.Seat)
	}
}

// onPingHandler records the round trip of pings sent by the car.
func (c *Connection) onPingHandler(data []byte, now time.Time) {
	ping := models.Ping{}
	err := decode(string(data), &ping)
	if err != nil {
		log.Warn().Msgf("failed unmarshalling ping msg: %s", data)
		return
	}
	if ping.Source != PingSourceName {
		return
	}

	roundTripTime := now.UnixMilli() - ping.TimeStamp
	log.Debug().Msgf("ping: %d ms", roundTripTime)
	select {
	case c.PingInput <- roundTripTime:
	default:
	}
}
