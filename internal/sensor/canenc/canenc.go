package canenc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// Encoder feedback frames carry the signed pulse count in bytes 0-3 and the signed
// velocity in pulses per 100ms in bytes 4-5, little endian.
const (
	countStart     = 0
	countLength    = 32
	velocityStart  = 32
	velocityLength = 16
	minFrameLength = 6

	velocityPeriodsPerSecond = 10
)

// Encoder is one wheel encoder reporting over CAN.
type Encoder struct {
	id               uint32
	distancePerPulse float64

	lock     sync.RWMutex
	count    int64
	velocity int64
	zero     int64
	frames   uint64
}

func (e *Encoder) ID() uint32 {
	return e.id
}

// Distance is inches travelled since the last Reset.
func (e *Encoder) Distance() float64 {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return float64(e.count-e.zero) * e.distancePerPulse
}

// Rate is inches per second.
func (e *Encoder) Rate() float64 {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return float64(e.velocity) * e.distancePerPulse * velocityPeriodsPerSecond
}

func (e *Encoder) Reset() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.zero = e.count
}

func (e *Encoder) Frames() uint64 {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.frames
}

func (e *Encoder) update(frame can.Frame) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.count = frame.Data.SignedBitsLittleEndian(countStart, countLength)
	e.velocity = frame.Data.SignedBitsLittleEndian(velocityStart, velocityLength)
	e.frames++
}

// Bus reads encoder frames from a SocketCAN interface.
type Bus struct {
	iface    string
	lock     sync.RWMutex
	encoders map[uint32]*Encoder
}

func NewBus(iface string) *Bus {
	return &Bus{
		iface:    iface,
		encoders: make(map[uint32]*Encoder),
	}
}

// Register returns the encoder for id, creating it on first use.
func (b *Bus) Register(id uint32, distancePerPulse float64) *Encoder {
	b.lock.Lock()
	defer b.lock.Unlock()

	enc, ok := b.encoders[id]
	if !ok {
		enc = &Encoder{
			id:               id,
			distancePerPulse: distancePerPulse,
		}
		b.encoders[id] = enc
		log.Info().Msgf("encoder registered on %s: 0x%03x", b.iface, id)
	}
	return enc
}

// Handle routes one frame to its encoder. It reports whether the frame was used.
func (b *Bus) Handle(frame can.Frame) bool {
	if frame.IsRemote || frame.Length < minFrameLength {
		return false
	}

	b.lock.RLock()
	enc, ok := b.encoders[frame.ID]
	b.lock.RUnlock()
	if !ok {
		return false
	}

	enc.update(frame)
	return true
}

// Start receives frames until ctx is done or the socket fails.
func (b *Bus) Start(ctx context.Context) error {
	conn, err := socketcan.DialContext(ctx, "can", b.iface)
	if err != nil {
		return fmt.Errorf("socketcan dial %s: %w", b.iface, err)
	}
	log.Info().Msgf("reading encoders from %s", b.iface)

	return b.receive(ctx, conn)
}

func (b *Bus) receive(ctx context.Context, conn net.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	recv := socketcan.NewReceiver(conn)
	for recv.Receive() {
		if recv.HasErrorFrame() {
			log.Warn().Msgf("error frame on %s: %v", b.iface, recv.ErrorFrame())
			continue
		}
		b.Handle(recv.Frame())
	}

	if ctx.Err() != nil {
		log.Info().Msgf("stopping encoder reader on %s: %s", b.iface, ctx.Err().Error())
		return ctx.Err()
	}
	return fmt.Errorf("can receive on %s stopped: %w", b.iface, recv.Err())
}
