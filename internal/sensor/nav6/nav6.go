package nav6

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Team6378/frc-2015/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"
)

// Yaw/pitch/roll update: "!y" + four 7 char fields + 2 hex checksum digits.
const (
	yprPrefix     = "!y"
	yprFieldWidth = 7
	yprFields     = 4
	yprLength     = len(yprPrefix) + yprFieldWidth*yprFields + 2

	readTimeout = 500 * time.Millisecond
)

var ErrBadChecksum = errors.New("bad checksum")

type YPR struct {
	Yaw     float64
	Pitch   float64
	Roll    float64
	Compass float64
}

func ParseYPR(line string) (YPR, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) != yprLength || !strings.HasPrefix(line, yprPrefix) {
		return YPR{}, fmt.Errorf("not a ypr update: %q", line)
	}

	body := line[:yprLength-2]
	want, err := strconv.ParseUint(line[yprLength-2:], 16, 8)
	if err != nil {
		return YPR{}, fmt.Errorf("invalid checksum digits: %w", err)
	}
	if checksum(body) != byte(want) {
		return YPR{}, ErrBadChecksum
	}

	values := make([]float64, yprFields)
	for i := range values {
		start := len(yprPrefix) + i*yprFieldWidth
		field := strings.TrimSpace(body[start : start+yprFieldWidth])
		values[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return YPR{}, fmt.Errorf("invalid ypr field %d: %w", i, err)
		}
	}

	return YPR{
		Yaw:     values[0],
		Pitch:   values[1],
		Roll:    values[2],
		Compass: values[3],
	}, nil
}

func checksum(body string) byte {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum += body[i]
	}
	return sum
}

// IMU is a nav6 board streaming yaw/pitch/roll over a serial port.
type IMU struct {
	cfg config.IMUConfig

	lock    sync.RWMutex
	ypr     YPR
	offset  float64
	updates uint64
	errors  uint64
}

func New(cfg config.IMUConfig) *IMU {
	return &IMU{
		cfg: cfg,
	}
}

// Yaw is degrees in [-180, 180) relative to the last ZeroYaw.
func (i *IMU) Yaw() float64 {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return normalize(i.ypr.Yaw - i.offset)
}

func (i *IMU) ZeroYaw() {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.offset = i.ypr.Yaw
	log.Info().Msgf("imu yaw zeroed at %.2f", i.offset)
}

func (i *IMU) Latest() YPR {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.ypr
}

func (i *IMU) Stats() (updates, errors uint64) {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.updates, i.errors
}

func (i *IMU) Start(ctx context.Context) error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        i.cfg.Port,
		Baud:        i.cfg.Baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed opening imu port %s: %w", i.cfg.Port, err)
	}
	defer port.Close()
	log.Info().Msgf("reading imu from %s @ %d", i.cfg.Port, i.cfg.Baud)

	return i.consume(ctx, port)
}

func (i *IMU) consume(ctx context.Context, r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		if ctx.Err() != nil {
			log.Info().Msgf("stopping imu reader: %s", ctx.Err().Error())
			return ctx.Err()
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrNoProgress) {
				// read timeout with no data
				if line == "" {
					continue
				}
			} else {
				return fmt.Errorf("failed reading imu: %w", err)
			}
		}

		if !strings.HasPrefix(line, yprPrefix) {
			continue
		}

		ypr, err := ParseYPR(line)
		if err != nil {
			i.lock.Lock()
			i.errors++
			i.lock.Unlock()
			log.Debug().Msgf("dropping imu update: %s", err.Error())
			continue
		}
		i.update(ypr)
	}
}

func (i *IMU) update(ypr YPR) {
	i.lock.Lock()
	defer i.lock.Unlock()
	i.ypr = ypr
	i.updates++
}

func normalize(angle float64) float64 {
	angle = math.Mod(angle+180, 360)
	if angle < 0 {
		angle += 360
	}
	return angle - 180
}
