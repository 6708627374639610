package auto

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrSequenceFinished = errors.New("sequence already finished")

// Result is what an item reports after one cycle: either done, or keep running
// with the given timeout. An item may shorten its own timeout between cycles.
type Result struct {
	done    bool
	timeout time.Duration
}

func Continue(timeout time.Duration) Result {
	return Result{timeout: timeout}
}

func Done() Result {
	return Result{done: true}
}

func (r Result) IsDone() bool {
	return r.done
}

func (r Result) Timeout() time.Duration {
	return r.timeout
}

// Item is one step of a sequence. Run is called once per control cycle and must
// not block.
type Item interface {
	Run() (Result, error)
}

// Stopper is implemented by items that leave actuators running when they are cut
// short by their timeout or a cancel.
type Stopper interface {
	Stop() error
}

// Sequencer runs items in order, one call per control cycle. Elapsed time is
// counted in cycles, so a timeout of T always ends after T/period calls.
type Sequencer struct {
	name    string
	period  time.Duration
	items   []Item
	index   int
	elapsed time.Duration
}

func NewSequencer(name string, period time.Duration, items ...Item) *Sequencer {
	return &Sequencer{
		name:   name,
		period: period,
		items:  items,
	}
}

// Run runs the current item for one cycle and advances when it is done or its
// timeout has elapsed. It reports true once the last item has been passed.
func (s *Sequencer) Run() (bool, error) {
	if s.Finished() {
		return true, fmt.Errorf("%s: %w", s.name, ErrSequenceFinished)
	}

	item := s.items[s.index]
	result, err := item.Run()
	if err != nil {
		return false, fmt.Errorf("%s step %d: %w", s.name, s.index, err)
	}
	s.elapsed += s.period

	switch {
	case result.IsDone():
		log.Debug().Msgf("%s step %d done after %s", s.name, s.index, s.elapsed)
		s.advance()
	case s.elapsed >= result.Timeout():
		log.Debug().Msgf("%s step %d timed out after %s", s.name, s.index, s.elapsed)
		err = stop(item)
		if err != nil {
			return false, fmt.Errorf("%s step %d: %w", s.name, s.index, err)
		}
		s.advance()
	}

	if s.Finished() {
		log.Info().Msgf("sequence %s finished", s.name)
	}
	return s.Finished(), nil
}

func (s *Sequencer) advance() {
	s.index++
	s.elapsed = 0
}

// Cancel stops the current item and finishes the sequence.
func (s *Sequencer) Cancel() error {
	if s.Finished() {
		return nil
	}
	item := s.items[s.index]
	s.index = len(s.items)
	log.Info().Msgf("sequence %s cancelled", s.name)
	return stop(item)
}

func (s *Sequencer) Finished() bool {
	return s.index >= len(s.items)
}

func (s *Sequencer) Name() string {
	return s.name
}

func (s *Sequencer) Index() int {
	return s.index
}

func (s *Sequencer) Len() int {
	return len(s.items)
}

// Elapsed is the time spent on the current item.
func (s *Sequencer) Elapsed() time.Duration {
	return s.elapsed
}

func stop(item Item) error {
	stopper, ok := item.(Stopper)
	if !ok {
		return nil
	}
	return stopper.Stop()
}
