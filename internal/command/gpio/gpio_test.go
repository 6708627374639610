package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	level bool
	calls int
}

func (o *fakeOutput) High() { o.level = true; o.calls++ }
func (o *fakeOutput) Low()  { o.level = false; o.calls++ }

func TestSolenoid(t *testing.T) {
	out := &fakeOutput{}
	s := newSolenoid("suspension", out)

	require.NoError(t, s.Set(true))
	assert.True(t, out.level)
	assert.True(t, s.Get())

	require.NoError(t, s.Set(false))
	assert.False(t, out.level)
	assert.False(t, s.Get())
	assert.Equal(t, 2, out.calls)
}

func TestDriver_SolenoidNeedsInit(t *testing.T) {
	d := NewDriver()
	_, err := d.Solenoid("suspension", 17)
	assert.Error(t, err)
	assert.NoError(t, d.Stop(), "stop before init is a no-op")
}
