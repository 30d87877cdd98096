package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeHandle struct {
	pauses int
}

func (f *fakeHandle) Pause() { f.pauses++ }

func TestCoordinatorPausesOthers(t *testing.T) {
	c := NewCoordinator()
	a := &fakeHandle{}
	b := &fakeHandle{}
	c.Register("a", a)
	c.Register("b", b)

	c.Play("a")
	assert.Equal(t, "a", c.NowPlaying())
	assert.Zero(t, a.pauses)

	c.Play("b")
	assert.Equal(t, "b", c.NowPlaying())
	assert.Equal(t, 1, a.pauses, "starting b pauses a")
	assert.Zero(t, b.pauses)

	// Playing b again must not pause anything.
	c.Play("b")
	assert.Equal(t, 1, a.pauses)
	assert.Zero(t, b.pauses)
}

func TestCoordinatorPauseAndEnded(t *testing.T) {
	c := NewCoordinator()
	a := &fakeHandle{}
	c.Register("a", a)

	c.Play("a")
	c.Pause("a")
	assert.Empty(t, c.NowPlaying())

	c.Play("a")
	c.Ended("a")
	assert.Empty(t, c.NowPlaying())
}

func TestCoordinatorUnregister(t *testing.T) {
	c := NewCoordinator()
	a := &fakeHandle{}
	b := &fakeHandle{}
	c.Register("a", a)
	c.Register("b", b)

	c.Play("a")
	c.Unregister("a")
	assert.Empty(t, c.NowPlaying())

	// A stale id is a no-op, not a pause of survivors.
	c.Play("b")
	c.Unregister("a")
	assert.Equal(t, "b", c.NowPlaying())
	assert.Zero(t, b.pauses)
}

func TestCoordinatorPlayUnknownID(t *testing.T) {
	c := NewCoordinator()
	a := &fakeHandle{}
	c.Register("a", a)
	c.Play("a")

	c.Play("ghost")
	assert.Equal(t, 1, a.pauses, "unknown id still pauses the field")
	assert.Empty(t, c.NowPlaying())
}
