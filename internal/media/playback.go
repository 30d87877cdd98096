package media

import "sync"

// Handle is a playable element the coordinator can pause.
type Handle interface {
	Pause()
}

type playbackEntry struct {
	handle  Handle
	playing bool
}

// Coordinator keeps at most one registered handle playing at a time
// across all rendered audio and video elements. Scope is a single process
// lifetime; there is no cross-session coordination.
type Coordinator struct {
	mu         sync.Mutex
	entries    map[string]*playbackEntry
	nowPlaying string
}

// NewCoordinator creates an empty playback coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{entries: make(map[string]*playbackEntry)}
}

// Register adds a handle under id, replacing any previous registration.
func (c *Coordinator) Register(id string, h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = &playbackEntry{handle: h}
}

// Unregister removes a handle. If it was the current "now playing" the
// marker is cleared.
func (c *Coordinator) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	if c.nowPlaying == id {
		c.nowPlaying = ""
	}
}

// Play pauses every other playing handle and marks id as now playing. The
// caller then starts its own playback.
func (c *Coordinator) Play(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for otherID, e := range c.entries {
		if otherID != id && e.playing {
			e.handle.Pause()
			e.playing = false
		}
	}
	c.nowPlaying = ""
	if e, ok := c.entries[id]; ok {
		e.playing = true
		c.nowPlaying = id
	}
}

// Pause records that id stopped playing.
func (c *Coordinator) Pause(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		e.playing = false
	}
	if c.nowPlaying == id {
		c.nowPlaying = ""
	}
}

// Ended records that id finished playback.
func (c *Coordinator) Ended(id string) {
	c.Pause(id)
}

// NowPlaying returns the id of the currently playing handle, or "".
func (c *Coordinator) NowPlaying() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowPlaying
}
