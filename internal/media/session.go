package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nextch/chat-engine/internal/store"
)

// State is a recording session's position in its lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StatePermissionPending State = "permission_pending"
	StateReady             State = "ready"
	StateActive            State = "active"
	StatePaused            State = "paused"
	StateStopped           State = "stopped"
	StateCancelled         State = "cancelled"
)

// ErrBadState is returned when an operation is invalid for the session's
// current state.
var ErrBadState = errors.New("invalid recording state")

// Result is the output of a completed recording. MediaID references the
// persisted blob; when persistence failed, Blob carries the bytes directly
// and MediaID is empty.
type Result struct {
	MediaID  string
	Blob     []byte
	MimeType string
	Duration int
	Width    int
	Height   int
}

// Session drives one recording from permission request to a finalized
// blob. A session is single-use: once stopped or cancelled it is done and
// the next recording starts a fresh one. The capture device is held
// exclusively from a successful Open until Stop or Cancel.
type Session struct {
	device CaptureDevice
	media  *store.MediaRepository
	logger *logrus.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	kind     Kind
	stream   Stream
	markedAt time.Time
	elapsed  time.Duration
}

// NewSession creates an idle recording session. media may be nil, in which
// case results are always returned in memory.
func NewSession(device CaptureDevice, media *store.MediaRepository, logger *logrus.Logger) *Session {
	return &Session{
		device: device,
		media:  media,
		logger: logger,
		now:    time.Now,
		state:  StateIdle,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ElapsedSeconds returns the recorded time so far at one-second resolution.
func (s *Session) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.elapsedLocked().Seconds())
}

func (s *Session) elapsedLocked() time.Duration {
	total := s.elapsed
	if s.state == StateActive {
		total += s.now().Sub(s.markedAt)
	}
	return total
}

// Open requests the capture device. On grant the stream is held open
// without recording, so permission is primed at user-gesture time. On
// denial the session returns to idle.
func (s *Session) Open(ctx context.Context, kind Kind) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: open from %s", ErrBadState, s.state)
	}
	s.state = StatePermissionPending
	s.kind = kind
	s.mu.Unlock()

	stream, err := s.device.Open(ctx, kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateIdle
		return err
	}
	if s.state != StatePermissionPending {
		// Cancelled while the permission prompt was up.
		stream.Release()
		return fmt.Errorf("%w: session %s during permission prompt", ErrBadState, s.state)
	}
	s.stream = stream
	s.state = StateReady
	return nil
}

// Start begins actual capture and the elapsed-time counter.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return fmt.Errorf("%w: start from %s", ErrBadState, s.state)
	}
	if err := s.stream.Start(); err != nil {
		return err
	}
	s.state = StateActive
	s.markedAt = s.now()
	return nil
}

// Pause suspends capture; the counter stops with it.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return fmt.Errorf("%w: pause from %s", ErrBadState, s.state)
	}
	if err := s.stream.Pause(); err != nil {
		return err
	}
	s.elapsed += s.now().Sub(s.markedAt)
	s.state = StatePaused
	return nil
}

// Resume continues a paused capture.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrBadState, s.state)
	}
	if err := s.stream.Resume(); err != nil {
		return err
	}
	s.markedAt = s.now()
	s.state = StateActive
	return nil
}

// Stop finalizes the recording: chunks are assembled into a single blob,
// duration and track dimensions are captured, and the blob is persisted to
// the media store. If persistence fails the blob is returned in memory
// instead; a failed store is degraded playback, not a lost recording.
func (s *Session) Stop() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive && s.state != StatePaused {
		return nil, fmt.Errorf("%w: stop from %s", ErrBadState, s.state)
	}
	if s.state == StateActive {
		s.elapsed += s.now().Sub(s.markedAt)
	}

	chunks, err := s.stream.Stop()
	settings := s.stream.Settings()
	mime := s.stream.MimeType()
	s.stream.Release()
	s.state = StateStopped
	if err != nil {
		return nil, err
	}

	result := &Result{
		MimeType: mime,
		Duration: int(s.elapsed.Seconds()),
	}
	if s.kind == KindVideo {
		result.Width = settings.Width
		result.Height = settings.Height
	}

	blob := bytes.Join(chunks, nil)
	if s.media != nil {
		id := newMediaID()
		_, perr := s.media.Put(id, blob, store.MediaMeta{
			Type:     string(s.kind),
			Duration: result.Duration,
			Width:    result.Width,
			Height:   result.Height,
			MimeType: mime,
		})
		if perr == nil {
			result.MediaID = id
			return result, nil
		}
		s.logger.WithError(perr).Warn("media store put failed, returning in-memory blob")
	}
	result.Blob = blob
	return result, nil
}

// Cancel discards the recording from any non-idle state and releases the
// device. Buffered data is dropped; nothing is persisted.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle, StateStopped, StateCancelled:
		return fmt.Errorf("%w: cancel from %s", ErrBadState, s.state)
	}
	if s.stream != nil {
		// Discard whatever the device buffered.
		_, _ = s.stream.Stop()
		s.stream.Release()
		s.stream = nil
	}
	s.state = StateCancelled
	return nil
}

const mediaIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// newMediaID generates a locally unique media key: unix millis plus a
// random suffix, the same scheme message ids use.
func newMediaID() string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = mediaIDAlphabet[rand.Intn(len(mediaIDAlphabet))]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + string(suffix)
}
