package media

import (
	"context"
	"errors"
)

// Kind selects which capture devices a session opens.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

var (
	// ErrPermissionDenied is returned when the user refuses device access.
	ErrPermissionDenied = errors.New("capture permission denied")
	// ErrInsecureContext is returned when the host context cannot request
	// capture devices at all; surfaced before any permission prompt.
	ErrInsecureContext = errors.New("capture requires a secure context")
	// ErrNoDevice is returned when no matching capture device exists.
	ErrNoDevice = errors.New("no capture device available")
)

// TrackSettings are the live track properties read at stop time.
type TrackSettings struct {
	Width  int
	Height int
}

// CaptureDevice abstracts the platform capture stack so the recording
// state machine runs without a real microphone or camera behind it.
type CaptureDevice interface {
	// Open requests the device for the given kind. It blocks until the
	// permission decision and returns the held-open stream on grant.
	Open(ctx context.Context, kind Kind) (Stream, error)
}

// Stream is an open capture stream. The device stays held until Release.
type Stream interface {
	Start() error
	Pause() error
	Resume() error
	// Stop finalizes capture and returns the buffered chunks in order.
	Stop() ([][]byte, error)
	// Settings reports the live track settings; zero values when unknown.
	Settings() TrackSettings
	// MimeType is the negotiated recording encoding.
	MimeType() string
	// Release frees the underlying device. Safe to call more than once.
	Release()
}
