package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

var ErrRecorderClosed = errors.New("recorder closed")

// Opus always runs at 48 kHz on the wire.
const (
	opusRate     = 48000
	opusChannels = 2
)

// Recorder writes one Opus track into an Ogg file.
type Recorder struct {
	Path string

	mu     sync.Mutex
	w      *oggwriter.OggWriter
	closed bool
}

func NewRecorder(path string) (*Recorder, error) {
	w, err := oggwriter.New(path, opusRate, opusChannels)
	if err != nil {
		return nil, fmt.Errorf("open recording %s: %w", path, err)
	}
	return &Recorder{Path: path, w: w}, nil
}

func (r *Recorder) WriteRTP(pkt *rtp.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	return r.w.WriteRTP(pkt)
}

// Close flushes the file. Safe to call twice.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.w.Close()
}

// RecordPath names the n-th recording of a session: base itself for the
// first, then call-2.ogg, call-3.ogg and so on.
func RecordPath(base string, n int) string {
	if n <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
}
