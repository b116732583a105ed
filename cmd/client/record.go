package main

import (
	"strings"
	"sync"

	"github.com/dkeye/duocall/internal/media"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// recordings tracks the Ogg recorders of one call, one file per remote
// Opus track.
type recordings struct {
	base string

	mu      sync.Mutex
	n       int
	targets []*media.Target
}

func (r *recordings) enabled() bool { return r.base != "" }

// attach starts recording track through sink. It returns nil when
// recording is off or the track is not Opus.
func (r *recordings) attach(sink *media.Sink, track *webrtc.TrackRemote, logger *zerolog.Logger) *media.Recorder {
	if !r.enabled() {
		return nil
	}
	if !strings.EqualFold(track.Codec().MimeType, webrtc.MimeTypeOpus) {
		logger.Info().Msg("not recording non-opus track")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	rec, err := media.NewRecorder(media.RecordPath(r.base, r.n))
	if err != nil {
		logger.Warn().Err(err).Msg("recording disabled for track")
		return nil
	}
	r.targets = append(r.targets, sink.Attach("record", rec))
	logger.Info().Str("file", rec.Path).Msg("recording")
	return rec
}

// setPaused pauses or resumes every live recording.
func (r *recordings) setPaused(paused bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.targets[:0]
	for _, t := range r.targets {
		if t.State() == media.TargetDetached {
			continue
		}
		if paused {
			t.Pause()
		} else {
			t.Resume()
		}
		live = append(live, t)
	}
	r.targets = live
	return len(live)
}
