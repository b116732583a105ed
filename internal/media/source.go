package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/duocall/internal/core"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog/log"
)

var ErrNoDevice = errors.New("no capture device")

const frameDuration = 20 * time.Millisecond

// opusSilence is a single 20 ms Opus frame carrying digital silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

// AudioSource captures nothing: it publishes an Opus track paced with
// silence frames. It stands in for a microphone on headless participants.
type AudioSource struct {
	StreamID string
}

func (s AudioSource) Acquire(ctx context.Context) (core.LocalMedia, error) {
	stream := s.StreamID
	if stream == "" {
		stream = "duocall"
	}
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", stream,
	)
	if err != nil {
		return nil, fmt.Errorf("new audio track: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	lm := &localMedia{tracks: []webrtc.TrackLocal{track}, cancel: cancel}
	lm.wg.Go(func() { pace(ctx, track) })
	log.Info().Str("module", "media").Str("stream", stream).Msg("audio source started")
	return lm, nil
}

func pace(ctx context.Context, track *webrtc.TrackLocalStaticSample) {
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Writes before the track is bound to a connection are dropped
			// by pion; that is fine for silence.
			if err := track.WriteSample(pionmedia.Sample{Data: opusSilence, Duration: frameDuration}); err != nil {
				log.Debug().Err(err).Str("module", "media").Msg("write sample")
			}
		}
	}
}

// NoSource models a participant whose devices are missing or denied.
type NoSource struct{}

func (NoSource) Acquire(context.Context) (core.LocalMedia, error) {
	return nil, ErrNoDevice
}

type localMedia struct {
	tracks []webrtc.TrackLocal
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func (m *localMedia) Tracks() []webrtc.TrackLocal { return m.tracks }

func (m *localMedia) Stop() {
	m.once.Do(func() {
		m.cancel()
		m.wg.Wait()
		log.Info().Str("module", "media").Msg("local media stopped")
	})
}
