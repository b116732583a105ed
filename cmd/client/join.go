package main

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/duocall/internal/adapters/rtc"
	"github.com/dkeye/duocall/internal/adapters/wsclient"
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/media"
	"github.com/dkeye/duocall/internal/session"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join a room and stay in the call until interrupted",
	Example: `  duocall join standup
  duocall join standup --server ws://relay.local:5174/api/ws/signal --manual
  duocall join standup --record standup.ogg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJoin(cmd.Context(), args[0])
	},
}

func init() {
	joinCmd.Flags().BoolVar(&flagManual, "manual", false, "do not call automatically; press enter to call")
	joinCmd.Flags().StringVar(&flagRecord, "record", "", "write received Opus audio to this .ogg file")
}

func runJoin(ctx context.Context, raw string) error {
	room, err := domain.NewRoomID(raw)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	roles, err := session.ParseRolePolicy(cfg.RolePolicy)
	if err != nil {
		return err
	}
	if flagManual {
		roles = session.Manual
	}

	opts := rtc.Options{
		ICEServers:      cfg.ICEServers,
		IncludeLoopback: cfg.IncludeLoopback,
		DisableMDNS:     cfg.DisableMDNS,
	}
	api, err := rtc.NewAPI(opts)
	if err != nil {
		return err
	}
	var source core.MediaSource = media.NoSource{}
	if cfg.Audio {
		source = media.AudioSource{}
	}

	logger := log.With().Str("module", "client").Str("room", string(room)).Logger()
	sinkCtx, stopSinks := context.WithCancel(ctx)
	defer stopSinks()
	var sinks conc.WaitGroup

	var (
		mu       sync.Mutex
		terminal error
	)
	rec := &recordings{base: flagRecord}
	s := session.New(session.Config{
		Room: room,
		Dial: func(ctx context.Context) (core.SignalChannel, error) {
			return wsclient.Dial(ctx, cfg.ServerURL)
		},
		NewEngine: func() (core.MediaEngine, error) {
			return rtc.NewConnection(api, opts, string(room))
		},
		Source: source,
		Roles:  roles,
		Hooks: session.Hooks{
			OnState: func(st session.State) {
				logger.Info().Str("state", st.String()).Msg("call")
			},
			OnPeer: func(pid domain.ParticipantID) {
				logger.Info().Str("peer", string(pid)).Msg("peer present")
			},
			OnError: func(err error) {
				if errors.Is(err, session.ErrRoomFull) || errors.Is(err, session.ErrEvicted) || errors.Is(err, session.ErrChannelLost) {
					mu.Lock()
					terminal = err
					mu.Unlock()
				}
			},
			OnTrack: func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
				sink := media.NewSink(track)
				tl := logger.With().Str("track", track.ID()).Str("codec", track.Codec().MimeType).Logger()
				recorder := rec.attach(sink, track, &tl)
				sinks.Go(func() {
					sink.Run(sinkCtx, &tl)
					if recorder != nil {
						if err := recorder.Close(); err != nil {
							tl.Warn().Err(err).Str("file", recorder.Path).Msg("close recording")
						}
					}
					packets, bytes := sink.Stats()
					tl.Info().Uint64("packets", packets).Uint64("bytes", bytes).Msg("remote track ended")
				})
			},
		},
	})

	if err := s.Start(ctx); err != nil {
		return err
	}
	if roles == session.Manual || rec.enabled() {
		sinks.Go(func() { prompt(ctx, s, roles == session.Manual, rec, &logger) })
	}

	select {
	case <-ctx.Done():
	case <-s.Done():
	}
	_ = s.Close()
	stopSinks()
	sinks.Wait()

	mu.Lock()
	defer mu.Unlock()
	return terminal
}
