package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"

	"github.com/dkeye/duocall/internal/session"
	"github.com/rs/zerolog"
)

// prompt reads commands from stdin: an empty line or "call" places a call
// (manual mode only), "pause" and "resume" control the recording.
func prompt(ctx context.Context, s *session.Session, manual bool, rec *recordings, logger *zerolog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-s.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch line {
			case "", "call":
				if !manual {
					continue
				}
				if err := s.MakeCall(ctx); err != nil {
					if errors.Is(err, session.ErrClosed) {
						return
					}
					logger.Warn().Err(err).Msg("call not placed")
					continue
				}
				logger.Info().Msg("offer sent")
			case "pause", "resume":
				n := rec.setPaused(line == "pause")
				logger.Info().Int("recordings", n).Msg(line)
			default:
				logger.Warn().Str("command", line).Msg("unknown command")
			}
		}
	}
}
