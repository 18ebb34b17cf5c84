// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipscope/internal/audio"
	"clipscope/internal/engine"
	applog "clipscope/internal/log"
	"clipscope/internal/playback"
	"clipscope/internal/source"
	"clipscope/internal/transport"
	"clipscope/internal/transport/udp"
	"clipscope/internal/tui"

	"github.com/spf13/cobra"
)

type playOptions struct {
	audible bool
	monitor bool
	loop    bool
	start   float64
	rate    int
	ws      bool
	udp     bool
	logFile string
}

func newPlayCommand(a *app) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play FILE",
		Short: "Run the analysis loop over a clip and publish every tick",
		Long: "Play runs the host loop over FILE at the configured tick rate and publishes\n" +
			"updates to the enabled transports. With --audible the clip is played on the\n" +
			"output device and the analysis follows the device position.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &a.cfg.Playback
			flags := cmd.Flags()
			if flags.Changed("audible") {
				p.Audible = opts.audible
			}
			if flags.Changed("loop") {
				p.Loop = opts.loop
			}
			if flags.Changed("start") {
				p.StartTime = opts.start
			}
			if flags.Changed("tick-rate") {
				p.TickRate = opts.rate
			}
			if opts.ws {
				a.cfg.Transport.WebSocket.Enabled = true
			}
			if opts.udp {
				a.cfg.Transport.UDP.Enabled = true
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.play(ctx, args[0], opts.monitor, opts.logFile)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.audible, "audible", "a", false, "Play the clip on the output device")
	flags.BoolVarP(&opts.monitor, "tui", "t", false, "Show the terminal monitor")
	flags.BoolVarP(&opts.loop, "loop", "l", false, "Wrap to the start at the end of the clip")
	flags.Float64VarP(&opts.start, "start", "s", 0, "Initial playhead in seconds")
	flags.IntVar(&opts.rate, "tick-rate", 0, "Engine ticks per second (default from config)")
	flags.BoolVar(&opts.ws, "ws", false, "Enable the WebSocket transport")
	flags.BoolVar(&opts.udp, "udp", false, "Enable the UDP spectrum transport")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs here while the monitor is shown (dropped when empty)")
	return cmd
}

func (a *app) play(ctx context.Context, path string, monitor bool, logFile string) error {
	eng, clip, err := a.openEngine(ctx, path, a.cfg.Analysis)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := a.attachSinks(eng); err != nil {
		return err
	}
	if _, err := eng.ComputeWaveform(ctx); err != nil {
		return err
	}

	clock, release, err := a.openClock(clip)
	if err != nil {
		return err
	}
	defer release()
	clock.Seek(a.cfg.Playback.StartTime)
	eng.SetClock(clock)

	if monitor {
		return tui.Run(tui.NewMonitor(eng, clock, tui.ClipTitle(clip, path), a.cfg.Playback.TickRate), logFile)
	}
	return runLoop(ctx, eng, clock, a.cfg.Playback.TickRate)
}

// attachSinks registers the configured transports with eng. The engine
// closes them.
func (a *app) attachSinks(eng *engine.Engine) error {
	t := a.cfg.Transport
	if t.LogFrames {
		eng.AddSink(transport.NewLoggingTransport())
	}
	if t.WebSocket.Enabled {
		ws, err := transport.NewWebSocketTransport(t.WebSocket.Address, t.WebSocket.Path)
		if err != nil {
			return err
		}
		eng.AddSink(ws)
	}
	if t.UDP.Enabled {
		sink, err := udp.NewSink(t.UDP.TargetAddress, t.UDP.SendInterval)
		if err != nil {
			return err
		}
		eng.AddSink(sink)
	}
	return nil
}

// openClock returns the output device player when playback is audible,
// otherwise a host-driven timeline.
func (a *app) openClock(clip *source.Clip) (playback.Controller, func(), error) {
	p := a.cfg.Playback
	if !p.Audible {
		return playback.NewTimeline(source.Duration(clip), p.Loop), func() {}, nil
	}

	if err := audio.Initialize(); err != nil {
		return nil, nil, err
	}
	player, err := audio.Open(clip, p)
	if err != nil {
		audio.Terminate()
		return nil, nil, err
	}
	release := func() {
		log := applog.With("audio")
		if err := player.Close(); err != nil {
			log.Warnf("Closing player: %v", err)
		}
		if err := audio.Terminate(); err != nil {
			log.Warnf("%v", err)
		}
	}
	return player, release, nil
}

// runLoop ticks eng tickRate times per second until ctx is cancelled or a
// non-looping clock reaches the end.
func runLoop(ctx context.Context, eng *engine.Engine, clock playback.Controller, tickRate int) error {
	interval := time.Second / time.Duration(max(tickRate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now

			if adv, ok := clock.(tui.Advancer); ok {
				adv.Advance(delta)
			}
			if clock.Paused() {
				delta = 0
			}
			if _, err := eng.Tick(delta); err != nil {
				return err
			}
			if fin, ok := clock.(tui.Finisher); ok && fin.Done() {
				return nil
			}
		}
	}
}
