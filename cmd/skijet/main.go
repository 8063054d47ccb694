// cmd/skijet/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/opd-ai/go-skijet/pkg/audio"
	"github.com/opd-ai/go-skijet/pkg/config"
	"github.com/opd-ai/go-skijet/pkg/engine"
	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/input"
	"github.com/opd-ai/go-skijet/pkg/logging"
	"github.com/opd-ai/go-skijet/pkg/render"
	"github.com/opd-ai/go-skijet/pkg/telemetry"
	"github.com/opd-ai/go-skijet/pkg/trace"
)

type options struct {
	configPath    string
	createDefault bool
	preset        string
	course        string
	spawnX        float64
	ticks         int
	scriptPath    string
	hud           bool
	logPath       string
	record        bool
	replay        uint
	audio         bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "skijet.json", "Path to configuration file")
	flag.BoolVar(&o.createDefault, "default", false, "Write the preset configuration to -config and exit")
	flag.StringVar(&o.preset, "preset", "extended", "Base tuning: extended or basic")
	flag.StringVar(&o.course, "course", "slope", "Course: slope, flat or jetpack")
	flag.Float64Var(&o.spawnX, "spawn", 5, "Horizontal spawn position in metres")
	flag.IntVar(&o.ticks, "ticks", 900, "Number of ticks to simulate")
	flag.StringVar(&o.scriptPath, "script", "", "JSON input script (list of {ticks, raw} segments)")
	flag.BoolVar(&o.hud, "hud", false, "Draw the fuel gauge in the terminal and run in real time")
	flag.StringVar(&o.logPath, "log", "skijet.log", "Log file used while -hud owns the terminal")
	flag.BoolVar(&o.record, "trace", false, "Record the run to the trace store")
	flag.UintVar(&o.replay, "replay", 0, "Replay a recorded run ID and check determinism")
	flag.BoolVar(&o.audio, "audio", false, "Play event cues on the speaker")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error(ctx, "skijet failed", err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger logs to stdout, or to a file while the HUD owns the terminal.
func newLogger(opts options) (*logging.Logger, func(), error) {
	if !opts.hud {
		return logging.NewLogger(), func() {}, nil
	}
	f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	level := logging.ParseLevel(os.Getenv(logging.LevelEnv))
	return logging.NewLoggerWithWriter(f, level), func() { _ = f.Close() }, nil
}

func run(ctx context.Context, opts options, logger *logging.Logger) error {
	if opts.createDefault {
		return writeDefault(ctx, opts, logger)
	}

	cfg, err := loadConfig(ctx, opts, logger)
	if err != nil {
		return err
	}

	if opts.replay > 0 {
		return replay(ctx, cfg, opts.replay, logger)
	}
	return simulate(ctx, cfg, opts, logger)
}

func writeDefault(ctx context.Context, opts options, logger *logging.Logger) error {
	cfg, err := config.Preset(opts.preset)
	if err != nil {
		return err
	}
	if err := config.Save(cfg, opts.configPath); err != nil {
		return logging.WrapError(err, "failed to create default configuration")
	}
	logger.Info(ctx, "Created default configuration file",
		"config_path", opts.configPath,
		"preset", opts.preset,
	)
	return nil
}

func loadConfig(ctx context.Context, opts options, logger *logging.Logger) (*config.Config, error) {
	base, err := config.Preset(opts.preset)
	if err != nil {
		return nil, err
	}

	path := opts.configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Configuration file not found, using preset",
			"config_path", path,
			"preset", opts.preset,
		)
		path = ""
	}

	cfg, err := config.LoadFrom(path, base)
	if err != nil {
		return nil, logging.WrapError(err, "failed to load configuration")
	}
	return cfg, nil
}

func loadScript(path string) (*input.Script, error) {
	if path == "" {
		return defaultScript(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var segments []input.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	return input.NewScript(segments...), nil
}

// defaultScript pushes forward, jumps, flies a while, then coasts.
func defaultScript() *input.Script {
	forward := mgl64.Vec2{0, 1}
	return input.NewScript(
		input.Segment{Ticks: 120, Raw: input.Raw{Move: forward}},
		input.Segment{Ticks: 1, Raw: input.Raw{Move: forward, Jump: true}},
		input.Segment{Ticks: 90, Raw: input.Raw{Move: forward, Thruster: true}},
		input.Segment{Ticks: 240, Raw: input.Raw{}},
		input.Segment{Ticks: 1, Raw: input.Raw{Move: forward, Jump: true}},
		input.Segment{Ticks: 120, Raw: input.Raw{Move: mgl64.Vec2{0.5, 1}, Thruster: true}},
	)
}

func simulate(ctx context.Context, cfg *config.Config, opts options, logger *logging.Logger) error {
	terrain, ok := entity.Course(opts.course)
	if !ok {
		return fmt.Errorf("unknown course %q", opts.course)
	}
	script, err := loadScript(opts.scriptPath)
	if err != nil {
		return err
	}

	sim := engine.NewSimulation(cfg, engine.Options{Logger: logger})
	body := entity.NewTerrainBody(terrain, opts.spawnX, cfg.Character.JumpSpeed, cfg.Character.GravityMultiplier)
	character := sim.SpawnCharacter(body, script)

	reader, shutdown, err := setupTelemetry(ctx, cfg, sim, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	if opts.record || cfg.Trace.Enabled {
		closeTrace, err := setupTrace(ctx, cfg, opts, sim, character, logger)
		if err != nil {
			return err
		}
		defer closeTrace()
	}

	if opts.audio {
		defer setupAudio(ctx, sim, logger)()
	}

	if opts.hud {
		err = runWithHUD(ctx, sim, character, opts.ticks)
	} else {
		err = sim.Run(ctx, opts.ticks)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	last := character.Last()
	logger.Info(ctx, "Run summary",
		"course", opts.course,
		"ticks", sim.CurrentTick,
		"sim_time", sim.Now(),
		"position_x", last.Position.X(),
		"position_y", last.Position.Y(),
		"speed", last.Speed,
		"fuel", last.Fuel,
		"grounded", last.Grounded,
		"skiing", last.Skiing,
	)
	if reader != nil {
		logMetrics(context.WithoutCancel(ctx), reader, logger)
	}
	return nil
}

// setupTelemetry installs a meter provider backed by a manual reader so the
// run summary can report the recorded instruments.
func setupTelemetry(ctx context.Context, cfg *config.Config, sim *engine.Simulation, logger *logging.Logger) (*sdkmetric.ManualReader, func(), error) {
	if !cfg.Telemetry.Enabled {
		return nil, func() {}, nil
	}
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	recorder, err := telemetry.NewRecorder(nil)
	if err != nil {
		return nil, nil, logging.WrapError(err, "failed to create telemetry recorder")
	}
	recorder.Subscribe(sim.EventBus)
	sim.AddObserver(engine.NewTelemetrySystem(recorder))

	return reader, func() {
		if err := recorder.Close(); err != nil {
			logger.Warn(ctx, "Telemetry recorder close failed", "error", err.Error())
		}
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "Meter provider shutdown failed", "error", err.Error())
		}
	}, nil
}

func logMetrics(ctx context.Context, reader *sdkmetric.ManualReader, logger *logging.Logger) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		logger.Warn(ctx, "Metric collection failed", "error", err.Error())
		return
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				logger.Info(ctx, "Metric", "name", m.Name, "total", total)
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				mean := 0.0
				if count > 0 {
					mean = sum / float64(count)
				}
				logger.Info(ctx, "Metric", "name", m.Name, "count", count, "mean", mean)
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					logger.Info(ctx, "Metric", "name", m.Name, "value", dp.Value)
				}
			}
		}
	}
}

func setupTrace(ctx context.Context, cfg *config.Config, opts options, sim *engine.Simulation, c *entity.Character, logger *logging.Logger) (func(), error) {
	store, err := trace.Open(cfg.Trace)
	if err != nil {
		return nil, logging.WrapError(err, "failed to open trace store")
	}
	name := fmt.Sprintf("%s:%s", opts.course, logging.RunID(ctx))
	run, err := store.BeginRun(name, c.GetID(), cfg)
	if err != nil {
		_ = store.Close()
		return nil, logging.WrapError(err, "failed to begin trace run")
	}
	writer := trace.NewWriter(store, run, c.GetID(), logger)
	sim.AddObserver(engine.NewTraceSystem(writer))

	logger.Info(ctx, "Recording trace",
		"run_id", run.ID,
		"run_name", run.Name,
		"driver", cfg.Trace.Driver,
	)
	return func() {
		if err := writer.Close(); err != nil {
			logger.Error(ctx, "Failed to flush trace", err, "run_id", run.ID)
		}
		logger.Info(ctx, "Trace recorded", "run_id", run.ID, "samples", writer.Written())
		if err := store.Close(); err != nil {
			logger.Warn(ctx, "Trace store close failed", "error", err.Error())
		}
	}, nil
}

// setupAudio attaches speaker cues. Audio failures only log.
func setupAudio(ctx context.Context, sim *engine.Simulation, logger *logging.Logger) func() {
	player := audio.NewSpeakerPlayer()
	if err := player.Init(); err != nil {
		logger.Warn(ctx, "Audio disabled", "error", err.Error())
		return func() {}
	}
	detach := audio.Attach(sim.EventBus, player, audio.DefaultCues(), logger)
	return func() {
		detach()
		player.Close()
	}
}

// runWithHUD advances the simulation in real time and draws the fuel gauge
// until ticks have run, ctx ends or Escape/q is pressed.
func runWithHUD(ctx context.Context, sim *engine.Simulation, c *entity.Character, ticks int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if key, ok := ev.(*tcell.EventKey); ok {
				if key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC || key.Rune() == 'q' {
					cancel()
					return
				}
			}
		}
	}()

	sim.AddObserver(engine.NewObserverSystem("hud", render.DisplayObserver{
		Display: render.NewTerminalHUD(screen),
		Entity:  c.GetID(),
	}))

	ticker := time.NewTicker(time.Duration(sim.TimeStep * float64(time.Second)))
	defer ticker.Stop()
	last := time.Now()
	for sim.CurrentTick < uint64(ticks) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sim.Advance(now.Sub(last).Seconds())
			last = now
		}
	}
	return nil
}

func replay(ctx context.Context, cfg *config.Config, runID uint, logger *logging.Logger) error {
	store, err := trace.Open(cfg.Trace)
	if err != nil {
		return logging.WrapError(err, "failed to open trace store")
	}
	defer store.Close()

	report, err := trace.Replay(store, runID, nil)
	if err != nil {
		return logging.WrapError(err, "replay of run %d failed", runID)
	}
	if report.Deterministic() {
		logger.Info(ctx, "Replay matched", "run_id", runID, "ticks", report.Ticks)
		return nil
	}
	logger.Warn(ctx, "Replay diverged",
		"run_id", runID,
		"ticks", report.Ticks,
		"divergence", report.Divergence.String(),
	)
	return fmt.Errorf("run %d is not deterministic at tick %d", runID, report.Divergence.Tick)
}
