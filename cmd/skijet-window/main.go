// cmd/skijet-window/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-skijet/pkg/audio"
	"github.com/opd-ai/go-skijet/pkg/config"
	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/event"
	"github.com/opd-ai/go-skijet/pkg/logging"
	engorender "github.com/opd-ai/go-skijet/pkg/render/engo"
)

func main() {
	configPath := flag.String("config", "skijet.json", "Path to configuration file")
	preset := flag.String("preset", "extended", "Base tuning: extended or basic")
	course := flag.String("course", "slope", "Course: slope, flat or jetpack")
	spawnX := flag.Float64("spawn", 5, "Horizontal spawn position in metres")
	fullscreen := flag.Bool("fullscreen", false, "Run in fullscreen mode")
	withAudio := flag.Bool("audio", true, "Play event cues on the speaker")
	flag.Parse()

	logger := logging.NewLogger()
	ctx := logging.WithRunID(context.Background(), logging.NewRunID())

	base, err := config.Preset(*preset)
	if err != nil {
		logger.Error(ctx, "Invalid preset", err, "preset", *preset)
		os.Exit(1)
	}
	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Configuration file not found, using preset", "config_path", path)
		path = ""
	}
	cfg, err := config.LoadFrom(path, base)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}

	terrain, ok := entity.Course(*course)
	if !ok {
		logger.Error(ctx, "Unknown course", nil, "course", *course)
		os.Exit(1)
	}

	bus := event.NewEventBus()
	if *withAudio {
		player := audio.NewSpeakerPlayer()
		if err := player.Init(); err != nil {
			logger.Warn(ctx, "Audio disabled", "error", err.Error())
		} else {
			defer player.Close()
			defer audio.Attach(bus, player, audio.DefaultCues(), logger)()
		}
	}

	opts := engo.RunOptions{
		Title:      "skijet",
		Width:      engorender.WindowWidth,
		Height:     engorender.WindowHeight,
		Fullscreen: *fullscreen,
		VSync:      true,
	}

	logger.Info(ctx, "Starting sandbox", "course", *course, "preset", *preset)
	engo.Run(opts, engorender.NewSandboxScene(cfg, terrain, *spawnX, bus, logger))
}
