package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/testbed"
	"github.com/urfave/cli"
)

// Render runs the frame loop until the window closes, the frame budget is
// spent or the process is interrupted.
func Render(ctx *cli.Context) error {
	cfg, path, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.IsSet("backend") {
		cfg.Renderer.Backend = ctx.String("backend")
	}
	if ctx.IsSet("mode") {
		cfg.Renderer.Mode = ctx.String("mode")
	}
	if ctx.IsSet("frames") {
		cfg.Renderer.Frames = uint32(ctx.Uint("frames"))
	}
	if ctx.IsSet("metrics") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = ctx.String("metrics")
	}
	if meshes := ctx.StringSlice("mesh"); len(meshes) > 0 {
		cfg.Scene.Meshes = meshes
	}

	tb := testbed.NewTestGame(float32(ctx.Float64("spin")))
	e, err := engine.New(cfg, tb.Game, engine.Options{
		ConfigPath:  path,
		AssetRoot:   ctx.String("assets"),
		StatsOutput: ctx.App.Writer,
	})
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}

	// cancel the frame loop on sigterm and other system calls
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	runErr := e.Run(runCtx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	return runErr
}
