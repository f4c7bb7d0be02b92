package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rg"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

type Options struct {
	// Path the configuration was loaded from. Enables hot reloading when set.
	ConfigPath string
	// Directory relative asset names resolve against. Defaults to the
	// directory of ConfigPath, or the working directory.
	AssetRoot string
	// Receives the stats table on shutdown. Defaults to stdout.
	StatsOutput io.Writer
}

type Engine struct {
	currentStage Stage
	cfg          *config.Config
	opts         Options
	gameInstance *Game

	isRunning   bool
	isSuspended bool
	platform    *platform.Platform
	device      renderer.Device
	client      *renderer.RenderClient
	constants   *renderer.DynamicConstants

	assetManager *assets.AssetManager
	camera       *components.Camera
	controller   *components.CameraController

	width    uint32
	height   uint32
	clock    *core.Clock
	lastTime float64
	stats    *runStats

	reloads       chan *config.Config
	metricsServer *http.Server
	cancelWatch   context.CancelFunc
}

func New(cfg *config.Config, g *Game, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		g = &Game{}
	}
	if opts.StatsOutput == nil {
		opts.StatsOutput = os.Stdout
	}
	if opts.AssetRoot == "" {
		opts.AssetRoot = "."
		if opts.ConfigPath != "" {
			opts.AssetRoot = filepath.Dir(opts.ConfigPath)
		}
	}

	am, err := assets.NewAssetManager(opts.AssetRoot)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	scene := cfg.Scene
	return &Engine{
		currentStage: EngineStageUninitialized,
		cfg:          cfg,
		opts:         opts,
		gameInstance: g,
		clock:        core.NewClock(),
		assetManager: am,
		camera:       components.NewCamera(scene.CameraPosition, scene.CameraTarget, scene.FovY),
		controller:   components.NewCameraController(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
		stats:        newRunStats(),
		reloads:      make(chan *config.Config, 1),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if err := core.SetLogLevel(e.cfg.Log.Level); err != nil {
		return err
	}
	// initialize input
	if err := core.InputInitialize(); err != nil {
		return err
	}
	// initialize events
	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	device, err := e.createDevice()
	if err != nil {
		return err
	}
	e.device = device

	client, err := renderer.NewRenderClient(device, e.cfg.ClientConfig())
	if err != nil {
		return err
	}
	client.RenderMode = e.cfg.RenderMode()
	e.client = client

	if e.constants, err = renderer.NewDynamicConstants(device); err != nil {
		return err
	}

	if err := e.loadScene(); err != nil {
		return err
	}

	if e.cfg.Metrics.Enabled {
		e.startMetricsServer()
	}
	if e.opts.ConfigPath != "" {
		e.watchConfig()
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) createDevice() (renderer.Device, error) {
	switch e.cfg.Backend() {
	case renderer.Vulkan:
		win := e.cfg.Window
		p := platform.New()
		if err := p.Startup(win.Title, win.PosX, win.PosY, win.Width, win.Height); err != nil {
			return nil, err
		}
		e.platform = p
		e.width, e.height = p.FramebufferSize()

		loader, err := p.VulkanLoader()
		if err != nil {
			return nil, err
		}
		return vulkan.New(vulkan.Options{
			AppName:             win.Title,
			Debug:               e.cfg.Renderer.Debug,
			InstanceExtensions:  p.RequiredInstanceExtensions(),
			GetInstanceProcAddr: loader,
			Requirements:        vulkan.DefaultRequirements(),
		})
	default:
		return headless.New(), nil
	}
}

func (e *Engine) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", core.MetricsHandler())
	e.metricsServer = &http.Server{
		Addr:              e.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		core.LogInfo("serving metrics on http://%s/metrics", e.cfg.Metrics.Address)
		if err := e.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.LogError("metrics server: %s", err)
		}
	}()
}

// watchConfig hands every valid configuration written to disk to the frame
// loop. Only the newest pending configuration is kept.
func (e *Engine) watchConfig() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelWatch = cancel
	go func() {
		err := config.Watch(ctx, e.opts.ConfigPath, func(cfg *config.Config) {
			select {
			case <-e.reloads:
			default:
			}
			e.reloads <- cfg
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			core.LogError("watching %s: %s", e.opts.ConfigPath, err)
		}
	}()
}

// Run drives frames until the window closes, the configured frame count is
// reached, ctx is cancelled or a frame fails.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine run in stage %d: %w", e.currentStage, core.ErrPrecondition)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	maxFrames := uint64(e.cfg.Renderer.Frames)
	for e.isRunning {
		if ctx.Err() != nil {
			core.LogInfo("run cancelled, shutting down.")
			break
		}
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning = false
			break
		}

		select {
		case cfg := <-e.reloads:
			e.ApplyConfig(cfg)
		default:
		}

		if e.isSuspended {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, delta); err != nil {
				return fmt.Errorf("game update failed: %w", err)
			}
		}

		if err := e.frame(delta); err != nil {
			return err
		}

		elapsed := time.Since(frameStart)
		e.stats.recordFrame(elapsed)
		core.MetricsUpdate(elapsed.Seconds())

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		_ = core.InputUpdate(delta)

		e.lastTime = currentTime
		if maxFrames > 0 && e.stats.frames >= maxFrames {
			e.isRunning = false
		}
	}
	return nil
}

// frame records, retires and accounts for one render graph.
func (e *Engine) frame(delta float64) error {
	keys, mouse := core.InputSnapshot()
	e.controller.Update(e.camera, keys, delta)

	// Accumulated samples are only valid for a still camera.
	if e.camera.TakeMoved() && e.client.RenderMode == renderer.RenderModeReference {
		e.resetAccumulation()
	}

	fs := &metadata.FrameState{
		Window:         metadata.WindowConfig{Width: e.width, Height: e.height},
		CameraMatrices: e.camera.Matrices(float32(e.width) / float32(e.height)),
		Input:          metadata.InputState{Keys: keys, Mouse: mouse},
	}

	g := rg.New()
	output, err := e.client.PrepareRenderGraph(g, fs)
	if err != nil {
		return fmt.Errorf("preparing frame %d: %w", e.client.FrameIndex(), err)
	}
	if _, err := e.client.PrepareFrameConstants(e.constants, fs); err != nil {
		return fmt.Errorf("pushing frame constants: %w", err)
	}

	retired, err := g.Retire()
	if err != nil {
		return err
	}
	if _, _, err := retired.GetImage(output); err != nil {
		return fmt.Errorf("frame output: %w", err)
	}
	if err := e.client.RetireRenderGraph(retired); err != nil {
		return err
	}
	e.constants.AdvanceFrame()

	core.MetricsRecordRenderer(e.client.ArenaBytesWritten(), e.client.MeshCount(), int(e.client.BindlessImageCount()), e.client.FrameIndex())
	return nil
}

func (e *Engine) resetAccumulation() {
	e.client.ResetFrameIndex()
	e.client.RequestAccumulationReset()
	e.stats.resets++
}

// SetRenderMode switches the frame path. Entering reference mode starts a
// fresh accumulation. The frame index carries over.
func (e *Engine) SetRenderMode(mode renderer.RenderMode) {
	if e.client.RenderMode == mode {
		return
	}
	core.LogInfo("render mode %s -> %s", e.client.RenderMode, mode)
	e.client.RenderMode = mode
	if mode == renderer.RenderModeReference {
		e.client.RequestAccumulationReset()
	}
	e.stats.modeSwitch++
}

// ApplyConfig applies the settings of a reloaded configuration which can
// change at runtime. Capacities and the backend need a restart.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	if cfg.Renderer.Backend != e.cfg.Renderer.Backend || cfg.ClientConfig() != e.cfg.ClientConfig() {
		core.LogWarn("renderer backend and capacity changes apply on restart")
	}
	if cfg.Log.Level != e.cfg.Log.Level {
		if err := core.SetLogLevel(cfg.Log.Level); err != nil {
			core.LogError("%s", err)
		}
	}
	e.SetRenderMode(cfg.RenderMode())
	e.cfg.Renderer.Mode = cfg.Renderer.Mode
	e.cfg.Log.Level = cfg.Log.Level

	ctx := core.EventContext{}
	ctx.Data.C = e.opts.ConfigPath
	core.EventFire(core.EVENT_CODE_CONFIG_RELOADED, e, ctx)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.client != nil {
		errs = append(errs, e.WriteStats(e.opts.StatsOutput))
	}
	if e.cancelWatch != nil {
		e.cancelWatch()
	}
	if e.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, e.metricsServer.Shutdown(ctx))
		cancel()
	}

	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	core.EventUnregister(core.EVENT_CODE_KEY_PRESSED, e)
	core.EventUnregister(core.EVENT_CODE_RESIZED, e)
	errs = append(errs, core.EventShutdown(), core.InputShutdown())

	if e.device != nil {
		errs = append(errs, e.device.Destroy())
	}
	if e.platform != nil {
		errs = append(errs, e.platform.Shutdown())
	}

	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

// Quit stops the frame loop after the current frame.
func (e *Engine) Quit() {
	e.isRunning = false
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

func (e *Engine) Client() *renderer.RenderClient {
	return e.client
}

func (e *Engine) Frames() uint64 {
	return e.stats.frames
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch core.KeyCode(context.Data.U16[0]) {
	case core.KEY_ESCAPE:
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		// Block anything else from processing this.
		return true
	case core.KEY_F1:
		e.SetRenderMode(renderer.RenderModeStandard)
		return true
	case core.KEY_F2:
		e.SetRenderMode(renderer.RenderModeReference)
		return true
	case core.KEY_R:
		if e.client.RenderMode == renderer.RenderModeReference {
			core.LogInfo("restarting accumulation")
			e.resetAccumulation()
		}
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	e.width = width
	e.height = height
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("%s", err)
		}
	}
	return true
}
