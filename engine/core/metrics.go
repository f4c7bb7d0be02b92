package core

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const AVG_COUNT uint8 = 30

type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64

	registry      *prometheus.Registry
	frameTime     prometheus.Histogram
	arenaBytes    prometheus.Gauge
	meshCount     prometheus.Gauge
	bindlessCount prometheus.Gauge
	frameIndex    prometheus.Gauge
	framesTotal   prometheus.Counter
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		reg := prometheus.NewRegistry()
		metricsState = &MetricsState{
			MStimes:  [AVG_COUNT]float64{0},
			registry: reg,
			frameTime: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "lumen",
				Name:      "frame_time_seconds",
				Help:      "CPU time spent preparing and retiring one frame.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			}),
			arenaBytes: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lumen",
				Name:      "geometry_arena_bytes",
				Help:      "Bytes written into the geometry arena.",
			}),
			meshCount: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lumen",
				Name:      "meshes",
				Help:      "Meshes registered in the mesh descriptor table.",
			}),
			bindlessCount: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lumen",
				Name:      "bindless_images",
				Help:      "Images registered in the bindless descriptor table.",
			}),
			frameIndex: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "lumen",
				Name:      "frame_index",
				Help:      "Current frame index fed to shaders.",
			}),
			framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "lumen",
				Name:      "frames_total",
				Help:      "Frames retired since start.",
			}),
		}
		reg.MustRegister(
			metricsState.frameTime,
			metricsState.arenaBytes,
			metricsState.meshCount,
			metricsState.bindlessCount,
			metricsState.frameIndex,
			metricsState.framesTotal,
		)
	})
	return nil
}

func MetricsUpdate(frame_elapsed_time float64) {
	if metricsState == nil {
		_ = MetricsInitialize()
	}
	metricsState.frameTime.Observe(frame_elapsed_time)
	metricsState.framesTotal.Inc()

	// Calculate frame ms average
	frame_ms := (frame_elapsed_time * 1000.0)
	metricsState.MStimes[metricsState.FrameAVGCounter] = frame_ms
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		metricsState.MSavg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			metricsState.MSavg += metricsState.MStimes[i]
		}

		metricsState.MSavg /= float64(AVG_COUNT)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	metricsState.AccumulatedFrameMS += frame_ms
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	// Count all Frames.
	metricsState.Frames++
}

// MetricsRecordRenderer publishes the renderer resource counters.
func MetricsRecordRenderer(arenaBytes uint64, meshes, bindlessImages int, frameIndex uint32) {
	if metricsState == nil {
		_ = MetricsInitialize()
	}
	metricsState.arenaBytes.Set(float64(arenaBytes))
	metricsState.meshCount.Set(float64(meshes))
	metricsState.bindlessCount.Set(float64(bindlessImages))
	metricsState.frameIndex.Set(float64(frameIndex))
}

// MetricsHandler exposes the renderer registry in the prometheus text format.
func MetricsHandler() http.Handler {
	if metricsState == nil {
		_ = MetricsInitialize()
	}
	return promhttp.HandlerFor(metricsState.registry, promhttp.HandlerOpts{})
}

func MetricsRegistry() *prometheus.Registry {
	if metricsState == nil {
		_ = MetricsInitialize()
	}
	return metricsState.registry
}

func MetricsFPS() float64 {
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	return metricsState.MSavg
}

func MetricsFrame() (float64, float64) {
	return metricsState.FPS, metricsState.MSavg
}
