package engine

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spaghettifunk/lumen/engine/containers"
	"github.com/spaghettifunk/lumen/engine/math"
)

// Frames kept for the frame time statistics.
const frameHistory = 240

type deviceStats interface {
	Stats() map[string]int
}

type runStats struct {
	started    time.Time
	frames     uint64
	modeSwitch uint64
	resets     uint64
	frameTimes *containers.RingQueue[time.Duration]
}

func newRunStats() *runStats {
	return &runStats{
		started:    time.Now(),
		frameTimes: containers.NewRingQueue[time.Duration](frameHistory),
	}
}

func (s *runStats) recordFrame(d time.Duration) {
	s.frames++
	s.frameTimes.Push(d)
}

// frameTimeSummary returns the min, mean and max of the recent frame times.
func (s *runStats) frameTimeSummary() (time.Duration, time.Duration, time.Duration) {
	times := s.frameTimes.Items()
	if len(times) == 0 {
		return 0, 0, 0
	}
	minT, maxT := times[0], times[0]
	var total time.Duration
	for _, t := range times {
		minT = min(minT, t)
		maxT = max(maxT, t)
		total += t
	}
	return minT, total / time.Duration(len(times)), maxT
}

// WriteStats renders a table of the run so far.
func (e *Engine) WriteStats(w io.Writer) error {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Section", "Stat", "Value"})

	minT, meanT, maxT := e.stats.frameTimeSummary()
	table.Append([]string{"Run", "Backend", e.device.Name()})
	table.Append([]string{"", "Render mode", e.client.RenderMode.String()})
	table.Append([]string{"", "Frames", fmt.Sprintf("%d", e.stats.frames)})
	table.Append([]string{"", "Mode switches", fmt.Sprintf("%d", e.stats.modeSwitch)})
	table.Append([]string{"", "Accumulation resets", fmt.Sprintf("%d", e.stats.resets)})
	table.Append([]string{"", "Frame time min/mean/max", fmt.Sprintf("%s / %s / %s", minT, meanT, maxT)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Resources", "Meshes", fmt.Sprintf("%d", e.client.MeshCount())})
	table.Append([]string{"", "Bindless images", fmt.Sprintf("%d", e.client.BindlessImageCount())})
	table.Append([]string{"", "Geometry arena", math.FormatBytes(e.client.ArenaBytesWritten())})
	table.Append([]string{"", "Frame index", fmt.Sprintf("%d", e.client.FrameIndex())})

	if ds, ok := e.device.(deviceStats); ok {
		table.Append([]string{" ", " ", " "})
		counts := ds.Stats()
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		section := "Device"
		for _, name := range names {
			table.Append([]string{section, name, fmt.Sprintf("%d", counts[name])})
			section = ""
		}
	}
	table.SetFooter([]string{"Elapsed", " ", time.Since(e.stats.started).Round(time.Millisecond).String()})

	table.Render()
	_, err := w.Write(buf.Bytes())
	return err
}
