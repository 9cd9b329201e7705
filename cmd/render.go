package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/renderer"
	"github.com/achilleasa/wavefront/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	tracerOpts := tracer.DefaultOptions()
	tracerOpts.MaxBounces = uint32(ctx.Int("num-bounces"))
	tracerOpts.RRMinBounces = uint32(ctx.Int("rr-bounces"))
	if tracerOpts.RRMinBounces == 0 || tracerOpts.RRMinBounces >= tracerOpts.MaxBounces {
		logger.Notice("disabling RR for path elimination")
		tracerOpts.RRMinBounces = tracerOpts.MaxBounces + 1
	}

	opts := renderer.Options{
		FrameW:        uint32(ctx.Int("width")),
		FrameH:        uint32(ctx.Int("height")),
		StepsPerFrame: uint32(ctx.Int("steps")),
		Exposure:      float32(ctx.Float64("exposure")),
		Tracer:        tracerOpts,
	}

	dev := device.NewDevice("cpu", ctx.Int("compute-units"))
	defer dev.Close()

	logger.Notice("loading scene and building acceleration structures")
	sc, _, err := loadScene(ctx, dev)
	if err != nil {
		return err
	}
	defer sc.Close()

	camera, err := setupCamera(ctx, sc.Bounds())
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(dev, sc, camera, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Noticef("rendering frame (%d steps)", opts.StepsPerFrame)
	frame, err := r.Render()
	if err != nil {
		return err
	}

	imgFile := ctx.String("out")
	if err = renderer.SaveFrame(imgFile, frame); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s", imgFile)

	displayFrameStats(r.Stats())
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Kernel", "Invocations", "Time", "% of trace time"})
	for _, k := range stats.Kernels {
		table.Append([]string{
			k.Name,
			fmt.Sprintf("%d", k.Invocations),
			fmt.Sprintf("%s", k.Time),
			fmt.Sprintf("%02.1f %%", percent(k.Time, stats.TraceTime)),
		})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d steps", stats.Steps),
		fmt.Sprintf("%.1f spp", stats.SamplesPerPixel),
		"TOTAL",
		fmt.Sprintf("%s", stats.RenderTime),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}

func percent(d, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(d) / float64(total)
}
