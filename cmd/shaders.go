package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/scene"
	"github.com/urfave/cli"
)

// Generate the WGSL traversal functions for a scene and verify that they
// compile.
func GenerateShaders(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	dev := device.NewDevice("cpu", ctx.Int("compute-units"))
	defer dev.Close()

	sc, _, err := loadScene(ctx, dev)
	if err != nil {
		return err
	}
	defer sc.Close()

	kernels := sc.Kernels()
	if kernels == nil {
		return errors.New("scene has not been built")
	}

	group := uint32(ctx.Int("group"))
	hitInfo := ctx.Bool("hit-info")
	code := kernels.NearestHitCode(group)
	if hitInfo {
		code = kernels.HitInfoCode(group)
	}

	if !ctx.Bool("skip-compile") {
		spirv, err := scene.CompileTraversal(code, hitInfo)
		if err != nil {
			return fmt.Errorf("traversal code failed to compile: %w", err)
		}
		logger.Noticef("traversal code compiled to %d bytes of SPIR-V", len(spirv))
	}

	if out := ctx.String("out"); out != "" {
		if err = os.WriteFile(out, []byte(code), 0644); err != nil {
			return err
		}
		logger.Noticef("wrote traversal code to %s", out)
		return nil
	}

	fmt.Print(code)
	return nil
}
