package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/wavefront/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "wavefront"
	app.Usage = "render triangle mesh scenes using wavefront path tracing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available compute devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "scene-info",
			Usage: "build a scene and display information about its acceleration structures",
			Description: `
Parse one or more wavefront obj files, instance each mesh once and build the
per-mesh and top-level BVHs. Mesh, instance and packed buffer details are
then displayed.`,
			ArgsUsage: "mesh1.obj mesh2.obj ...",
			Flags:     cmd.SceneFlags,
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:        "render",
			Usage:       "render a single frame",
			Description: `Render a single frame and save it as a PNG, BMP or TIFF image.`,
			ArgsUsage:   "mesh1.obj mesh2.obj ...",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "steps",
					Value: 64,
					Usage: "number of wavefront steps to run",
				},
				cli.IntFlag{
					Name:  "num-bounces",
					Value: 20,
					Usage: "max number of bounces per path",
				},
				cli.IntFlag{
					Name:  "rr-bounces",
					Value: 3,
					Usage: "bounces after which russian roulette path elimination kicks in (0 = disabled)",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.Float64Flag{
					Name:  "fov",
					Value: 45.0,
					Usage: "camera field of view in degrees",
				},
				cli.StringFlag{
					Name:  "eye",
					Usage: "camera position as x,y,z (default: frame the scene bounds)",
				},
				cli.StringFlag{
					Name:  "look-at",
					Usage: "camera target as x,y,z (default: scene center)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame (.png, .bmp or .tif)",
				},
			}, cmd.SceneFlags...),
			Action: cmd.RenderFrame,
		},
		{
			Name:  "shaders",
			Usage: "generate WGSL traversal code for a scene",
			Description: `
Build a scene and emit the WGSL storage buffer declarations and BVH traversal
functions that operate on its packed buffers. The generated code is compiled
to SPIR-V to verify it before being printed.`,
			ArgsUsage: "mesh1.obj mesh2.obj ...",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "group",
					Value: 0,
					Usage: "bind group index for the scene buffers",
				},
				cli.BoolFlag{
					Name:  "hit-info",
					Usage: "also emit the triangle hit info functions",
				},
				cli.BoolFlag{
					Name:  "skip-compile",
					Usage: "do not compile the generated code",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "write the generated code to this file instead of stdout",
				},
			}, cmd.SceneFlags...),
			Action: cmd.GenerateShaders,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
