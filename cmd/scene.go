package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/scene"
	"github.com/achilleasa/wavefront/scene/reader"
	"github.com/achilleasa/wavefront/tracer"
	"github.com/achilleasa/wavefront/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Flags shared by all commands that load a scene.
var SceneFlags = []cli.Flag{
	cli.Float64Flag{
		Name:  "scale",
		Value: 1.0,
		Usage: "uniform scale applied to each instanced mesh",
	},
	cli.BoolTFlag{
		Name:  "y-up",
		Usage: "rotate meshes authored with a Y-up convention so that Z points up",
	},
	cli.IntFlag{
		Name:  "compute-units",
		Value: 0,
		Usage: "number of concurrently running workgroups (0 = one per cpu)",
	},
}

// Parse each obj file argument, instance every mesh once and build the scene.
// The i-th mesh is assigned material index i.
func loadScene(ctx *cli.Context, dev *device.Device) (*scene.Scene, []*scene.MeshData, error) {
	if ctx.NArg() == 0 {
		return nil, nil, errors.New("missing scene file argument")
	}

	scale := float32(ctx.Float64("scale"))
	var rotation types.Vec3
	if ctx.BoolT("y-up") {
		rotation = types.XYZ(math.Pi/2, 0, 0)
	}

	sc := scene.New(dev)
	meshes := make([]*scene.MeshData, 0, ctx.NArg())
	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(meshFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", meshFile)
			continue
		}

		logger.Infof("parsing mesh: %s", meshFile)
		data, err := reader.ReadMesh(context.Background(), meshFile)
		if err != nil {
			sc.Close()
			return nil, nil, err
		}
		id := sc.RegisterMesh(data)
		sc.InstanceMeshWithMaterial(id, types.Vec3{}, rotation, types.Splat3(scale), uint32(idx))
		meshes = append(meshes, data)
	}

	if err := sc.Build(); err != nil {
		sc.Close()
		return nil, nil, err
	}
	return sc, meshes, nil
}

// Parse a vector formatted as "x,y,z".
func parseVec3Flag(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf("invalid vector %q: expected x,y,z", value)
	}
	var v types.Vec3
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(tok), 32)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("invalid vector %q: %w", value, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// Frame the scene bounds when no explicit camera position is given.
func setupCamera(ctx *cli.Context, bounds types.AABB) (tracer.Camera, error) {
	camera := tracer.Camera{FOV: float32(ctx.Float64("fov"))}

	if bounds.IsEmpty() {
		camera.Position = types.XYZ(0, -1, 0)
	} else {
		center := bounds.Centroid()
		extent := bounds.Extent()
		radius := float32(math.Max(float64(extent[0]), math.Max(float64(extent[1]), float64(extent[2]))))
		camera.LookAt = center
		camera.Position = center.Add(types.XYZ(0, -2*radius, 0.5*radius))
	}

	var err error
	if v := ctx.String("eye"); v != "" {
		if camera.Position, err = parseVec3Flag(v); err != nil {
			return camera, err
		}
	}
	if v := ctx.String("look-at"); v != "" {
		if camera.LookAt, err = parseVec3Flag(v); err != nil {
			return camera, err
		}
	}
	return camera, nil
}

// Build the scene and display information about its acceleration structures.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	dev := device.NewDevice("cpu", ctx.Int("compute-units"))
	defer dev.Close()

	sc, meshes, err := loadScene(ctx, dev)
	if err != nil {
		return err
	}
	defer sc.Close()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Mesh", "Triangles", "Bounds min", "Bounds max"})
	totalTriangles := 0
	for _, m := range meshes {
		totalTriangles += len(m.Triangles)
		table.Append([]string{
			m.Name,
			fmt.Sprintf("%d", len(m.Triangles)),
			fmt.Sprintf("%v", m.Bounds.Min),
			fmt.Sprintf("%v", m.Bounds.Max),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", totalTriangles), "", ""})
	table.Render()
	logger.Noticef("meshes\n%s", buf.String())

	buf.Reset()
	table = tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Object", "Mesh", "Material", "BVH offset", "World bounds"})
	for idx, obj := range sc.Objects() {
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			fmt.Sprintf("%d", obj.Mesh),
			fmt.Sprintf("%d", obj.Material),
			fmt.Sprintf("%d", obj.BVHOffset),
			fmt.Sprintf("%v - %v", obj.Bounds.Min, obj.Bounds.Max),
		})
	}
	table.Render()
	logger.Noticef("objects\n%s", buf.String())

	encoded := sc.Buffers().Encode()
	stats := sc.BuildStats()
	buf.Reset()
	table = tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Binding", "Buffer", "Size"})
	for idx, name := range []string{"tlas nodes", "objects", "mesh nodes", "triangles"} {
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			name,
			fmtBytes(len(encoded.Bindings()[idx])),
		})
	}
	table.SetFooter([]string{"", "TOTAL", fmtBytes(sc.Buffers().Size())})
	table.Render()
	logger.Noticef(
		"scene buffers (%d meshes built in %s, packed in %s, TLAS built in %s)\n%s",
		stats.MeshesBuilt, stats.MeshTime, stats.PackTime, stats.TLASTime, buf.String(),
	)

	return nil
}

func fmtBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d bytes", n)
}
