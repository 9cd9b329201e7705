package tracer

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/scene"
	"github.com/achilleasa/wavefront/types"
)

func init() {
	log.SetSink(io.Discard)
}

func createTestDevice() *device.Device {
	dev := device.NewDevice("test", 4)
	dev.WorkGroupSize = 16
	return dev
}

// A large triangle in the y = 0 plane whose centroid is the origin.
func floorMesh() *scene.MeshData {
	return &scene.MeshData{
		Name: "floor",
		Triangles: []types.Triangle{
			{V0: types.XYZ(-100, 0, -50), V1: types.XYZ(100, 0, -50), V2: types.XYZ(0, 0, 100)},
		},
		Bounds: types.EmptyAABB(),
	}
}

func cubeMesh() *scene.MeshData {
	v := [8]types.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	faces := [6][4]int{
		{0, 1, 2, 3}, {5, 4, 7, 6}, {4, 0, 3, 7},
		{1, 5, 6, 2}, {3, 2, 6, 7}, {4, 5, 1, 0},
	}
	data := &scene.MeshData{Name: "cube", Bounds: types.EmptyAABB()}
	for _, f := range faces {
		data.Triangles = append(data.Triangles,
			types.Triangle{V0: v[f[0]], V1: v[f[1]], V2: v[f[2]]},
			types.Triangle{V0: v[f[0]], V1: v[f[2]], V2: v[f[3]]},
		)
	}
	return data
}

func createTracer(t *testing.T, dev *device.Device, sc *scene.Scene, w, h int, camera Camera, opts Options) *PathTracer {
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}
	pt, err := New(dev, sc, w, h, camera, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		pt.Close()
		sc.Close()
	})
	return pt
}

func step(t *testing.T, pt *PathTracer, count int) {
	for i := 0; i < count; i++ {
		if err := pt.Step(); err != nil {
			t.Fatal(err)
		}
	}
}

func readPixel(t *testing.T, pt *PathTracer, pixel int) types.Vec4 {
	img, err := pt.ReadImage()
	if err != nil {
		t.Fatal(err)
	}
	return types.XYZW(img[pixel*4], img[pixel*4+1], img[pixel*4+2], img[pixel*4+3])
}

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestSingleTriangleScene(t *testing.T) {
	dev := createTestDevice()
	sc := scene.New(dev)
	sc.InstanceMesh(sc.RegisterMesh(floorMesh()), types.Vec3{}, types.Vec3{}, types.Splat3(1))
	camera := Camera{Position: types.XYZ(0, -5, 0), LookAt: types.XYZ(0, 0, 0), FOV: 45}
	pt := createTracer(t, dev, sc, 1, 1, camera, DefaultOptions())
	cameraQueue, materialQueue, rayTraceQueue := pt.Queues()
	st := pt.State()

	// The first step seeds the path and traces its primary ray
	step(t, pt, 1)
	if got := cameraQueue.Items(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected camera queue to contain path 0; got %v", got)
	}
	if got := rayTraceQueue.Items(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected ray trace queue to contain path 0; got %v", got)
	}
	if got := st.HitObject.Data()[0]; got != 0 {
		t.Fatalf("expected primary ray to hit object 0; got %d", got)
	}

	// The next step shades the hit
	step(t, pt, 1)
	if got := materialQueue.Items(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected material queue to contain path 0; got %v", got)
	}
	if got := cameraQueue.Len(); got != 0 {
		t.Fatalf("expected camera queue to be empty; got %d entries", got)
	}

	expAlbedo := float32(math.Pow(0.5, 2.2))
	sample := st.Sample.Data()[0]
	for c := 0; c < 3; c++ {
		if !approxEqual(sample[c], expAlbedo) {
			t.Fatalf("expected material sample to be %f; got %v", expAlbedo, sample)
		}
	}
	if got := st.Throughput.Data()[0]; got != types.Splat3(1) {
		t.Fatalf("expected throughput to be 1 after the first hit; got %v", got)
	}

	triNormal := floorMesh().Triangles[0].Normal().Normalize()
	normal := st.Normal.Data()[0]
	if !normal.Abs().ApproxEqual(triNormal.Abs()) {
		t.Fatalf("expected shading normal to match %v up to sign; got %v", triNormal, normal)
	}
	if got := st.Bounces.Data()[0]; got != 1 {
		t.Fatalf("expected 1 bounce; got %d", got)
	}
	if st.Flags.Data()[0]&FlagDiffuseBounce == 0 {
		t.Fatal("expected diffuse bounce flag to be set")
	}

	// The bounce ray leaves from the camera side of the floor
	origin, dir := st.Origin.Data()[0], st.Dir.Data()[0]
	if origin[1] >= 0 || origin[1] < -1e-3 {
		t.Fatalf("expected bounce origin slightly in front of the floor; got %v", origin)
	}
	if dir[1] > 0 {
		t.Fatalf("expected bounce direction to point away from the floor; got %v", dir)
	}
	if got := st.HitObject.Data()[0]; got != scene.Miss {
		t.Fatalf("expected bounce ray to escape; got hit object %d", got)
	}
	if got := readPixel(t, pt, 0); got != (types.Vec4{}) {
		t.Fatalf("expected no image contribution yet; got %v", got)
	}

	// The escaped ray collects the unattenuated background radiance since
	// the floor sample only applies when the bounce ray hits something
	step(t, pt, 1)
	expRadiance := float32(8)
	got := readPixel(t, pt, 0)
	if !approxEqual(got[0], expRadiance) || !approxEqual(got[1], expRadiance) || !approxEqual(got[2], expRadiance) || got[3] != 1 {
		t.Fatalf("expected pixel to be (%f, %f, %f, 1); got %v", expRadiance, expRadiance, expRadiance, got)
	}
	if got := cameraQueue.Items(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected path 0 to be restarted; got camera queue %v", got)
	}
}

func TestEmptyScene(t *testing.T) {
	dev := createTestDevice()
	sc := scene.New(dev)
	camera := Camera{Position: types.XYZ(0, -5, 0), LookAt: types.XYZ(0, 0, 0), FOV: 45}
	pt := createTracer(t, dev, sc, 4, 3, camera, DefaultOptions())
	cameraQueue, materialQueue, _ := pt.Queues()

	for s := 1; s <= 3; s++ {
		step(t, pt, 1)
		if got := cameraQueue.Len(); got != 12 {
			t.Fatalf("[step %d] expected all 12 paths in the camera queue; got %d", s, got)
		}
		if got := materialQueue.Len(); got != 0 {
			t.Fatalf("[step %d] expected empty material queue; got %d", s, got)
		}
	}

	img, err := pt.ReadImage()
	if err != nil {
		t.Fatal(err)
	}
	exp := types.XYZW(16, 16, 16, 2)
	for pixel := 0; pixel < 12; pixel++ {
		got := types.XYZW(img[pixel*4], img[pixel*4+1], img[pixel*4+2], img[pixel*4+3])
		if got != exp {
			t.Fatalf("[pixel %d] expected %v; got %v", pixel, exp, got)
		}
	}
}

func TestQueueConservation(t *testing.T) {
	dev := createTestDevice()
	sc := scene.New(dev)
	cube := sc.RegisterMesh(cubeMesh())
	floor := sc.RegisterMesh(floorMesh())
	sc.InstanceMesh(floor, types.XYZ(0, 0, -3), types.XYZ(math.Pi/2, 0, 0), types.Splat3(1))
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		pos := types.XYZ(rng.Float32()*10-5, rng.Float32()*10-5, rng.Float32()*4-2)
		sc.InstanceMeshWithMaterial(cube, pos, types.XYZ(rng.Float32(), rng.Float32(), rng.Float32()), types.Splat3(0.5+rng.Float32()), uint32(i%2))
	}

	camera := Camera{Position: types.XYZ(0, -20, 2), LookAt: types.XYZ(0, 0, 0), FOV: 40}
	pt := createTracer(t, dev, sc, 16, 12, camera, DefaultOptions())
	numPaths := 16 * 12

	for s := 0; s < 12; s++ {
		step(t, pt, 1)
		last := pt.Stats().Last
		if got := last.CameraQueue + last.MaterialQueue; got != numPaths {
			t.Fatalf("[step %d] expected camera + material queue sizes to add up to %d; got %d + %d", s, numPaths, last.CameraQueue, last.MaterialQueue)
		}
		if last.RayTraceQueue != numPaths {
			t.Fatalf("[step %d] expected %d traced rays; got %d", s, numPaths, last.RayTraceQueue)
		}
	}

	img, err := pt.ReadImage()
	if err != nil {
		t.Fatal(err)
	}
	var samples float64
	for pixel := 0; pixel < numPaths; pixel++ {
		samples += float64(img[pixel*4+3])
	}
	if exp := pt.Stats().CompletedSamples; samples != float64(exp) {
		t.Fatalf("expected accumulated sample count to be %d; got %f", exp, samples)
	}
}

func TestBounceCap(t *testing.T) {
	dev := createTestDevice()
	sc := scene.New(dev)
	// The camera sits inside a closed box so every ray hits something
	sc.InstanceMesh(sc.RegisterMesh(cubeMesh()), types.Vec3{}, types.Vec3{}, types.Splat3(10))

	opts := DefaultOptions()
	opts.MaxBounces = 1
	opts.RRMinBounces = 100
	camera := Camera{Position: types.XYZ(0, 0, 0), LookAt: types.XYZ(0, 1, 0), FOV: 45}
	pt := createTracer(t, dev, sc, 3, 3, camera, opts)

	step(t, pt, 2)
	if got := pt.Stats().Last.MaterialQueue; got != 9 {
		t.Fatalf("expected all paths to be shaded after their first hit; got %d", got)
	}

	step(t, pt, 1)
	if got := pt.Stats().Last.CameraQueue; got != 9 {
		t.Fatalf("expected all paths to be terminated by the bounce cap; got %d", got)
	}
	for pixel := 0; pixel < 9; pixel++ {
		if got := readPixel(t, pt, pixel); got != types.XYZW(0, 0, 0, 1) {
			t.Fatalf("[pixel %d] expected a black sample; got %v", pixel, got)
		}
	}
}

func TestReset(t *testing.T) {
	dev := createTestDevice()
	sc := scene.New(dev)
	camera := Camera{Position: types.XYZ(0, -5, 0), LookAt: types.XYZ(0, 0, 0), FOV: 45}
	pt := createTracer(t, dev, sc, 2, 2, camera, DefaultOptions())

	step(t, pt, 3)
	if got := readPixel(t, pt, 0); got[3] != 2 {
		t.Fatalf("expected 2 samples before reset; got %v", got)
	}

	pt.SetCamera(Camera{Position: types.XYZ(0, 5, 0), LookAt: types.XYZ(0, 0, 0), FOV: 45})
	if pt.Steps() != 0 {
		t.Fatalf("expected step counter to be reset; got %d", pt.Steps())
	}
	if got := readPixel(t, pt, 0); got != (types.Vec4{}) {
		t.Fatalf("expected image to be cleared; got %v", got)
	}

	// The first step after a reset only seeds paths
	step(t, pt, 1)
	if got := readPixel(t, pt, 0); got != (types.Vec4{}) {
		t.Fatalf("expected no contribution from the seeding step; got %v", got)
	}
}

func TestNewValidation(t *testing.T) {
	dev := createTestDevice()
	sc := scene.New(dev)
	camera := Camera{FOV: 45, LookAt: types.XYZ(0, 1, 0)}

	if _, err := New(dev, sc, 4, 4, camera, DefaultOptions()); !errors.Is(err, ErrSceneNotBuilt) {
		t.Fatalf("expected to get ErrSceneNotBuilt; got %v", err)
	}
	if err := sc.Build(); err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	if _, err := New(dev, sc, 0, 4, camera, DefaultOptions()); !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("expected to get ErrInvalidFrameSize; got %v", err)
	}

	opts := DefaultOptions()
	opts.Albedos = nil
	if _, err := New(dev, sc, 4, 4, camera, opts); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected to get ErrInvalidOptions; got %v", err)
	}
}
