package tracer

import (
	"math"

	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/scene"
	"github.com/achilleasa/wavefront/types"
)

// Resources bound to every tracer kernel.
type stepContext struct {
	opts   *Options
	scene  *scene.TraceKernels
	state  *PathState
	image  *device.Buffer[uint32]
	params *device.Buffer[byte]

	cameraQueue   *device.Queue
	materialQueue *device.Queue
	rayTraceQueue *device.Queue
}

func (ctx *stepContext) uniforms() (Uniforms, error) {
	return DecodeUniforms(ctx.params.Data())
}

// Atomically add an RGBA contribution to a pixel of the accumulation image.
func (ctx *stepContext) accumulate(pixel uint32, contribution types.Vec4) {
	image := ctx.image.Data()
	for c, v := range contribution {
		if v != 0 {
			device.AtomicAddFloat32(&image[int(pixel)*4+c], v)
		}
	}
}

// Advance every path. Fresh paths are seeded and sent to the camera queue.
// Misses collect the background radiance weighted by the path throughput and
// are restarted. Hits are attenuated by the material sample, then subject to
// russian roulette and the bounce cap before being sent to the material queue.
//
// Args: ctx *stepContext
func runLogic(group *device.WorkGroup, args []any) error {
	ctx, err := device.Arg[*stepContext](args, 0)
	if err != nil {
		return err
	}
	uni, err := ctx.uniforms()
	if err != nil {
		return err
	}

	var (
		opts          = ctx.opts
		st            = ctx.state
		pixel         = st.Pixel.Data()
		bounces       = st.Bounces.Data()
		seed          = st.Seed.Data()
		throughput    = st.Throughput.Data()
		sample        = st.Sample.Data()
		hitObject     = st.HitObject.Data()
		cameraStage   = device.NewLocalStage(group.Size)
		materialStage = device.NewLocalStage(group.Size)
	)

	err = group.ForEach(func(path, _ int) error {
		if uni.FirstSample {
			seed[path] = initialSeed(uint32(path), opts.SeedOffset)
			throughput[path] = types.Splat3(1)
			pixel[path] = uint32(path)
			bounces[path] = 0
			return cameraStage.Push(uint32(path))
		}

		tp := throughput[path]
		numBounces := bounces[path] + 1
		var contribution types.Vec4

		if hitObject[path] >= 0 {
			tp = tp.MulVec(sample[path].Vec3())
			if numBounces > opts.RRMinBounces {
				r := rand2(seed[path])
				seed[path]++
				q := min(max(opts.RRMinProbability, 1-tp[1]), opts.RRMaxProbability)
				if r[0] < q {
					tp = types.Vec3{}
				} else {
					tp = tp.Mul(1 / (1 - q))
				}
			}
			if numBounces > opts.MaxBounces {
				tp = types.Vec3{}
			}
		} else {
			contribution = tp.Mul(opts.MissRadiance).Vec4(0)
			tp = types.Vec3{}
		}

		throughput[path] = tp
		bounces[path] = numBounces

		stage := materialStage
		if tp.IsZero() {
			contribution[3] = 1
			stage = cameraStage
		}
		if contribution != (types.Vec4{}) {
			ctx.accumulate(pixel[path], contribution)
		}
		return stage.Push(uint32(path))
	})
	if err != nil {
		return err
	}

	if err = cameraStage.FlushTo(ctx.cameraQueue); err != nil {
		return err
	}
	return materialStage.FlushTo(ctx.materialQueue)
}

// Start a new sample for each queued path by generating a jittered primary
// ray through its pixel.
//
// Args: ctx *stepContext
func runCamera(group *device.WorkGroup, args []any) error {
	ctx, err := device.Arg[*stepContext](args, 0)
	if err != nil {
		return err
	}
	uni, err := ctx.uniforms()
	if err != nil {
		return err
	}

	var (
		st          = ctx.state
		queue       = ctx.cameraQueue.Items()
		pixel       = st.Pixel.Data()
		seed        = st.Seed.Data()
		rayTraceStg = device.NewLocalStage(group.Size)
	)

	err = group.ForEach(func(queueIndex, _ int) error {
		path := queue[queueIndex]
		p := int32(pixel[path])
		coord := types.XY(float32(p%uni.Width), float32(p/uni.Width))
		jitter := rand2(seed[path])
		seed[path] += 2

		ray := uni.cameraRay(types.XY(coord[0]+jitter[0], coord[1]+jitter[1]))
		st.Origin.Data()[path] = ray.Origin
		st.Dir.Data()[path] = ray.Dir
		st.Throughput.Data()[path] = types.Splat3(1)
		st.Sample.Data()[path] = types.XYZW(1, 1, 1, 1)
		st.Bounces.Data()[path] = 0
		st.HitObject.Data()[path] = scene.Miss
		st.HitTriangle.Data()[path] = scene.Miss
		st.Flags.Data()[path] = 0
		return rayTraceStg.Push(path)
	})
	if err != nil {
		return err
	}
	return rayTraceStg.FlushTo(ctx.rayTraceQueue)
}

// Scatter each queued path off the surface it hit using a cosine-weighted
// Lambertian sample.
//
// Args: ctx *stepContext
func runMaterial(group *device.WorkGroup, args []any) error {
	ctx, err := device.Arg[*stepContext](args, 0)
	if err != nil {
		return err
	}

	var (
		opts        = ctx.opts
		st          = ctx.state
		queue       = ctx.materialQueue.Items()
		origin      = st.Origin.Data()
		dir         = st.Dir.Data()
		seed        = st.Seed.Data()
		rayTraceStg = device.NewLocalStage(group.Size)
	)

	err = group.ForEach(func(queueIndex, _ int) error {
		path := queue[queueIndex]
		obj, tri := st.HitObject.Data()[path], st.HitTriangle.Data()[path]
		ray := types.Ray{Origin: origin[path], Dir: dir[path]}

		info, err := ctx.scene.TriangleHitInfo(ray, obj, tri)
		if err != nil {
			return err
		}
		material, err := ctx.scene.Material(obj)
		if err != nil {
			return err
		}

		// Surfaces are two-sided; shade with the normal facing the ray.
		n := info.Normal
		if n.Dot(ray.Dir) > 0 {
			n = n.Mul(-1)
		}
		hitPos := ray.At(info.Distance)
		o1 := ortho(n).Normalize()
		o2 := o1.Cross(n).Normalize()

		wi := cosineSampleHemisphere(rand2(seed[path]))
		seed[path] += 2

		albedo := float32(math.Pow(float64(opts.albedo(material)), 2.2))
		st.Sample.Data()[path] = types.XYZW(albedo, albedo, albedo, wi[2])
		st.Normal.Data()[path] = n
		st.Flags.Data()[path] |= FlagDiffuseBounce
		origin[path] = hitPos.Add(n.Mul(opts.NormalOffset))
		dir[path] = toWorld(o1, o2, n, wi)
		return rayTraceStg.Push(path)
	})
	if err != nil {
		return err
	}
	return rayTraceStg.FlushTo(ctx.rayTraceQueue)
}

// Find the nearest hit for each queued ray.
//
// Args: ctx *stepContext
func runRayTrace(group *device.WorkGroup, args []any) error {
	ctx, err := device.Arg[*stepContext](args, 0)
	if err != nil {
		return err
	}

	var (
		st    = ctx.state
		queue = ctx.rayTraceQueue.Items()
	)

	return group.ForEach(func(queueIndex, _ int) error {
		path := queue[queueIndex]
		ray := types.Ray{Origin: st.Origin.Data()[path], Dir: st.Dir.Data()[path]}
		hit, err := ctx.scene.NearestHit(ray, math.MaxFloat32)
		if err != nil {
			return err
		}
		st.HitObject.Data()[path] = hit.Object
		st.HitTriangle.Data()[path] = hit.Triangle
		return nil
	})
}
