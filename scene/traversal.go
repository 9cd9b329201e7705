package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/wavefront/bvh"
	"github.com/achilleasa/wavefront/types"
)

// Maximum number of deferred subtrees during a single traversal.
const MaxTraversalDepth = 32

// No hit.
const Miss int32 = -1

// A ray intersection. Object indexes the TLAS-ordered object list and
// Triangle indexes the packed triangle buffer.
type Hit struct {
	Object   int32
	Triangle int32
	Distance float32
}

func (h Hit) IsHit() bool {
	return h.Object != Miss
}

// A hit with its world-space surface normal (normalized).
type HitInfo struct {
	Hit
	Normal types.Vec3
}

// Ray queries against a built scene. The methods are invoked from within
// kernels and may be called concurrently.
type TraceKernels struct {
	tlas      []bvh.Node
	objects   []Object
	meshNodes []bvh.Node
	triangles []types.Triangle
}

func newTraceKernels(p *PackedBuffers) *TraceKernels {
	return &TraceKernels{
		tlas:      p.TLAS.Data(),
		objects:   p.Objects.Data(),
		meshNodes: p.MeshNodes.Data(),
		triangles: p.Triangles.Data(),
	}
}

// Get the material index of an object.
func (k *TraceKernels) Material(object int32) (uint32, error) {
	if object < 0 || int(object) >= len(k.objects) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidObjectReference, object)
	}
	return k.objects[object].Material, nil
}

// Find the nearest intersection with t in (0, tMax).
func (k *TraceKernels) NearestHit(ray types.Ray, tMax float32) (Hit, error) {
	tr := k.newTraversal(ray, tMax, false)
	if err := tr.run(); err != nil {
		return Hit{Object: Miss, Triangle: Miss}, err
	}
	return tr.hit, nil
}

// Check whether anything intersects the ray with t in (0, tMax).
func (k *TraceKernels) Occluded(ray types.Ray, tMax float32) (bool, error) {
	tr := k.newTraversal(ray, tMax, true)
	if err := tr.run(); err != nil {
		return false, err
	}
	return tr.hit.IsHit(), nil
}

// Find the nearest intersection and its surface normal.
func (k *TraceKernels) ClosestHitInfo(ray types.Ray, tMax float32) (HitInfo, error) {
	hit, err := k.NearestHit(ray, tMax)
	if err != nil || !hit.IsHit() {
		return HitInfo{Hit: hit}, err
	}
	return k.TriangleHitInfo(ray, hit.Object, hit.Triangle)
}

// Compute distance and normal for a known object/triangle pair. If the ray
// misses the triangle due to precision loss the distance to its plane is
// reported instead.
func (k *TraceKernels) TriangleHitInfo(ray types.Ray, object, triangle int32) (HitInfo, error) {
	if object < 0 || int(object) >= len(k.objects) {
		return HitInfo{}, fmt.Errorf("%w: %d", ErrInvalidObjectReference, object)
	}
	if triangle < 0 || int(triangle) >= len(k.triangles) {
		return HitInfo{}, fmt.Errorf("%w: %d", ErrInvalidTriangleReference, triangle)
	}

	obj := &k.objects[object]
	tri := k.triangles[triangle]
	local := ray.Transform(obj.WorldToLocal)
	normal := tri.Normal()

	dist, ok := types.IntersectTriangle(local, tri)
	if !ok {
		if denom := local.Dir.Dot(normal); denom != 0 {
			dist = tri.V0.Sub(local.Origin).Dot(normal) / denom
		}
	}

	return HitInfo{
		Hit: Hit{
			Object:   object,
			Triangle: triangle,
			Distance: dist,
		},
		Normal: obj.WorldToLocal.TransformNormal(normal).Normalize(),
	}, nil
}

type stackEntry struct {
	ref   bvh.NodeRef
	tNear float32
}

type traversal struct {
	k *TraceKernels

	worldRay  types.Ray
	ray       types.Ray
	invDir    types.Vec3
	best      float32
	anyHit    bool
	hit       Hit
	done      bool
	object    int32
	instanced bool

	// Stack height when the current object was entered.
	switchPoint int

	stack [MaxTraversalDepth]stackEntry
	sp    int
}

func (k *TraceKernels) newTraversal(ray types.Ray, tMax float32, anyHit bool) *traversal {
	if !(tMax > 0) {
		tMax = math.MaxFloat32
	}
	return &traversal{
		k:        k,
		worldRay: ray,
		ray:      ray,
		invDir:   ray.InvDir(),
		best:     tMax,
		anyHit:   anyHit,
		hit:      Hit{Object: Miss, Triangle: Miss},
		object:   Miss,
	}
}

func (tr *traversal) run() error {
	if len(tr.k.tlas) == 0 {
		return nil
	}

	current := bvh.Internal(0)
	for {
		if current.Kind == bvh.ObjectRef {
			root, err := tr.enterObject(current.Index)
			if err != nil {
				return err
			}
			current = root
		}

		nodes := tr.k.tlas
		if tr.instanced {
			nodes = tr.k.meshNodes
		}
		if int(current.Index) >= len(nodes) {
			return fmt.Errorf("scene: traversal reached node %s; have %d nodes", current, len(nodes))
		}

		next, ok, err := tr.visit(&nodes[current.Index])
		if err != nil || tr.done {
			return err
		}
		if !ok {
			if next, ok = tr.pop(); !ok {
				return nil
			}
		}
		current = next
	}
}

// Switch to the local space of an object and return the root of its mesh BVH.
func (tr *traversal) enterObject(index uint32) (bvh.NodeRef, error) {
	if int(index) >= len(tr.k.objects) {
		return bvh.None(), fmt.Errorf("%w: %d", ErrInvalidObjectReference, index)
	}
	obj := &tr.k.objects[index]
	tr.ray = tr.worldRay.Transform(obj.WorldToLocal)
	tr.invDir = tr.ray.InvDir()
	tr.object = int32(index)
	tr.instanced = true
	tr.switchPoint = tr.sp
	return bvh.Internal(obj.BVHOffset), nil
}

func (tr *traversal) leaveObject() {
	tr.ray = tr.worldRay
	tr.invDir = tr.worldRay.InvDir()
	tr.object = Miss
	tr.instanced = false
}

// Intersect both children of node. Triangle leaves are tested in place while
// the nearer traversable child is returned and the farther one deferred.
func (tr *traversal) visit(node *bvh.Node) (bvh.NodeRef, bool, error) {
	var (
		children  = [2]bvh.NodeRef{node.Left, node.Right}
		bounds    = [2]types.AABB{node.LeftBounds(), node.RightBounds()}
		candidate [2]stackEntry
		count     int
	)

	for i, child := range children {
		if child.IsNone() {
			continue
		}
		tNear, ok := types.IntersectAABB(bounds[i], tr.ray.Origin, tr.invDir, tr.best)
		if !ok {
			continue
		}
		if child.Kind == bvh.PrimitiveRef {
			if err := tr.intersectTriangle(child.Index); err != nil || tr.done {
				return bvh.None(), false, err
			}
			continue
		}
		candidate[count] = stackEntry{ref: child, tNear: tNear}
		count++
	}

	switch count {
	case 0:
		return bvh.None(), false, nil
	case 1:
		return candidate[0].ref, true, nil
	}

	near, far := candidate[0], candidate[1]
	if far.tNear < near.tNear {
		near, far = far, near
	}
	if tr.sp == MaxTraversalDepth {
		return bvh.None(), false, ErrTraversalStackOverflow
	}
	tr.stack[tr.sp] = far
	tr.sp++
	return near.ref, true, nil
}

func (tr *traversal) pop() (bvh.NodeRef, bool) {
	for tr.sp > 0 {
		if tr.instanced && tr.sp == tr.switchPoint {
			tr.leaveObject()
		}
		tr.sp--
		entry := tr.stack[tr.sp]
		if entry.tNear >= tr.best {
			continue
		}
		return entry.ref, true
	}
	return bvh.None(), false
}

func (tr *traversal) intersectTriangle(index uint32) error {
	if int(index) >= len(tr.k.triangles) {
		return fmt.Errorf("%w: %d", ErrInvalidTriangleReference, index)
	}
	t, ok := types.IntersectTriangle(tr.ray, tr.k.triangles[index])
	if !ok || t >= tr.best {
		return nil
	}

	tr.best = t
	tr.hit = Hit{Object: tr.object, Triangle: int32(index), Distance: t}
	tr.done = tr.anyHit
	return nil
}
