package scene

import (
	"fmt"
	"time"

	"github.com/achilleasa/wavefront/bvh"
	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/types"
)

// Build statistics.
type BuildStats struct {
	MeshesBuilt int
	MeshTime    time.Duration
	PackTime    time.Duration
	TLASTime    time.Duration
	TotalTime   time.Duration
}

// A scene owns registered meshes and their instances and builds the packed
// acceleration structures consumed by the tracer.
type Scene struct {
	dev    *device.Device
	logger log.Logger

	meshes []*mesh

	// Instances in creation order.
	instances []Object

	// Instances in TLAS leaf order; populated by Build.
	objects []Object

	bounds types.AABB
	tlas   *bvh.Tree
	packed *PackedBuffers
	built  bool

	stats BuildStats
}

// Create an empty scene whose build kernels run on dev.
func New(dev *device.Device) *Scene {
	return &Scene{
		dev:    dev,
		logger: log.New("scene"),
		bounds: types.EmptyAABB(),
	}
}

// Register a mesh and return its handle. No device work happens until Build.
func (s *Scene) RegisterMesh(data *MeshData) MeshID {
	s.meshes = append(s.meshes, newMesh(data))
	return MeshID(len(s.meshes) - 1)
}

// Instance a registered mesh with material 0.
func (s *Scene) InstanceMesh(id MeshID, position, rotation, scale types.Vec3) {
	s.InstanceMeshWithMaterial(id, position, rotation, scale, 0)
}

// Instance a registered mesh. Invalid handles, empty meshes and zero scale
// components are reported and the call is ignored.
func (s *Scene) InstanceMeshWithMaterial(id MeshID, position, rotation, scale types.Vec3, material uint32) {
	if id < 0 || int(id) >= len(s.meshes) {
		s.logger.Warningf("instanceMesh: mesh id %d out of range [0, %d); ignoring instance", id, len(s.meshes))
		return
	}
	if len(s.meshes[id].triangles) == 0 {
		s.logger.Warningf("instanceMesh: mesh %d (%s) has no triangles; ignoring instance", id, s.meshes[id].name)
		return
	}
	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		s.logger.Warningf("instanceMesh: mesh %d instance has zero scale %v; ignoring instance", id, scale)
		return
	}

	s.instances = append(s.instances, Object{
		Mesh:      id,
		Material:  material,
		Transform: Transform{Position: position, Rotation: rotation, Scale: scale},
	})
}

// Number of registered meshes.
func (s *Scene) MeshCount() int {
	return len(s.meshes)
}

// Number of instances.
func (s *Scene) InstanceCount() int {
	return len(s.instances)
}

// Build the acceleration structures:
//  1. build the BVH of every instanced mesh that has not been built yet
//  2. pack all instanced meshes into shared node/triangle buffers
//  3. compute instance transforms and world bounds
//  4. compute the scene bounds
//  5. build the TLAS over the instance bounds
//  6. reorder instances to match the TLAS leaf order
//  7. upload the scene buffers
//
// Build may be called again after instancing more meshes; previously built
// mesh BVHs are reused.
func (s *Scene) Build() error {
	start := time.Now()
	s.built = false
	s.stats = BuildStats{}
	if err := s.dev.Init(bvh.Program, Program); err != nil {
		return err
	}

	// Step 1: mesh BVHs
	tick := time.Now()
	utilized := s.utilizedMeshes()
	for _, id := range utilized {
		if err := s.buildMesh(id); err != nil {
			return err
		}
	}
	s.stats.MeshTime = time.Since(tick)

	// Step 2: pack meshes
	tick = time.Now()
	meshNodes, triangles, err := s.packMeshes(utilized)
	if err != nil {
		return err
	}
	s.stats.PackTime = time.Since(tick)

	// Steps 3-4: instance transforms and bounds
	objects := make([]Object, len(s.instances))
	s.bounds = types.EmptyAABB()
	for i, inst := range s.instances {
		m := s.meshes[inst.Mesh]
		inst.LocalToWorld = inst.Transform.LocalToWorld()
		inst.WorldToLocal = inst.Transform.WorldToLocal()
		inst.Bounds = m.bounds.Transform(inst.LocalToWorld)
		inst.BVHOffset = m.offset
		objects[i] = inst
		s.bounds = s.bounds.Union(inst.Bounds)
	}

	// Step 5: TLAS
	tick = time.Now()
	prims := make([]bvh.Primitive, len(objects))
	for i := range objects {
		prims[i] = bvh.Primitive{Bounds: objects[i].Bounds, Centroid: objects[i].Bounds.Centroid()}
	}
	if s.tlas, err = bvh.Build(s.dev, prims, s.bounds, bvh.ObjectRef); err != nil {
		return fmt.Errorf("scene: could not build TLAS: %w", err)
	}
	s.stats.TLASTime = time.Since(tick)

	// Step 6: match object order to TLAS leaves
	if s.objects, err = bvh.Rearrange(s.dev, objects, s.tlas.Permutation); err != nil {
		return fmt.Errorf("scene: could not reorder objects: %w", err)
	}

	// Step 7: upload
	if s.packed != nil {
		s.packed.Release()
	}
	if s.packed, err = newPackedBuffers(s.dev, s.tlas.Nodes, s.objects, meshNodes, triangles); err != nil {
		return err
	}

	s.built = true
	s.stats.TotalTime = time.Since(start)
	s.logger.Infof(
		"built scene in %d ms: %d meshes (%d new), %d instances, %d triangles",
		s.stats.TotalTime.Milliseconds(), len(utilized), s.stats.MeshesBuilt, len(s.objects), len(triangles),
	)
	return nil
}

// Get the ids of meshes referenced by at least one instance in ascending order.
func (s *Scene) utilizedMeshes() []MeshID {
	used := make([]bool, len(s.meshes))
	for _, inst := range s.instances {
		used[inst.Mesh] = true
	}
	ids := make([]MeshID, 0, len(s.meshes))
	for id, isUsed := range used {
		if isUsed {
			ids = append(ids, MeshID(id))
		}
	}
	return ids
}

func (s *Scene) buildMesh(id MeshID) error {
	m := s.meshes[id]
	if m.built() {
		return nil
	}

	prims := make([]bvh.Primitive, len(m.triangles))
	for i, tri := range m.triangles {
		prims[i] = bvh.Primitive{Bounds: tri.Bounds(), Centroid: tri.Centroid()}
	}
	tree, err := bvh.Build(s.dev, prims, m.bounds, bvh.PrimitiveRef)
	if err != nil {
		return fmt.Errorf("scene: could not build BVH for mesh %d (%s): %w", id, m.name, err)
	}
	if m.triangles, err = bvh.Rearrange(s.dev, m.triangles, tree.Permutation); err != nil {
		return fmt.Errorf("scene: could not reorder triangles for mesh %d (%s): %w", id, m.name, err)
	}
	m.tree = tree
	s.stats.MeshesBuilt++

	s.logger.Debugf("built BVH for mesh %d (%s): %d triangles, %d nodes", id, m.name, len(m.triangles), len(tree.Nodes))
	return nil
}

// Get the scene bounds. Only valid after Build.
func (s *Scene) Bounds() types.AABB {
	return s.bounds
}

// Get the instances in TLAS leaf order. Returns nil before Build.
func (s *Scene) Objects() []Object {
	if !s.built {
		s.logger.Error("objects requested before the scene was built")
		return nil
	}
	return s.objects
}

// Get the top-level BVH. Returns nil before Build.
func (s *Scene) TLAS() *bvh.Tree {
	if !s.built {
		s.logger.Error("TLAS requested before the scene was built")
		return nil
	}
	return s.tlas
}

// Get the packed scene buffers. Returns nil before Build.
func (s *Scene) Buffers() *PackedBuffers {
	if !s.built {
		s.logger.Error("scene buffers requested before the scene was built")
		return nil
	}
	return s.packed
}

// Get the traversal kernels for the built scene. Returns nil before Build.
func (s *Scene) Kernels() *TraceKernels {
	if !s.built {
		s.logger.Error("trace kernels requested before the scene was built")
		return nil
	}
	return newTraceKernels(s.packed)
}

// Get statistics for the last build.
func (s *Scene) BuildStats() BuildStats {
	return s.stats
}

// Release the device buffers held by the scene.
func (s *Scene) Close() {
	if s.packed != nil {
		s.packed.Release()
		s.packed = nil
	}
	s.built = false
}
