package scene

import (
	"github.com/achilleasa/wavefront/bvh"
	"github.com/achilleasa/wavefront/types"
)

// A handle returned by Scene.RegisterMesh.
type MeshID int

// A triangle soup produced by a geometry importer.
type MeshData struct {
	Name      string
	Triangles []types.Triangle

	// Bounds of the mesh vertices. It is widened to cover all triangles
	// when the mesh is registered.
	Bounds types.AABB
}

// A registered mesh. Its BVH is built lazily the first time the mesh is
// referenced by an instance and is reused by all later builds.
type mesh struct {
	name   string
	bounds types.AABB

	// Triangles in input order; replaced by the BVH leaf order once built.
	triangles []types.Triangle

	tree *bvh.Tree

	// Offset into the packed node and triangle buffers. Only valid for
	// meshes packed by the last build.
	offset uint32
}

func newMesh(data *MeshData) *mesh {
	bounds := types.EmptyAABB()
	for _, tri := range data.Triangles {
		bounds = bounds.Union(tri.Bounds())
	}
	if !data.Bounds.IsEmpty() {
		bounds = bounds.Union(data.Bounds)
	}

	return &mesh{
		name:      data.Name,
		bounds:    bounds,
		triangles: append([]types.Triangle(nil), data.Triangles...),
	}
}

func (m *mesh) built() bool {
	return m.tree != nil
}

// Number of node slots reserved in the packed node buffer. A mesh with N
// triangles has N-1 internal nodes (one for N=1) so reserving N slots lets a
// single offset rebase both nodes and triangles.
func (m *mesh) nodeSlots() int {
	return len(m.triangles)
}
