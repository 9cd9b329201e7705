package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/wavefront/bvh"
	"github.com/achilleasa/wavefront/device"
	"github.com/achilleasa/wavefront/types"
	"github.com/gogpu/gputypes"
)

const (
	kernelPackNodes = "scene_pack_nodes"

	// Size in bytes of an encoded triangle (3 vertices padded to vec4).
	TriangleSize = 48
)

// The scene packing kernels.
var Program = device.Program{
	kernelPackNodes: packNodesKernel,
}

// Copy a mesh BVH into the shared node buffer, shifting every internal and
// leaf reference by the mesh offset.
//
// Args: src, dst *Buffer[bvh.Node], offset uint32
func packNodesKernel(group *device.WorkGroup, args []any) error {
	src, err := device.Arg[*device.Buffer[bvh.Node]](args, 0)
	if err != nil {
		return err
	}
	dst, err := device.Arg[*device.Buffer[bvh.Node]](args, 1)
	if err != nil {
		return err
	}
	offset, err := device.Arg[uint32](args, 2)
	if err != nil {
		return err
	}

	srcData, dstData := src.Data(), dst.Data()
	return group.ForEach(func(i, _ int) error {
		out := int(offset) + i
		if out >= len(dstData) {
			return fmt.Errorf("scene: packed node %d out of range [0, %d): %w", out, len(dstData), device.ErrBufferOverflow)
		}
		node := srcData[i]
		node.Left = node.Left.Rebase(offset)
		node.Right = node.Right.Rebase(offset)
		dstData[out] = node
		return nil
	})
}

// Pack the BVHs and triangles of the given meshes into shared buffers and
// record each mesh offset.
func (s *Scene) packMeshes(ids []MeshID) ([]bvh.Node, []types.Triangle, error) {
	var slots int
	for _, id := range ids {
		m := s.meshes[id]
		m.offset = uint32(slots)
		slots += m.nodeSlots()
	}

	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	dst := device.NewBuffer[bvh.Node](s.dev, "scene_mesh_nodes_staging", usage)
	defer dst.Release()
	if err := dst.Allocate(slots); err != nil {
		return nil, nil, err
	}
	src := device.NewBuffer[bvh.Node](s.dev, "scene_mesh_nodes_src", usage)
	defer src.Release()

	kernel, err := s.dev.Kernel(kernelPackNodes)
	if err != nil {
		return nil, nil, err
	}
	defer kernel.Release()

	triangles := make([]types.Triangle, slots)
	for _, id := range ids {
		m := s.meshes[id]
		copy(triangles[m.offset:], m.triangles)

		if err = src.AllocateAndWriteData(m.tree.Nodes); err != nil {
			return nil, nil, err
		}
		if err = kernel.SetArgs(src, dst, m.offset); err != nil {
			return nil, nil, err
		}
		if _, err = kernel.Exec1D(0, len(m.tree.Nodes), 0); err != nil {
			return nil, nil, fmt.Errorf("scene: could not pack mesh %d (%s): %w", id, m.name, err)
		}
	}

	nodes := make([]bvh.Node, slots)
	if err = dst.ReadData(0, 0, 0, nodes); err != nil {
		return nil, nil, err
	}
	return nodes, triangles, nil
}

// The device-resident scene data consumed by the traversal kernels.
type PackedBuffers struct {
	TLAS      *device.Buffer[bvh.Node]
	Objects   *device.Buffer[Object]
	MeshNodes *device.Buffer[bvh.Node]
	Triangles *device.Buffer[types.Triangle]
}

func newPackedBuffers(dev *device.Device, tlas []bvh.Node, objects []Object, meshNodes []bvh.Node, triangles []types.Triangle) (*PackedBuffers, error) {
	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	p := &PackedBuffers{
		TLAS:      device.NewBuffer[bvh.Node](dev, "scene_tlas_nodes", usage),
		Objects:   device.NewBuffer[Object](dev, "scene_objects", usage),
		MeshNodes: device.NewBuffer[bvh.Node](dev, "scene_mesh_nodes", usage),
		Triangles: device.NewBuffer[types.Triangle](dev, "scene_triangles", usage),
	}

	var err error
	if err = p.TLAS.AllocateAndWriteData(tlas); err == nil {
		if err = p.Objects.AllocateAndWriteData(objects); err == nil {
			if err = p.MeshNodes.AllocateAndWriteData(meshNodes); err == nil {
				err = p.Triangles.AllocateAndWriteData(triangles)
			}
		}
	}
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("scene: could not upload scene data: %w", err)
	}
	return p, nil
}

// Release all buffers.
func (p *PackedBuffers) Release() {
	p.TLAS.Release()
	p.Objects.Release()
	p.MeshNodes.Release()
	p.Triangles.Release()
}

// Total size of the packed buffers in bytes, using the wire encoding.
func (p *PackedBuffers) Size() int {
	return p.TLAS.Len()*bvh.NodeSize +
		p.Objects.Len()*ObjectSize +
		p.MeshNodes.Len()*bvh.NodeSize +
		p.Triangles.Len()*TriangleSize
}

// The little-endian wire encoding of the packed buffers in binding order.
// Empty buffers are padded with a single element since storage bindings
// cannot be zero-sized; the TLAS padding node has no children.
type EncodedBuffers struct {
	TLAS      []byte
	Objects   []byte
	MeshNodes []byte
	Triangles []byte
}

// Get the buffers in binding order.
func (e EncodedBuffers) Bindings() [][]byte {
	return [][]byte{e.TLAS, e.Objects, e.MeshNodes, e.Triangles}
}

// Encode the packed buffers for upload to a GPU.
func (p *PackedBuffers) Encode() EncodedBuffers {
	tlas := p.TLAS.Data()
	if len(tlas) == 0 {
		empty := types.EmptyAABB()
		tlas = []bvh.Node{{
			LeftMin: empty.Min, LeftMax: empty.Max,
			RightMin: empty.Min, RightMax: empty.Max,
		}}
	}

	enc := EncodedBuffers{
		TLAS:      bvh.EncodeNodes(tlas),
		MeshNodes: bvh.EncodeNodes(p.MeshNodes.Data()),
	}
	for _, obj := range p.Objects.Data() {
		enc.Objects = obj.AppendEncoded(enc.Objects)
	}
	for _, tri := range p.Triangles.Data() {
		enc.Triangles = appendTriangle(enc.Triangles, tri)
	}

	if len(enc.Objects) == 0 {
		enc.Objects = make([]byte, ObjectSize)
	}
	if len(enc.MeshNodes) == 0 {
		enc.MeshNodes = make([]byte, bvh.NodeSize)
	}
	if len(enc.Triangles) == 0 {
		enc.Triangles = make([]byte, TriangleSize)
	}
	return enc
}

func appendTriangle(dst []byte, tri types.Triangle) []byte {
	for _, v := range [3]types.Vec3{tri.V0, tri.V1, tri.V2} {
		for _, c := range v {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(c))
		}
		dst = binary.LittleEndian.AppendUint32(dst, 0)
	}
	return dst
}
