package scene

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/achilleasa/wavefront/bvh"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
)

var (
	//go:embed shaders/traversal.wgsl.tmpl
	traversalSource string

	//go:embed shaders/validate.wgsl.tmpl
	validateSource string

	traversalTemplate = template.Must(template.New("traversal").Parse(traversalSource))
	validateTemplate  = template.Must(template.New("validate").Parse(validateSource))
)

type traversalParams struct {
	Group           uint32
	StackSize       int
	TriangleEpsilon string
	HitInfo         bool
}

func renderTraversal(group uint32, hitInfo bool) string {
	var sb strings.Builder
	err := traversalTemplate.Execute(&sb, traversalParams{
		Group:           group,
		StackSize:       MaxTraversalDepth,
		TriangleEpsilon: "1e-8",
		HitInfo:         hitInfo,
	})
	if err != nil {
		panic(fmt.Sprintf("scene: traversal template: %v", err))
	}
	return sb.String()
}

// Generate the WGSL source of the nearest-hit traversal with the scene
// buffers declared at the given bind group. It defines
// intersect_bvh(o, d) -> BVHHitResult and occluded(o, d, t_max) -> bool.
func (k *TraceKernels) NearestHitCode(group uint32) string {
	return renderTraversal(group, false)
}

// Generate the WGSL source of the traversal that also reports surface
// normals. In addition to the nearest-hit functions it defines
// get_triangle_hit_info(o, d, obj, tri) and intersect_bvh_info(o, d).
func (k *TraceKernels) HitInfoCode(group uint32) string {
	return renderTraversal(group, true)
}

// Compile generated traversal code to SPIR-V. A trivial compute entry point
// referencing the traversal functions is appended so the module is complete.
func CompileTraversal(code string, hitInfo bool) ([]byte, error) {
	var sb strings.Builder
	if err := validateTemplate.Execute(&sb, struct {
		Code    string
		HitInfo bool
	}{code, hitInfo}); err != nil {
		return nil, err
	}

	spirv, err := naga.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("scene: could not compile traversal shader: %w", err)
	}
	return spirv, nil
}

// Get the bind group layout for the four scene storage buffers in binding
// order: TLAS nodes, object descriptors, packed mesh nodes and triangles.
func (k *TraceKernels) BindGroupLayout() []gputypes.BindGroupLayoutEntry {
	storage := func(binding uint32, minSize uint64) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeStorage,
				MinBindingSize: minSize,
			},
		}
	}

	return []gputypes.BindGroupLayoutEntry{
		storage(0, bvh.NodeSize),
		storage(1, ObjectSize),
		storage(2, bvh.NodeSize),
		storage(3, TriangleSize),
	}
}
