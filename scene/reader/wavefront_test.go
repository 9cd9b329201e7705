package reader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/achilleasa/wavefront/asset"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/types"
)

func init() {
	log.SetSink(io.Discard)
}

func TestVec3Parser(t *testing.T) {
	expError := "unsupported syntax for 'v'; expected 3 arguments; got 0"
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "-1"})
	if err != nil {
		t.Fatal(err)
	}
	if v != types.XYZ(3.14, 0, -1) {
		t.Fatalf("expected parsed value to be (3.14, 0, -1); got %v", v)
	}
}

func TestParseQuadFan(t *testing.T) {
	payload := `
# a unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	mesh, err := ParseMesh(asset.NewResourceFromStream("quad.obj", strings.NewReader(payload)))
	if err != nil {
		t.Fatal(err)
	}

	if len(mesh.Triangles) != 2 {
		t.Fatalf("expected quad to be split into 2 triangles; got %d", len(mesh.Triangles))
	}
	exp := []types.Triangle{
		{V0: types.XYZ(0, 0, 0), V1: types.XYZ(1, 0, 0), V2: types.XYZ(1, 1, 0)},
		{V0: types.XYZ(0, 0, 0), V1: types.XYZ(1, 1, 0), V2: types.XYZ(0, 1, 0)},
	}
	for i, tri := range exp {
		if mesh.Triangles[i] != tri {
			t.Fatalf("[tri %d] expected %v; got %v", i, tri, mesh.Triangles[i])
		}
	}

	expBounds := types.AABB{Min: types.XYZ(0, 0, 0), Max: types.XYZ(1, 1, 0)}
	if mesh.Bounds != expBounds {
		t.Fatalf("expected bounds %v; got %v", expBounds, mesh.Bounds)
	}
	if mesh.Name != "quad.obj" {
		t.Fatalf("expected mesh name quad.obj; got %s", mesh.Name)
	}
}

func TestObjectBlocksResetVertexPool(t *testing.T) {
	payload := `
o first
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
o second
v 5 5 5
v 6 5 5
v 5 6 5
f 1/1/1 2//2 -1
`
	mesh, err := ParseMesh(asset.NewResourceFromStream("blocks.obj", strings.NewReader(payload)))
	if err != nil {
		t.Fatal(err)
	}

	if len(mesh.Triangles) != 2 {
		t.Fatalf("expected 2 triangles; got %d", len(mesh.Triangles))
	}
	exp := types.Triangle{V0: types.XYZ(5, 5, 5), V1: types.XYZ(6, 5, 5), V2: types.XYZ(5, 6, 5)}
	if mesh.Triangles[1] != exp {
		t.Fatalf("expected second block face to index its own vertices %v; got %v", exp, mesh.Triangles[1])
	}
}

func TestParseErrors(t *testing.T) {
	specs := []struct {
		payload string
		expErr  string
	}{
		{"v 0 0\n", "[bad.obj: 1] error: unsupported syntax for 'v'; expected 3 arguments; got 2"},
		{"v 0 0 0\nv 1 0 0\nf 1 2\n", "[bad.obj: 3] error: unsupported syntax for 'f'; expected at least 3 arguments; got 2"},
		{"v 0 0 0\nv 1 0 0\nv 1 1 1\no next\nf 1 2 3\n", "[bad.obj: 5] error: could not parse vertex coord for face argument 0: index 1 out of bounds; object defines 0 vertices"},
		{"v 0 0 0\nf 1 /2 1\n", "[bad.obj: 2] error: face argument 1 does not include a vertex index"},
	}

	for index, spec := range specs {
		_, err := ParseMesh(asset.NewResourceFromStream("bad.obj", strings.NewReader(spec.payload)))
		if err == nil || err.Error() != spec.expErr {
			t.Errorf("[spec %d] expected error %q; got %v", index, spec.expErr, err)
		}
	}
}

func TestReadRemoteMesh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("v 0 0 0\nv 1 0 0\nv 0 0 1\nf 1 2 3\n"))
	}))
	defer server.Close()

	mesh, err := ReadMesh(context.Background(), server.URL+"/tri.obj")
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Triangles) != 1 || mesh.Name != "tri.obj" {
		t.Fatalf("expected a single triangle mesh named tri.obj; got %d triangles named %s", len(mesh.Triangles), mesh.Name)
	}
}
