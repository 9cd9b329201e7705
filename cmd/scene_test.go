package cmd

import (
	"flag"
	"testing"

	"github.com/achilleasa/wavefront/types"
	"github.com/urfave/cli"
)

func TestParseVec3Flag(t *testing.T) {
	v, err := parseVec3Flag("1, -2.5,3")
	if err != nil {
		t.Fatal(err)
	}
	if exp := types.XYZ(1, -2.5, 3); v != exp {
		t.Fatalf("expected %v; got %v", exp, v)
	}

	for _, in := range []string{"", "1,2", "1,2,x"} {
		if _, err = parseVec3Flag(in); err == nil {
			t.Fatalf("expected an error when parsing %q", in)
		}
	}
}

func newCameraContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.Float64("fov", 45, "")
	set.String("eye", "", "")
	set.String("look-at", "", "")
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(nil, set, nil)
}

func TestSetupCamera(t *testing.T) {
	bounds := types.EmptyAABB().Extend(types.XYZ(-1, -1, 0)).Extend(types.XYZ(1, 1, 2))

	camera, err := setupCamera(newCameraContext(t), bounds)
	if err != nil {
		t.Fatal(err)
	}
	if exp := types.XYZ(0, 0, 1); camera.LookAt != exp {
		t.Fatalf("expected camera to look at the scene center %v; got %v", exp, camera.LookAt)
	}
	if exp := types.XYZ(0, -4, 2); camera.Position != exp {
		t.Fatalf("expected camera position %v; got %v", exp, camera.Position)
	}
	if camera.FOV != 45 {
		t.Fatalf("expected fov 45; got %f", camera.FOV)
	}

	camera, err = setupCamera(newCameraContext(t, "-eye", "5,5,5", "-look-at", "0,0,0"), bounds)
	if err != nil {
		t.Fatal(err)
	}
	if camera.Position != types.XYZ(5, 5, 5) || camera.LookAt != (types.Vec3{}) {
		t.Fatalf("expected explicit camera placement; got %+v", camera)
	}

	if _, err = setupCamera(newCameraContext(t, "-eye", "5,5"), bounds); err == nil {
		t.Fatal("expected an error for a malformed eye position")
	}
}
