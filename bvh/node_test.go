package bvh

import (
	"testing"

	"github.com/achilleasa/wavefront/types"
)

func TestNodeRefEncoding(t *testing.T) {
	specs := []struct {
		ref NodeRef
		exp int32
	}{
		{Internal(0), 0},
		{Internal(42), 42},
		{PrimitiveLeaf(0), -1},
		{PrimitiveLeaf(9), -10},
		{Object(3), -4},
		{None(), NoneEncoding},
		{PrimitiveLeaf(9).Rebase(100), -110},
		{Internal(5).Rebase(100), 105},
		{None().Rebase(100), NoneEncoding},
	}

	for index, spec := range specs {
		if got := spec.ref.Encode(); got != spec.exp {
			t.Errorf("[spec %d] expected %s to encode as %d; got %d", index, spec.ref, spec.exp, got)
		}

		leafKind := PrimitiveRef
		if spec.ref.Kind == ObjectRef {
			leafKind = ObjectRef
		}
		if got := DecodeRef(spec.exp, leafKind); got.Encode() != spec.exp {
			t.Errorf("[spec %d] expected decoded ref to re-encode as %d; got %d", index, spec.exp, got.Encode())
		}
	}
}

func TestNodeWireRoundTrip(t *testing.T) {
	node := Node{
		LeftMin:  types.XYZ(-1, -2, -3),
		LeftMax:  types.XYZ(1, 2, 3),
		RightMin: types.XYZ(4, 5, 6),
		RightMax: types.XYZ(7, 8, 9),
		Left:     Internal(7),
		Right:    PrimitiveLeaf(12),
	}

	data := EncodeNodes([]Node{node, node})
	if len(data) != 2*NodeSize {
		t.Fatalf("expected encoded size %d; got %d", 2*NodeSize, len(data))
	}

	got, err := DecodeNode(data[NodeSize:], PrimitiveRef)
	if err != nil {
		t.Fatal(err)
	}
	if got != node {
		t.Fatalf("expected decoded node %+v; got %+v", node, got)
	}

	if _, err = DecodeNode(data[:10], PrimitiveRef); err == nil {
		t.Fatal("expected short buffer to fail decoding")
	}
}
