package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(context.Background(), thisFile)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource")
	}
	if res.Name() != filepath.Base(thisFile) {
		t.Fatalf("expected resource name to be %s; got %s", filepath.Base(thisFile), res.Name())
	}

	if _, err = NewResource(context.Background(), filepath.Join(filepath.Dir(thisFile), "missing.obj")); err == nil {
		t.Fatal("expected opening a missing file to fail")
	}
}

func TestHttpResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meshes/cube.obj" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("v 0 0 0\n"))
	}))
	defer server.Close()

	res, err := NewResource(context.Background(), server.URL+"/meshes/cube.obj")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if !res.IsRemote() {
		t.Fatal("expected remote resource")
	}
	if res.Name() != "cube.obj" {
		t.Fatalf("expected resource name to be cube.obj; got %s", res.Name())
	}
	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v 0 0 0\n" {
		t.Fatalf("unexpected resource contents %q", data)
	}

	fetchUrl := server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(context.Background(), fetchUrl)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestUnsupportedScheme(t *testing.T) {
	_, err := NewResource(context.Background(), "ftp://example.com/mesh.obj")
	if err == nil || !strings.Contains(err.Error(), "unsupported scheme 'ftp'") {
		t.Fatalf("expected unsupported scheme error; got %v", err)
	}
}

func TestStreamResource(t *testing.T) {
	res := NewResourceFromStream("inline.obj", strings.NewReader("o test"))
	defer res.Close()

	if res.Path() != "inline.obj" || res.IsRemote() {
		t.Fatalf("unexpected stream resource path %s", res.Path())
	}
}
