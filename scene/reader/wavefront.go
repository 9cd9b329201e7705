package reader

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/wavefront/asset"
	"github.com/achilleasa/wavefront/log"
	"github.com/achilleasa/wavefront/scene"
	"github.com/achilleasa/wavefront/types"
)

type wavefrontMeshReader struct {
	logger log.Logger

	// The parsed mesh.
	mesh *scene.MeshData

	// Vertices of the active object block.
	vertexList []types.Vec3
}

// Load a mesh from a local path or an http(s) URL.
func ReadMesh(ctx context.Context, location string) (*scene.MeshData, error) {
	res, err := asset.NewResource(ctx, location)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ParseMesh(res)
}

// Parse a wavefront mesh. Supported directives are:
//   - v x y z: append a vertex to the active vertex pool.
//   - f i j k ...: a polygon that is fan-triangulated. Indices are 1-based
//     and refer to the active pool; negative indices count back from its end.
//     Only the leading vertex index of tokens like i/t/n is used.
//   - o name: start a new object block with an empty vertex pool.
//
// Comments and any other directives are ignored. The mesh bounds cover
// every parsed vertex.
func ParseMesh(res *asset.Resource) (*scene.MeshData, error) {
	r := &wavefrontMeshReader{
		logger: log.New("wavefront reader"),
		mesh: &scene.MeshData{
			Name:   res.Name(),
			Bounds: types.EmptyAABB(),
		},
	}

	start := time.Now()
	if err := r.parse(res); err != nil {
		return nil, err
	}
	r.logger.Debugf(
		"parsed %s in %d ms: %d triangles",
		res.Path(),
		time.Since(start).Milliseconds(),
		len(r.mesh.Triangles),
	)

	return r.mesh, nil
}

// Generate an error message annotated with the file and line that caused it.
func (r *wavefrontMeshReader) emitError(file string, line int, msgFormat string, args ...any) error {
	return fmt.Errorf("[%s: %d] error: %s", file, line, fmt.Sprintf(msgFormat, args...))
}

func (r *wavefrontMeshReader) parse(res *asset.Resource) error {
	var lineNum int

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
			r.mesh.Bounds = r.mesh.Bounds.Extend(v)
		case "o":
			r.vertexList = r.vertexList[:0]
		case "f":
			if err := r.parseFace(lineTokens); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Fan-triangulate a polygon around its first vertex.
func (r *wavefrontMeshReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf("unsupported syntax for 'f'; expected at least 3 arguments; got %d", len(lineTokens)-1)
	}

	vertices := make([]types.Vec3, len(lineTokens)-1)
	for arg := range vertices {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList))
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]
	}

	for i := 1; i < len(vertices)-1; i++ {
		r.mesh.Triangles = append(r.mesh.Triangles, types.Triangle{
			V0: vertices[0],
			V1: vertices[i],
			V2: vertices[i+1],
		})
	}
	return nil
}

func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index %d out of bounds; object defines %d vertices", index, coordListLen)
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
