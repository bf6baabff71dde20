package polydata

import (
	"fmt"
	"log/slog"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"polybatch/math"
)

// LoadGLTF opens a .glb or .gltf file and returns one mesh per primitive.
// Node transforms are not applied.
func LoadGLTF(path string) ([]*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	meshes := MeshesFromGLTF(doc)
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
	}
	return meshes, nil
}

// MeshesFromGLTF converts every primitive of doc. Primitives that fail to
// decode are logged and skipped.
func MeshesFromGLTF(doc *gltf.Document) []*Mesh {
	var out []*Mesh
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			name := fmt.Sprintf("%s_p%d", gm.Name, pi)
			if gm.Name == "" {
				name = fmt.Sprintf("mesh%d_p%d", mi, pi)
			}
			m, err := meshFromPrimitive(doc, name, prim)
			if err != nil {
				slog.Warn("gltf: skipping primitive", "mesh", mi, "primitive", pi, "err", err)
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

func meshFromPrimitive(doc *gltf.Document, name string, prim *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	m := NewMesh(name)
	for _, p := range positions {
		m.Points.coords = append(m.Points.coords, math.NewVec3(p[0], p[1], p[2]))
	}
	m.Points.Modified()

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil); err == nil && len(normals) == len(positions) {
			m.PointData.SetNormals(NewFloatArray("Normals", 3, flatten3(normals)))
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err == nil && len(uvs) == len(positions) {
			flat := make([]float32, 0, 2*len(uvs))
			for _, uv := range uvs {
				flat = append(flat, uv[0], uv[1])
			}
			m.PointData.SetTCoords(NewFloatArray("TCoords", 2, flat))
		}
	}
	if idx, ok := prim.Attributes["COLOR_0"]; ok {
		if colors, err := modeler.ReadColor(doc, doc.Accessors[idx], nil); err == nil && len(colors) == len(positions) {
			flat := make([]uint8, 0, 4*len(colors))
			for _, c := range colors {
				flat = append(flat, c[:]...)
			}
			m.PointData.SetScalars(NewByteArray("Colors", 4, flat))
		}
	}

	indices := make([]uint32, 0, len(positions))
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		for i := range positions {
			indices = append(indices, uint32(i))
		}
	}
	ids := make([]int, len(indices))
	for i, v := range indices {
		ids[i] = int(v)
	}

	switch prim.Mode {
	case gltf.PrimitivePoints:
		m.Verts.InsertNextCell(ids...)
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(ids); i += 2 {
			m.Lines.InsertNextCell(ids[i], ids[i+1])
		}
	case gltf.PrimitiveLineStrip:
		m.Lines.InsertNextCell(ids...)
	case gltf.PrimitiveLineLoop:
		if len(ids) > 0 {
			m.Lines.InsertNextCell(append(ids, ids[0])...)
		}
	case gltf.PrimitiveTriangleStrip:
		m.Strips.InsertNextCell(ids...)
	case gltf.PrimitiveTriangleFan:
		m.Polys.InsertNextCell(ids...)
	default:
		for i := 0; i+2 < len(ids); i += 3 {
			m.Polys.InsertNextCell(ids[i], ids[i+1], ids[i+2])
		}
	}
	if m.NumberOfCells() == 0 {
		return nil, ErrNoGeometry
	}
	return m, nil
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, 3*len(v))
	for _, t := range v {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}
