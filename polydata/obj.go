package polydata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"polybatch/math"
)

// objGroup accumulates one o/g block. OBJ indices are global to the file,
// so each group keeps its own global-to-local point remap.
type objGroup struct {
	mesh    *Mesh
	local   map[int]int
	normals []float32
	tcoords []float32
	hasN    bool
	hasT    bool
}

func newObjGroup(name string) *objGroup {
	return &objGroup{mesh: NewMesh(name), local: make(map[int]int)}
}

// LoadOBJ parses a Wavefront .obj file. Every o/g group becomes its own mesh;
// p, l and f records fill verts, lines and polys.
func LoadOBJ(path string) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer f.Close()
	meshes, err := ReadOBJ(f, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return meshes, nil
}

// ReadOBJ parses OBJ text from r; name labels the group before the first o/g.
func ReadOBJ(r io.Reader, name string) ([]*Mesh, error) {
	var positions []math.Vec3
	var normals []math.Vec3
	var uvs []math.Vec2
	var meshes []*Mesh

	current := newObjGroup(name)
	flush := func() {
		if current.mesh.NumberOfCells() == 0 {
			return
		}
		n := current.mesh.NumberOfPoints()
		if current.hasN {
			current.mesh.PointData.SetNormals(NewFloatArray("Normals", 3, current.normals[:3*n]))
		}
		if current.hasT {
			current.mesh.PointData.SetTCoords(NewFloatArray("TCoords", 2, current.tcoords[:2*n]))
		}
		meshes = append(meshes, current.mesh)
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "v":
			v, err := parseVec(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			positions = append(positions, math.NewVec3(v[0], v[1], v[2]))
		case "vn":
			v, err := parseVec(parts[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			normals = append(normals, math.NewVec3(v[0], v[1], v[2]))
		case "vt":
			v, err := parseVec(parts[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			uvs = append(uvs, math.NewVec2(v[0], v[1]))
		case "p", "l", "f":
			ids := make([]int, 0, len(parts)-1)
			for _, spec := range parts[1:] {
				id, err := current.point(spec, positions, normals, uvs)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				ids = append(ids, id)
			}
			switch parts[0] {
			case "p":
				if len(ids) >= 1 {
					current.mesh.Verts.InsertNextCell(ids...)
				}
			case "l":
				if len(ids) >= 2 {
					current.mesh.Lines.InsertNextCell(ids...)
				}
			case "f":
				if len(ids) >= 3 {
					current.mesh.Polys.InsertNextCell(ids...)
				}
			}
		case "o", "g":
			flush()
			groupName := "unnamed"
			if len(parts) > 1 {
				groupName = parts[1]
			}
			current = newObjGroup(groupName)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	if len(meshes) == 0 {
		return nil, ErrNoGeometry
	}
	return meshes, nil
}

// point resolves a "v/vt/vn" reference to a group-local point id, adding the
// point on first use. The first normal and texture coordinate seen win.
func (g *objGroup) point(spec string, positions, normals []math.Vec3, uvs []math.Vec2) (int, error) {
	fields := strings.Split(spec, "/")
	vi, err := resolveIndex(fields[0], len(positions))
	if err != nil {
		return 0, err
	}
	if id, ok := g.local[vi]; ok {
		return id, nil
	}
	id := g.mesh.Points.InsertNextPoint(positions[vi])
	g.local[vi] = id

	g.normals = append(g.normals, 0, 0, 0)
	g.tcoords = append(g.tcoords, 0, 0)
	if len(fields) >= 2 && fields[1] != "" {
		if ti, err := resolveIndex(fields[1], len(uvs)); err == nil {
			g.tcoords[2*id], g.tcoords[2*id+1] = uvs[ti].X, uvs[ti].Y
			g.hasT = true
		}
	}
	if len(fields) >= 3 && fields[2] != "" {
		if ni, err := resolveIndex(fields[2], len(normals)); err == nil {
			n := normals[ni]
			g.normals[3*id], g.normals[3*id+1], g.normals[3*id+2] = n.X, n.Y, n.Z
			g.hasN = true
		}
	}
	return id, nil
}

// resolveIndex converts a 1-based or negative OBJ index to a 0-based one.
func resolveIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q: %w", s, err)
	}
	if idx < 0 {
		idx = n + idx + 1
	}
	if idx <= 0 || idx > n {
		return 0, fmt.Errorf("index %d out of range [1,%d]", idx, n)
	}
	return idx - 1, nil
}

func parseVec(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// WriteOBJ writes meshes as OBJ groups. Strips are written as triangles.
func WriteOBJ(w io.Writer, meshes []*Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# polybatch export")

	base := 1
	for _, m := range meshes {
		fmt.Fprintf(bw, "o %s\n", m.Name)
		for _, p := range m.Points.Coords() {
			fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
		}
		record := func(tag string, pts []int) {
			bw.WriteString(tag)
			for _, id := range pts {
				fmt.Fprintf(bw, " %d", id+base)
			}
			bw.WriteByte('\n')
		}
		m.Verts.Each(func(_ int, pts []int) { record("p", pts) })
		m.Lines.Each(func(_ int, pts []int) { record("l", pts) })
		m.Polys.Each(func(_ int, pts []int) { record("f", pts) })
		m.Strips.Each(func(_ int, pts []int) {
			for j := 2; j < len(pts); j++ {
				if j%2 == 0 {
					record("f", []int{pts[j-2], pts[j-1], pts[j]})
				} else {
					record("f", []int{pts[j-1], pts[j-2], pts[j]})
				}
			}
		})
		base += m.NumberOfPoints()
	}
	return bw.Flush()
}
