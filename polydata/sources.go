package polydata

import (
	stdmath "math"

	"polybatch/base"
	"polybatch/math"
)

// CreatePlane builds a flat grid of quads in the XZ plane.
func CreatePlane(width, depth float32, subdivisions int) *Mesh {
	if subdivisions < 1 {
		subdivisions = 1
	}
	m := NewMesh("Plane")
	halfW := width / 2.0
	halfD := depth / 2.0

	normals := make([]float32, 0, 3*(subdivisions+1)*(subdivisions+1))
	tcoords := make([]float32, 0, 2*(subdivisions+1)*(subdivisions+1))
	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)
			m.Points.InsertNextPoint(math.NewVec3(-halfW+u*width, 0, -halfD+v*depth))
			normals = append(normals, 0, 1, 0)
			tcoords = append(tcoords, u, v)
		}
	}
	for z := 0; z < subdivisions; z++ {
		for x := 0; x < subdivisions; x++ {
			topLeft := z*(subdivisions+1) + x
			bottomLeft := topLeft + subdivisions + 1
			m.Polys.InsertNextCell(topLeft, bottomLeft, bottomLeft+1, topLeft+1)
		}
	}
	m.PointData.SetNormals(NewFloatArray("Normals", 3, normals))
	m.PointData.SetTCoords(NewFloatArray("TCoords", 2, tcoords))
	return m
}

// CreateCube builds an axis-aligned cube of six quads sharing eight corners.
// Each face carries a cell normal.
func CreateCube(size float32) *Mesh {
	m := NewMesh("Cube")
	h := size / 2
	for i := 0; i < 8; i++ {
		x, y, z := -h, -h, -h
		if i&1 != 0 {
			x = h
		}
		if i&2 != 0 {
			y = h
		}
		if i&4 != 0 {
			z = h
		}
		m.Points.InsertNextPoint(math.NewVec3(x, y, z))
	}
	faces := [6][4]int{
		{0, 4, 6, 2}, // -X
		{1, 3, 7, 5}, // +X
		{0, 1, 5, 4}, // -Y
		{2, 6, 7, 3}, // +Y
		{0, 2, 3, 1}, // -Z
		{4, 5, 7, 6}, // +Z
	}
	normals := []float32{-1, 0, 0, 1, 0, 0, 0, -1, 0, 0, 1, 0, 0, 0, -1, 0, 0, 1}
	for _, f := range faces {
		m.Polys.InsertNextCell(f[:]...)
	}
	m.CellData.SetNormals(NewFloatArray("Normals", 3, normals))
	return m
}

// CreateSphere builds a UV sphere of quads. The quads touching the poles
// repeat the pole point, so their fan triangulation has degenerate triangles.
func CreateSphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}
	m := NewMesh("Sphere")
	var normals []float32
	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		sinPhi := float32(stdmath.Sin(phi))
		cosPhi := float32(stdmath.Cos(phi))
		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2.0 * stdmath.Pi / float64(segments)
			n := math.NewVec3(sinPhi*float32(stdmath.Cos(theta)), cosPhi, sinPhi*float32(stdmath.Sin(theta)))
			if ring == 0 || ring == rings {
				n = math.NewVec3(0, cosPhi, 0)
			}
			m.Points.InsertNextPoint(n.Mul(radius))
			normals = append(normals, n.X, n.Y, n.Z)
		}
	}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := ring*(segments+1) + seg
			next := current + segments + 1
			m.Polys.InsertNextCell(current, next, next+1, current+1)
		}
	}
	m.PointData.SetNormals(NewFloatArray("Normals", 3, normals))
	return m
}

// CreateGrid builds a line grid in the XZ plane, one two-point line per
// grid line. The axis lines are colored through cell scalars.
func CreateGrid(size float32, divisions int) *Mesh {
	if divisions < 1 {
		divisions = 1
	}
	m := NewMesh("Grid")
	half := size / 2.0
	step := size / float32(divisions)

	gray := base.Color{R: 0.35, G: 0.35, B: 0.35}
	red := base.Color{R: 0.8, G: 0.15, B: 0.15}
	blue := base.Color{R: 0.15, G: 0.35, B: 0.9}
	var colors []uint8
	addLine := func(a, b math.Vec3, c base.Color) {
		i := m.Points.InsertNextPoint(a)
		j := m.Points.InsertNextPoint(b)
		m.Lines.InsertNextCell(i, j)
		colors = append(colors, colorByte(c.R), colorByte(c.G), colorByte(c.B))
	}
	for i := 0; i <= divisions; i++ {
		x := -half + float32(i)*step
		c := gray
		if i == divisions/2 {
			c = blue
		}
		addLine(math.NewVec3(x, 0, -half), math.NewVec3(x, 0, half), c)
	}
	for i := 0; i <= divisions; i++ {
		z := -half + float32(i)*step
		c := gray
		if i == divisions/2 {
			c = red
		}
		addLine(math.NewVec3(-half, 0, z), math.NewVec3(half, 0, z), c)
	}
	m.CellData.SetScalars(NewByteArray("Colors", 3, colors))
	return m
}

// CreatePolyline builds a single polyline through pts.
func CreatePolyline(pts ...math.Vec3) *Mesh {
	m := NewMesh("Polyline")
	ids := make([]int, len(pts))
	for i, p := range pts {
		ids[i] = m.Points.InsertNextPoint(p)
	}
	if len(ids) >= 2 {
		m.Lines.InsertNextCell(ids...)
	}
	return m
}

// CreateStrip builds one triangle strip of n points zig-zagging along X.
func CreateStrip(n int, width float32) *Mesh {
	m := NewMesh("Strip")
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		y := float32(0)
		if i%2 == 1 {
			y = width
		}
		ids[i] = m.Points.InsertNextPoint(math.NewVec3(float32(i/2)*width, y, 0))
	}
	if n >= 3 {
		m.Strips.InsertNextCell(ids...)
	}
	return m
}

// CreatePointCloud builds an n×n grid of points, one vertex cell per row,
// with a point scalar ramp.
func CreatePointCloud(n int, spacing float32) *Mesh {
	m := NewMesh("PointCloud")
	scalars := make([]float32, 0, n*n)
	for row := 0; row < n; row++ {
		ids := make([]int, n)
		for col := 0; col < n; col++ {
			ids[col] = m.Points.InsertNextPoint(math.NewVec3(float32(col)*spacing, float32(row)*spacing, 0))
			scalars = append(scalars, float32(row*n+col))
		}
		m.Verts.InsertNextCell(ids...)
	}
	m.PointData.SetScalars(NewFloatArray("Ramp", 1, scalars))
	return m
}

// AddCellIDScalars attaches a "CellIds" cell array numbering every cell,
// handy for checking pick results against colors.
func AddCellIDScalars(m *Mesh) {
	n := m.NumberOfCells()
	ids := make([]float32, n)
	for i := range ids {
		ids[i] = float32(i)
	}
	m.CellData.AddArray(NewFloatArray("CellIds", 1, ids))
}

func colorByte(f float32) uint8 {
	return toByte(float64(f))
}
