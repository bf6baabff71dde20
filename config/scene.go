package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"polybatch/math"
	"polybatch/polydata"
	"polybatch/render"
)

// LoadBlocks builds the composite blocks, loading files relative to dir.
func (f *File) LoadBlocks(dir string) ([]render.Block, error) {
	var out []render.Block
	for i, b := range f.Blocks {
		meshes, err := b.meshes(dir)
		if err != nil {
			return nil, fmt.Errorf("config: block %d (%q): %w", i, b.Name, err)
		}
		mode, err := b.scalarMode()
		if err != nil {
			return nil, fmt.Errorf("config: block %d (%q): %w", i, b.Name, err)
		}
		for _, mesh := range meshes {
			name := b.Name
			if len(meshes) > 1 {
				name = b.Name + "/" + mesh.Name
			}
			if b.Position != ([3]float32{}) {
				translate(mesh, ArrayToVec3(b.Position))
			}
			blk := render.Block{Name: name, Mesh: mesh, Attributes: b.attributes()}
			if b.ColorBy != "" || mode != polydata.ScalarModeDefault {
				if b.ColorBy == "CellIds" && mesh.CellData.Array("CellIds") == nil {
					polydata.AddCellIDScalars(mesh)
				}
				cc := polydata.DefaultColorConfig()
				cc.ScalarMode = mode
				if b.ColorBy != "" {
					cc.ArrayAccessMode = polydata.ArrayByName
					cc.ArrayName = b.ColorBy
				}
				blk.Coloring = &cc
			}
			out = append(out, blk)
		}
	}
	return out, nil
}

func (b BlockData) meshes(dir string) ([]*polydata.Mesh, error) {
	if b.File != "" {
		path := b.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".obj":
			return polydata.LoadOBJ(path)
		case ".gltf", ".glb":
			return polydata.LoadGLTF(path)
		}
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	size := b.Size
	if size <= 0 {
		size = 1
	}
	subdiv := max(b.Subdivisions, 1)
	var m *polydata.Mesh
	switch strings.ToLower(b.Source) {
	case "plane":
		m = polydata.CreatePlane(size, size, subdiv)
	case "cube":
		m = polydata.CreateCube(size)
	case "sphere":
		m = polydata.CreateSphere(size/2, max(subdiv, 16), max(subdiv/2, 8))
	case "grid":
		m = polydata.CreateGrid(size, max(subdiv, 10))
	case "strip":
		m = polydata.CreateStrip(2*subdiv+2, size)
	case "points":
		m = polydata.CreatePointCloud(max(subdiv, 2), size/float32(max(subdiv, 2)))
	default:
		return nil, fmt.Errorf("unknown source %q", b.Source)
	}
	if b.Name != "" {
		m.Name = b.Name
	}
	return []*polydata.Mesh{m}, nil
}

func (b BlockData) attributes() render.BlockAttributes {
	attrs := render.BlockAttributes{
		Visibility:  b.Visible,
		Pickability: b.Pickable,
		Opacity:     b.Opacity,
	}
	if b.Color != nil {
		c := ArrayToColor(*b.Color)
		attrs.Color = &c
	}
	return attrs
}

func translate(m *polydata.Mesh, offset math.Vec3) {
	for i, p := range m.Points.Coords() {
		m.Points.SetPoint(i, p.Add(offset))
	}
}

// Apply configures the renderer camera and background, the actor property
// and the mapper options. The camera is framed separately once the blocks
// are set.
func (f *File) Apply(r *render.Renderer, a *render.Actor) error {
	rd := f.Render
	rep, err := rd.RepresentationValue()
	if err != nil {
		return err
	}
	interp, err := rd.InterpolationValue()
	if err != nil {
		return err
	}
	ss, err := rd.ShiftScaleMethod()
	if err != nil {
		return err
	}

	p := a.Property
	p.SetRepresentation(rep)
	p.SetInterpolation(interp)
	p.SetOpacity(rd.Opacity)
	p.SetColor(ArrayToColor(rd.Color))
	p.SetPointSize(rd.PointSize)
	p.SetLineWidth(rd.LineWidth)
	p.SetEdgeVisibility(rd.EdgeVisibility)
	p.SetVertexVisibility(rd.VertexVisibility)

	m := a.Mapper.Batch
	if m.ScalarRange != rd.ScalarRange {
		m.ScalarRange = rd.ScalarRange
		m.LookupTable = nil
	}
	m.ScalarVisibility = rd.ScalarVisibility
	m.ColorMissingArraysWithNaNColor = rd.NaNColorMissing
	m.ShiftScaleMethod = ss
	m.Modified()

	r.Background = ArrayToColor(rd.Background)
	cam := r.Camera
	cam.FOV = f.Camera.FOV
	cam.SetPosition(mgl32.Vec3(f.Camera.Position))
	cam.SetFocalPoint(mgl32.Vec3(f.Camera.FocalPoint))
	cam.SetClippingRange(f.Camera.Near, f.Camera.Far)
	return nil
}
