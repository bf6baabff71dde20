package render

import (
	"polybatch/base"
	"polybatch/batch"
	"polybatch/cellmap"
)

// Property is the surface appearance shared by every block of an actor.
// Setters stamp the modification time the mapper compares against.
type Property struct {
	representation   cellmap.Representation
	interpolation    batch.Interpolation
	opacity          float32
	ambientColor     base.Color
	diffuseColor     base.Color
	edgeColor        base.Color
	vertexColor      base.Color
	pointSize        float32
	lineWidth        float32
	edgeVisibility   bool
	vertexVisibility bool

	mtime base.TimeStamp
}

func NewProperty() *Property {
	p := &Property{
		representation: cellmap.Surface,
		interpolation:  batch.InterpolationGouraud,
		opacity:        1,
		ambientColor:   base.ColorWhite,
		diffuseColor:   base.ColorWhite,
		edgeColor:      base.ColorBlack,
		vertexColor:    base.ColorWhite,
		pointSize:      1,
		lineWidth:      1,
	}
	p.mtime.Modified()
	return p
}

func (p *Property) Modified() { p.mtime.Modified() }
func (p *Property) MTime() base.TimeStamp { return p.mtime }

func (p *Property) SetRepresentation(r cellmap.Representation) {
	p.representation = r
	p.Modified()
}

func (p *Property) Representation() cellmap.Representation { return p.representation }

func (p *Property) SetInterpolation(i batch.Interpolation) {
	p.interpolation = i
	p.Modified()
}

// SetOpacity clamps to [0, 1].
func (p *Property) SetOpacity(o float32) {
	p.opacity = min(max(o, 0), 1)
	p.Modified()
}

func (p *Property) Opacity() float32 { return p.opacity }

// SetColor sets the ambient and diffuse colors together.
func (p *Property) SetColor(c base.Color) {
	p.ambientColor, p.diffuseColor = c, c
	p.Modified()
}

func (p *Property) SetAmbientColor(c base.Color) {
	p.ambientColor = c
	p.Modified()
}

func (p *Property) SetDiffuseColor(c base.Color) {
	p.diffuseColor = c
	p.Modified()
}

func (p *Property) AmbientColor() base.Color { return p.ambientColor }
func (p *Property) DiffuseColor() base.Color { return p.diffuseColor }

func (p *Property) SetEdgeColor(c base.Color) {
	p.edgeColor = c
	p.Modified()
}

func (p *Property) SetVertexColor(c base.Color) {
	p.vertexColor = c
	p.Modified()
}

func (p *Property) SetPointSize(s float32) {
	p.pointSize = s
	p.Modified()
}

func (p *Property) SetLineWidth(w float32) {
	p.lineWidth = w
	p.Modified()
}

// SetEdgeVisibility draws polygon edges over the surface representation.
func (p *Property) SetEdgeVisibility(v bool) {
	p.edgeVisibility = v
	p.Modified()
}

// SetVertexVisibility draws the points of every cell.
func (p *Property) SetVertexVisibility(v bool) {
	p.vertexVisibility = v
	p.Modified()
}

func (p *Property) appearance() batch.Appearance {
	return batch.Appearance{
		Representation:   p.representation,
		Interpolation:    p.interpolation,
		PointSize:        p.pointSize,
		LineWidth:        p.lineWidth,
		EdgeVisibility:   p.edgeVisibility,
		VertexVisibility: p.vertexVisibility,
		EdgeColor:        p.edgeColor,
		VertexColor:      p.vertexColor,
	}
}
