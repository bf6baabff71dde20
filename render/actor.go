package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"polybatch/base"
	"polybatch/batch"
	"polybatch/selection"
)

// Actor places a composite mapper in the scene with a property and a
// model transform.
type Actor struct {
	Name     string
	Property *Property
	Mapper   *CompositeMapper

	Visibility bool
	Pickable   bool

	position mgl32.Vec3
	scale    mgl32.Vec3
	matrix   mgl32.Mat4

	textureMTime     base.TimeStamp
	forceOpaque      bool
	forceTranslucent bool
	// translucentPass is set by the renderer around each mapper render.
	translucentPass bool
}

func NewActor(name string, mapper *CompositeMapper) *Actor {
	return &Actor{
		Name:       name,
		Property:   NewProperty(),
		Mapper:     mapper,
		Visibility: true,
		Pickable:   true,
		scale:      mgl32.Vec3{1, 1, 1},
		matrix:     mgl32.Ident4(),
	}
}

func (a *Actor) SetPosition(p mgl32.Vec3) {
	a.position = p
	a.updateMatrix()
}

func (a *Actor) SetScale(s mgl32.Vec3) {
	a.scale = s
	a.updateMatrix()
}

func (a *Actor) updateMatrix() {
	a.matrix = mgl32.Translate3D(a.position.X(), a.position.Y(), a.position.Z()).
		Mul4(mgl32.Scale3D(a.scale.X(), a.scale.Y(), a.scale.Z()))
}

func (a *Actor) Matrix() mgl32.Mat4 { return a.matrix }

// TextureModified records that the texture bound to the actor changed, so
// the next render rebuilds texture coordinates.
func (a *Actor) TextureModified() { a.textureMTime.Modified() }
func (a *Actor) TextureMTime() base.TimeStamp { return a.textureMTime }

func (a *Actor) Appearance() batch.Appearance { return a.Property.appearance() }
func (a *Actor) PropertyMTime() base.TimeStamp { return a.Property.MTime() }

// SetForceOpaque draws every block in the opaque pass regardless of opacity.
func (a *Actor) SetForceOpaque(v bool) { a.forceOpaque = v }

// SetForceTranslucent draws every block in the translucent pass.
func (a *Actor) SetForceTranslucent(v bool) { a.forceTranslucent = v }

func (a *Actor) ForceOpaque() bool { return a.forceOpaque }
func (a *Actor) ForceTranslucent() bool { return a.forceTranslucent }

func (a *Actor) IsRenderingTranslucentPolygonalGeometry() bool { return a.translucentPass }

// HasOpaqueGeometry reports whether the opaque pass has anything to draw.
func (a *Actor) HasOpaqueGeometry() bool {
	if a.forceOpaque {
		return true
	}
	if a.forceTranslucent {
		return false
	}
	return a.Mapper != nil && a.Mapper.hasBlocks(func(el *batch.GLBatchElement) bool { return el.IsOpaque })
}

// HasTranslucentPolygonalGeometry reports whether the translucent pass has
// anything to draw.
func (a *Actor) HasTranslucentPolygonalGeometry() bool {
	if a.forceOpaque {
		return false
	}
	if a.forceTranslucent {
		return true
	}
	return a.Mapper != nil && a.Mapper.hasBlocks(func(el *batch.GLBatchElement) bool { return !el.IsOpaque })
}

// ProcessSelectorPixelBuffers hands the picked pixels to the mapper.
func (a *Actor) ProcessSelectorPixelBuffers(sel selection.Selector, pixelOffsets []int) {
	if a.Mapper == nil {
		return
	}
	a.Mapper.Batch.ProcessSelectionPixelBuffers(sel, pixelOffsets, a)
}

func (a *Actor) render(r *Renderer, translucent bool) {
	a.translucentPass = translucent
	a.Mapper.Render(r, a)
	a.translucentPass = false
}
