// Package render drives batched composite mappers: actors with properties,
// a camera, opaque and translucent passes, and hardware picking.
package render

import (
	"errors"
	"fmt"
	"slices"

	"polybatch/base"
	"polybatch/batch"
	"polybatch/gpu"
	"polybatch/math"
	"polybatch/selection"
)

// ErrNoCamera is returned when rendering without a camera.
var ErrNoCamera = errors.New("render: no camera")

// Renderer draws actors through a device. It implements batch.Renderer for
// the mappers and selection.Scene for the hardware selector.
type Renderer struct {
	Camera     *Camera
	Background base.Color
	// AbortCheck, when set, is polled by mappers before drawing.
	AbortCheck func() bool

	device   gpu.Device
	actors   []*Actor
	selector *selection.HardwareSelector
	picker   *selection.HardwareSelector
	width    int
	height   int
}

func NewRenderer(dev gpu.Device, width, height int) *Renderer {
	r := &Renderer{
		Camera:     NewCamera(30, 1, 0.1, 1000),
		Background: base.Color{R: 0.1, G: 0.1, B: 0.15},
		device:     dev,
	}
	r.SetSize(width, height)
	return r
}

// SetSize resizes the viewport and the camera aspect ratio.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	r.device.Viewport(0, 0, width, height)
	r.Camera.UpdateAspectRatio(float32(width), float32(height))
}

func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

func (r *Renderer) AddActor(a *Actor) {
	if !slices.Contains(r.actors, a) {
		r.actors = append(r.actors, a)
	}
}

func (r *Renderer) RemoveActor(a *Actor) {
	r.actors = slices.DeleteFunc(r.actors, func(x *Actor) bool { return x == a })
}

func (r *Renderer) Actors() []*Actor {
	return r.actors
}

func (r *Renderer) Device() gpu.Device {
	return r.device
}

// Selector returns the running hardware selector, or nil outside picking.
func (r *Renderer) Selector() selection.Selector {
	if r.selector == nil {
		return nil
	}
	return r.selector
}

func (r *Renderer) CheckAbort() bool {
	return r.AbortCheck != nil && r.AbortCheck()
}

func (r *Renderer) View() batch.View {
	return batch.View{
		ViewProjection: r.Camera.GetViewProjectionMatrix(),
		Position:       r.Camera.Position,
		FocalPoint:     r.Camera.FocalPoint,
		Near:           r.Camera.NearPlane,
	}
}

// Bounds is the union of the bounds of every visible actor's meshes.
func (r *Renderer) Bounds() math.AABB {
	b := math.EmptyAABB()
	for _, a := range r.actors {
		if !a.Visibility || a.Mapper == nil {
			continue
		}
		for _, mesh := range a.Mapper.Batch.RenderedMeshes() {
			b = b.Union(mesh.Points.Bounds())
		}
	}
	return b
}

// ResetCamera frames every visible actor.
func (r *Renderer) ResetCamera() {
	r.Camera.ResetCamera(r.Bounds())
}

func (r *Renderer) prepared() []*Actor {
	var out []*Actor
	for _, a := range r.actors {
		if !a.Visibility || a.Mapper == nil {
			continue
		}
		a.Mapper.applyAttributes(a.Property)
		out = append(out, a)
	}
	return out
}

// Render clears the frame and draws every visible actor, opaque geometry
// first and translucent geometry after it.
func (r *Renderer) Render() error {
	if r.Camera == nil {
		return ErrNoCamera
	}
	bg := r.Background
	r.device.Clear([4]float32{bg.R, bg.G, bg.B, 1})

	actors := r.prepared()
	for _, a := range actors {
		if a.HasOpaqueGeometry() {
			a.render(r, false)
		}
	}
	for _, a := range actors {
		if a.HasTranslucentPolygonalGeometry() {
			a.render(r, true)
		}
	}
	return nil
}

// RenderSelection draws every visible pickable actor for the selector's
// current pass.
func (r *Renderer) RenderSelection(sel *selection.HardwareSelector) error {
	if r.Camera == nil {
		return ErrNoCamera
	}
	r.selector = sel
	defer func() { r.selector = nil }()

	for _, a := range r.prepared() {
		if !a.Pickable {
			continue
		}
		sel.BeginRenderProp(a)
		a.render(r, false)
	}
	return nil
}

func (r *Renderer) hardwareSelector() *selection.HardwareSelector {
	if r.picker == nil {
		r.picker = selection.NewHardwareSelector(r.device)
	}
	return r.picker
}

// PickArea selects what is drawn in the inclusive pixel rectangle, with the
// origin at the bottom left of the viewport.
func (r *Renderer) PickArea(assoc selection.FieldAssociation, x0, y0, x1, y1 int) (*selection.Result, error) {
	sel := r.hardwareSelector()
	sel.SetFieldAssociation(assoc)
	res, err := sel.Select(r, x0, y0, x1, y1)
	if err != nil {
		return nil, fmt.Errorf("pick: %w", err)
	}
	return res, nil
}

// Pick selects the cell drawn at one pixel.
func (r *Renderer) Pick(x, y int) (*selection.Result, error) {
	return r.PickArea(selection.AssociationCells, x, y, x, y)
}

// PickPoint selects the point drawn at one pixel.
func (r *Renderer) PickPoint(x, y int) (*selection.Result, error) {
	return r.PickArea(selection.AssociationPoints, x, y, x, y)
}
