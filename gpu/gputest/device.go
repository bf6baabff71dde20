// Package gputest provides a recording gpu.Device for tests that run
// without a graphics context.
package gputest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"polybatch/gpu"
)

// Draw is one recorded draw call.
type Draw struct {
	Indexed   bool
	Mode      gpu.Topology
	Prim      gpu.PrimitiveType
	Group     gpu.BufferGroup
	Start     int // first vertex (indexed) or first array element
	End       int
	Count     int
	First     int // first index of an indexed draw
	Instances int
	Program   *Program
	// Uniforms is a snapshot of the program uniforms at draw time.
	Uniforms map[string]any
}

// Attribute is one uploaded vertex array.
type Attribute struct {
	Floats []float32
	Bytes  []uint8
	Comps  int
}

// Device records uploads and draws.
type Device struct {
	Caps gpu.Capabilities

	Attributes     map[gpu.BufferGroup]map[string]Attribute
	Indices        map[gpu.PrimitiveType][]uint32
	TextureBuffers map[string]Attribute
	Programs       map[gpu.ProgramKey]*Program
	Draws          []Draw
	Clears         int
	PointSize      float32
	LineWidth      float32

	// Pixels is returned by ReadPixels; PixelsFn wins when set.
	Pixels   []uint8
	PixelsFn func(x, y, w, h int) []uint8
	// ProgramErr makes Program fail.
	ProgramErr error

	current *Program
}

func NewDevice(caps gpu.Capabilities) *Device {
	d := &Device{Caps: caps, Programs: make(map[gpu.ProgramKey]*Program)}
	d.ClearBuffers()
	d.Clears = 0
	return d
}

// Full returns a device with texture buffer support.
func Full() *Device {
	return NewDevice(gpu.Capabilities{TextureBuffers: true, MaxLineWidth: 10, Version: "4.1 fake"})
}

// ES returns a device limited like OpenGL ES 3.0.
func ES() *Device {
	return NewDevice(gpu.Capabilities{GLES: true, MaxLineWidth: 1, Version: "ES 3.0 fake"})
}

func (d *Device) Capabilities() gpu.Capabilities { return d.Caps }

func (d *Device) UploadVertexAttribute(group gpu.BufferGroup, name string, data []float32, comps int) {
	d.group(group)[name] = Attribute{Floats: append([]float32(nil), data...), Comps: comps}
}

func (d *Device) UploadVertexBytes(group gpu.BufferGroup, name string, data []uint8, comps int) {
	d.group(group)[name] = Attribute{Bytes: append([]uint8(nil), data...), Comps: comps}
}

func (d *Device) group(g gpu.BufferGroup) map[string]Attribute {
	m, ok := d.Attributes[g]
	if !ok {
		m = make(map[string]Attribute)
		d.Attributes[g] = m
	}
	return m
}

func (d *Device) UploadIndices(prim gpu.PrimitiveType, indices []uint32) {
	d.Indices[prim] = append([]uint32(nil), indices...)
}

func (d *Device) UploadTextureBuffer(name string, data []float32, comps int) {
	d.TextureBuffers[name] = Attribute{Floats: append([]float32(nil), data...), Comps: comps}
}

func (d *Device) UploadTextureBufferBytes(name string, data []uint8, comps int) {
	d.TextureBuffers[name] = Attribute{Bytes: append([]uint8(nil), data...), Comps: comps}
}

func (d *Device) ClearBuffers() {
	d.Attributes = make(map[gpu.BufferGroup]map[string]Attribute)
	d.Indices = make(map[gpu.PrimitiveType][]uint32)
	d.TextureBuffers = make(map[string]Attribute)
	d.Clears++
}

func (d *Device) Program(key gpu.ProgramKey) (gpu.Program, error) {
	if d.ProgramErr != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrProgram, d.ProgramErr)
	}
	p, ok := d.Programs[key]
	if !ok {
		p = &Program{Key: key, Uniforms: make(map[string]any)}
		d.Programs[key] = p
	}
	d.current = p
	return p, nil
}

func (d *Device) DrawRangeElements(mode gpu.Topology, prim gpu.PrimitiveType, start, end, count, firstIndex int) {
	d.record(Draw{Indexed: true, Mode: mode, Prim: prim, Group: gpu.SharedGroup, Start: start, End: end, Count: count, First: firstIndex})
}

func (d *Device) DrawArrays(mode gpu.Topology, group gpu.BufferGroup, first, count int) {
	d.record(Draw{Mode: mode, Prim: gpu.PrimitiveType(group), Group: group, Start: first, Count: count})
}

func (d *Device) DrawArraysInstanced(mode gpu.Topology, group gpu.BufferGroup, first, count, instances int) {
	d.record(Draw{Mode: mode, Prim: gpu.PrimitiveType(group), Group: group, Start: first, Count: count, Instances: instances})
}

func (d *Device) record(dr Draw) {
	dr.Program = d.current
	if d.current != nil {
		dr.Uniforms = make(map[string]any, len(d.current.Uniforms))
		for k, v := range d.current.Uniforms {
			dr.Uniforms[k] = v
		}
	}
	d.Draws = append(d.Draws, dr)
}

// DrawsFor returns the recorded draws of one primitive type.
func (d *Device) DrawsFor(prim gpu.PrimitiveType) []Draw {
	var out []Draw
	for _, dr := range d.Draws {
		if dr.Prim == prim {
			out = append(out, dr)
		}
	}
	return out
}

// Reset forgets recorded draws.
func (d *Device) Reset() {
	d.Draws = nil
}

func (d *Device) SetPointSize(size float32) { d.PointSize = size }
func (d *Device) SetLineWidth(width float32) { d.LineWidth = width }
func (d *Device) Viewport(x, y, width, height int) {}
func (d *Device) Clear(color [4]float32) {}

func (d *Device) ReadPixels(x, y, w, h int) ([]uint8, error) {
	if d.PixelsFn != nil {
		return d.PixelsFn(x, y, w, h), nil
	}
	if len(d.Pixels) < 4*w*h {
		return nil, fmt.Errorf("gputest: %d pixel bytes for a %dx%d read", len(d.Pixels), w, h)
	}
	return d.Pixels[:4*w*h], nil
}

// Program records uniform values. Every uniform counts as used unless
// listed in Unused.
type Program struct {
	Key      gpu.ProgramKey
	Uniforms map[string]any
	Unused   map[string]bool
}

func (p *Program) IsUniformUsed(name string) bool { return !p.Unused[name] }

func (p *Program) SetUniformi(name string, v int32) { p.Uniforms[name] = v }
func (p *Program) SetUniformf(name string, v float32) { p.Uniforms[name] = v }
func (p *Program) SetUniform3f(name string, v [3]float32) { p.Uniforms[name] = v }
func (p *Program) SetUniform4f(name string, v [4]float32) { p.Uniforms[name] = v }
func (p *Program) SetUniformMatrix4(name string, m mgl32.Mat4) { p.Uniforms[name] = m }
