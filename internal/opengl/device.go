// Package opengl implements gpu.Device on OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"polybatch/gpu"
)

// Options adjusts what the device reports to mappers.
type Options struct {
	// LimitToES reports the capabilities of an OpenGL ES 3.0 context, so
	// mappers take the expanded attribute layout.
	LimitToES bool
}

type vertexBuffer struct {
	id uint32
}

// vertexGroup is a VAO plus the buffers feeding its attributes.
type vertexGroup struct {
	vao     uint32
	buffers map[string]*vertexBuffer
}

type textureBuffer struct {
	buffer  uint32
	texture uint32
}

var _ gpu.Device = (*Device)(nil)

// Device is the OpenGL backend of the batched mapper. It must be created
// and used on the thread that owns the GL context.
type Device struct {
	caps gpu.Capabilities

	groups   map[gpu.BufferGroup]*vertexGroup
	indices  map[gpu.PrimitiveType]uint32
	textures map[string]*textureBuffer
	programs map[gpu.ProgramKey]*Program
	current  *Program

	viewportW int32
	viewportH int32
}

// NewDevice initialises OpenGL.
// Must be called after the GLFW window context is made current.
func NewDevice(opts Options) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	var lineRange [2]float32
	gl.GetFloatv(gl.ALIASED_LINE_WIDTH_RANGE, &lineRange[0])

	caps := gpu.Capabilities{
		TextureBuffers: true,
		MaxLineWidth:   lineRange[1],
		Version:        version,
	}
	if opts.LimitToES || strings.Contains(version, "OpenGL ES") {
		caps.GLES = true
		caps.TextureBuffers = false
		caps.MaxLineWidth = 1
	}
	slog.Info("opengl: device ready",
		"version", version,
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"texture_buffers", caps.TextureBuffers,
		"max_line_width", caps.MaxLineWidth)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)

	return &Device{
		caps:     caps,
		groups:   make(map[gpu.BufferGroup]*vertexGroup),
		indices:  make(map[gpu.PrimitiveType]uint32),
		textures: make(map[string]*textureBuffer),
		programs: make(map[gpu.ProgramKey]*Program),
	}, nil
}

func (d *Device) Capabilities() gpu.Capabilities {
	return d.caps
}

func (d *Device) group(g gpu.BufferGroup) *vertexGroup {
	vg, ok := d.groups[g]
	if !ok {
		vg = &vertexGroup{buffers: make(map[string]*vertexBuffer)}
		gl.GenVertexArrays(1, &vg.vao)
		d.groups[g] = vg
	}
	return vg
}

// upload replaces the named buffer of group g and points its attribute at
// it. Names without a fixed location are kept but never bound.
func (d *Device) upload(g gpu.BufferGroup, name string, size int, ptr unsafe.Pointer, comps int, xtype uint32, normalized bool) {
	vg := d.group(g)
	vb, ok := vg.buffers[name]
	if !ok {
		vb = &vertexBuffer{}
		gl.GenBuffers(1, &vb.id)
		vg.buffers[name] = vb
	}
	gl.BindVertexArray(vg.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.id)
	gl.BufferData(gl.ARRAY_BUFFER, size, ptr, gl.STATIC_DRAW)
	if loc, ok := attribLocations[name]; ok {
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, int32(comps), xtype, normalized, 0, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

func (d *Device) UploadVertexAttribute(g gpu.BufferGroup, name string, data []float32, comps int) {
	if len(data) == 0 {
		return
	}
	d.upload(g, name, 4*len(data), gl.Ptr(data), comps, gl.FLOAT, false)
}

func (d *Device) UploadVertexBytes(g gpu.BufferGroup, name string, data []uint8, comps int) {
	if len(data) == 0 {
		return
	}
	d.upload(g, name, len(data), gl.Ptr(data), comps, gl.UNSIGNED_BYTE, true)
}

func (d *Device) UploadIndices(prim gpu.PrimitiveType, indices []uint32) {
	if len(indices) == 0 {
		return
	}
	ibo, ok := d.indices[prim]
	if !ok {
		gl.GenBuffers(1, &ibo)
		d.indices[prim] = ibo
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 4*len(indices), gl.Ptr(indices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
}

func (d *Device) uploadTexture(name string, size int, ptr unsafe.Pointer, format uint32) {
	if size == 0 {
		return
	}
	tb, ok := d.textures[name]
	if !ok {
		tb = &textureBuffer{}
		gl.GenBuffers(1, &tb.buffer)
		gl.GenTextures(1, &tb.texture)
		d.textures[name] = tb
	}
	gl.BindBuffer(gl.TEXTURE_BUFFER, tb.buffer)
	gl.BufferData(gl.TEXTURE_BUFFER, size, ptr, gl.STATIC_DRAW)
	gl.BindTexture(gl.TEXTURE_BUFFER, tb.texture)
	gl.TexBuffer(gl.TEXTURE_BUFFER, format, tb.buffer)
	gl.BindTexture(gl.TEXTURE_BUFFER, 0)
	gl.BindBuffer(gl.TEXTURE_BUFFER, 0)
}

func (d *Device) UploadTextureBuffer(name string, data []float32, comps int) {
	if len(data) == 0 {
		return
	}
	format := uint32(gl.RGBA32F)
	if comps == 1 {
		format = gl.R32F
	}
	d.uploadTexture(name, 4*len(data), gl.Ptr(data), format)
}

func (d *Device) UploadTextureBufferBytes(name string, data []uint8, comps int) {
	if len(data) == 0 {
		return
	}
	format := uint32(gl.RGBA8)
	if comps == 1 {
		format = gl.R8
	}
	d.uploadTexture(name, len(data), gl.Ptr(data), format)
}

// ClearBuffers deletes every vertex array, index buffer and texture buffer.
// Compiled programs survive.
func (d *Device) ClearBuffers() {
	for g, vg := range d.groups {
		for _, vb := range vg.buffers {
			gl.DeleteBuffers(1, &vb.id)
		}
		gl.DeleteVertexArrays(1, &vg.vao)
		delete(d.groups, g)
	}
	for p, ibo := range d.indices {
		gl.DeleteBuffers(1, &ibo)
		delete(d.indices, p)
	}
	for name, tb := range d.textures {
		gl.DeleteTextures(1, &tb.texture)
		gl.DeleteBuffers(1, &tb.buffer)
		delete(d.textures, name)
	}
}

func (d *Device) Program(key gpu.ProgramKey) (gpu.Program, error) {
	p, ok := d.programs[key]
	if !ok {
		id, err := newProgram(shaderSource(vertSrc, key), shaderSource(fragSrc, key))
		if err != nil {
			return nil, fmt.Errorf("%w: %v: %w", gpu.ErrProgram, key.Prim, err)
		}
		p = &Program{id: id, locations: make(map[string]int32)}
		d.programs[key] = p
		gl.UseProgram(id)
		for name, unit := range textureUnits {
			if loc := p.location(name); loc >= 0 {
				gl.Uniform1i(loc, unit)
			}
		}
		slog.Debug("opengl: program compiled", "prim", key.Prim.String(), "picking", key.Picking, "expanded", key.Expanded)
	}
	gl.UseProgram(p.id)
	d.current = p
	return p, nil
}

func (d *Device) bindTextures() {
	for name, unit := range textureUnits {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		if tb, ok := d.textures[name]; ok {
			gl.BindTexture(gl.TEXTURE_BUFFER, tb.texture)
		} else {
			gl.BindTexture(gl.TEXTURE_BUFFER, 0)
		}
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

func glMode(mode gpu.Topology) uint32 {
	switch mode {
	case gpu.TopologyPoints:
		return gl.POINTS
	case gpu.TopologyLines:
		return gl.LINES
	case gpu.TopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

func (d *Device) DrawRangeElements(mode gpu.Topology, prim gpu.PrimitiveType, start, end, count, firstIndex int) {
	vg, ok := d.groups[gpu.SharedGroup]
	ibo, hasIndices := d.indices[prim]
	if !ok || !hasIndices || count == 0 {
		return
	}
	d.bindTextures()
	gl.BindVertexArray(vg.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibo)
	gl.DrawRangeElements(glMode(mode), uint32(start), uint32(end), int32(count), gl.UNSIGNED_INT, gl.PtrOffset(4*firstIndex))
	gl.BindVertexArray(0)
}

func (d *Device) setDrawUniforms(mode gpu.Topology, instances int) {
	if d.current == nil {
		return
	}
	vpp := int32(3)
	switch mode {
	case gpu.TopologyPoints:
		vpp = 1
	case gpu.TopologyLines:
		vpp = 2
	}
	d.current.SetUniformi("vertsPerPrimitive", vpp)
	d.current.SetUniformi("lineInstances", int32(instances))
	if d.viewportW > 0 && d.viewportH > 0 {
		d.current.setUniform2f("lineWidthNVC", 2/float32(d.viewportW), 2/float32(d.viewportH))
	}
}

func (d *Device) DrawArrays(mode gpu.Topology, g gpu.BufferGroup, first, count int) {
	vg, ok := d.groups[g]
	if !ok || count == 0 {
		return
	}
	d.setDrawUniforms(mode, 1)
	gl.BindVertexArray(vg.vao)
	gl.DrawArrays(glMode(mode), int32(first), int32(count))
	gl.BindVertexArray(0)
}

func (d *Device) DrawArraysInstanced(mode gpu.Topology, g gpu.BufferGroup, first, count, instances int) {
	vg, ok := d.groups[g]
	if !ok || count == 0 {
		return
	}
	d.setDrawUniforms(mode, instances)
	gl.BindVertexArray(vg.vao)
	gl.DrawArraysInstanced(glMode(mode), int32(first), int32(count), int32(instances))
	gl.BindVertexArray(0)
}

func (d *Device) SetPointSize(size float32) {
	gl.PointSize(max(size, 1))
}

// SetLineWidth clamps to the supported range; wider lines are the
// caller's business.
func (d *Device) SetLineWidth(width float32) {
	gl.LineWidth(min(max(width, 1), max(d.caps.MaxLineWidth, 1)))
}

func (d *Device) Viewport(x, y, width, height int) {
	d.viewportW, d.viewportH = int32(width), int32(height)
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) Clear(color [4]float32) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) ReadPixels(x, y, width, height int) ([]uint8, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("opengl: read %dx%d pixels", width, height)
	}
	pixels := make([]uint8, 4*width*height)
	gl.Finish()
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("opengl: read pixels: error 0x%x", code)
	}
	return pixels, nil
}

// Destroy releases every GL object the device created.
func (d *Device) Destroy() {
	d.ClearBuffers()
	for key, p := range d.programs {
		gl.DeleteProgram(p.id)
		delete(d.programs, key)
	}
	d.current = nil
}

// Program is a linked shader program with cached uniform locations.
type Program struct {
	id        uint32
	locations map[string]int32
}

func (p *Program) location(name string) int32 {
	loc, ok := p.locations[name]
	if !ok {
		loc = gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
		p.locations[name] = loc
	}
	return loc
}

// IsUniformUsed reports whether the linker kept the uniform.
func (p *Program) IsUniformUsed(name string) bool {
	return p.location(name) >= 0
}

func (p *Program) SetUniformi(name string, v int32) {
	if loc := p.location(name); loc >= 0 {
		gl.Uniform1i(loc, v)
	}
}

func (p *Program) SetUniformf(name string, v float32) {
	if loc := p.location(name); loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}

func (p *Program) setUniform2f(name string, x, y float32) {
	if loc := p.location(name); loc >= 0 {
		gl.Uniform2f(loc, x, y)
	}
}

func (p *Program) SetUniform3f(name string, v [3]float32) {
	if loc := p.location(name); loc >= 0 {
		gl.Uniform3fv(loc, 1, &v[0])
	}
}

func (p *Program) SetUniform4f(name string, v [4]float32) {
	if loc := p.location(name); loc >= 0 {
		gl.Uniform4fv(loc, 1, &v[0])
	}
}

func (p *Program) SetUniformMatrix4(name string, m mgl32.Mat4) {
	if loc := p.location(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	for name, loc := range attribLocations {
		gl.BindAttribLocation(prog, loc, gl.Str(name+"\x00"))
	}
	gl.BindFragDataLocation(prog, 0, gl.Str("fragOutput\x00"))
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
