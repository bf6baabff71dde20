// Package gpu describes the graphics device the batched mapper draws with,
// and holds the CPU side staging it uploads from: index builders, vertex
// buffer groups and coordinate shift/scale.
package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"polybatch/cellmap"
)

// ErrProgram is wrapped by every shader compile or link failure.
var ErrProgram = errors.New("gpu: shader program")

// Topology is the primitive topology of a draw call.
type Topology int

const (
	TopologyPoints Topology = iota
	TopologyLines
	TopologyTriangles
	TopologyTriangleStrip
)

func (t Topology) String() string {
	return [...]string{"points", "lines", "triangles", "triangle-strip"}[t]
}

// PrimitiveType indexes the index buffers of a batch.
type PrimitiveType int

const (
	PrimitivePoints PrimitiveType = iota
	PrimitiveLines
	PrimitiveTris
	PrimitiveTriStrips
	// PrimitiveVertices draws the points of every cell when vertex
	// visibility is on.
	PrimitiveVertices
	NumPrimitiveTypes
)

// NumCellPrimitives is the count of primitive types that come from cells;
// picking only draws those.
const NumCellPrimitives = int(PrimitiveTriStrips) + 1

func (p PrimitiveType) String() string {
	if p > NumPrimitiveTypes {
		return "selection-" + (p - NumPrimitiveTypes - 1).String()
	}
	return [...]string{"points", "lines", "tris", "tristrips", "vertices", "invalid"}[p]
}

// SelectionPrimitive returns the index buffer slot holding the highlighted
// primitives of cell primitive type p.
func SelectionPrimitive(p PrimitiveType) PrimitiveType {
	return NumPrimitiveTypes + 1 + p
}

// Mode returns the topology used to draw primitive type p under rep.
func Mode(rep cellmap.Representation, p PrimitiveType) Topology {
	if rep == cellmap.Points || p == PrimitivePoints || p == PrimitiveVertices {
		return TopologyPoints
	}
	if rep == cellmap.Wireframe || p == PrimitiveLines {
		return TopologyLines
	}
	return TopologyTriangles
}

// PointPickingPrimitiveSize is the number of vertices per primitive that
// point picking renders for primitive type p.
func PointPickingPrimitiveSize(p PrimitiveType) int {
	switch p {
	case PrimitivePoints:
		return 2
	case PrimitiveLines:
		return 4
	default:
		return 6
	}
}

// BufferGroup names a set of vertex buffers. The indexed path shares one
// group across all primitive types; the expanded path keeps one per type.
type BufferGroup int

const SharedGroup BufferGroup = -1

// GroupFor returns the per primitive type group of the expanded path.
func GroupFor(p PrimitiveType) BufferGroup {
	return BufferGroup(p)
}

// Capabilities reports what the device supports.
type Capabilities struct {
	// TextureBuffers allows per-cell attributes to be looked up in the
	// fragment shader by primitive id.
	TextureBuffers bool
	GLES           bool
	MaxLineWidth   float32
	Version        string
}

// ProgramKey selects one shader variant.
type ProgramKey struct {
	Prim         PrimitiveType
	Picking      bool
	PointPicking bool
	CellScalars  bool
	CellNormals  bool
	// Expanded selects the variant that reads cell attributes and vertex
	// ids from vertex attributes instead of texture buffers.
	Expanded bool
}

// Program is a bound shader program.
type Program interface {
	IsUniformUsed(name string) bool
	SetUniformi(name string, v int32)
	SetUniformf(name string, v float32)
	SetUniform3f(name string, v [3]float32)
	SetUniform4f(name string, v [4]float32)
	SetUniformMatrix4(name string, m mgl32.Mat4)
}

// Device uploads buffers and issues draws. Implementations are not safe
// for concurrent use; every call happens on the thread owning the context.
type Device interface {
	Capabilities() Capabilities

	UploadVertexAttribute(group BufferGroup, name string, data []float32, comps int)
	// UploadVertexBytes uploads normalized unsigned byte attributes.
	UploadVertexBytes(group BufferGroup, name string, data []uint8, comps int)
	UploadIndices(prim PrimitiveType, indices []uint32)
	UploadTextureBuffer(name string, data []float32, comps int)
	UploadTextureBufferBytes(name string, data []uint8, comps int)
	// ClearBuffers releases every vertex, index and texture buffer.
	ClearBuffers()

	// Program compiles on first use, binds and returns the variant for key.
	Program(key ProgramKey) (Program, error)

	// DrawRangeElements draws count indices of prim's index buffer starting
	// at firstIndex, all referencing vertices in [start, end].
	DrawRangeElements(mode Topology, prim PrimitiveType, start, end, count, firstIndex int)
	DrawArrays(mode Topology, group BufferGroup, first, count int)
	DrawArraysInstanced(mode Topology, group BufferGroup, first, count, instances int)

	SetPointSize(size float32)
	SetLineWidth(width float32)
	Viewport(x, y, width, height int)
	Clear(color [4]float32)
	// ReadPixels returns RGBA bytes of the region, bottom row first.
	ReadPixels(x, y, width, height int) ([]uint8, error)
}
