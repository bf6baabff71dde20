package render

import (
	"log/slog"

	"polybatch/base"
	"polybatch/batch"
	"polybatch/polydata"
)

// BlockAttributes overrides the actor property for one block. Nil fields
// inherit.
type BlockAttributes struct {
	Visibility  *bool
	Pickability *bool
	Opacity     *float32
	Color       *base.Color
}

// Block is one leaf of a composite dataset.
type Block struct {
	Name       string
	Mesh       *polydata.Mesh
	Attributes BlockAttributes
	// Coloring selects the scalars the block is colored by; nil uses the
	// active scalars.
	Coloring *polydata.ColorConfig
}

// CompositeMapper renders the leaves of a composite dataset as one batch.
// Block i has flat index i+1; flat index 0 is the background in the
// picking buffers.
type CompositeMapper struct {
	Batch *batch.Mapper

	blocks     []Block
	attributes map[uint32]BlockAttributes
}

func NewCompositeMapper() *CompositeMapper {
	return &CompositeMapper{
		Batch:      batch.NewMapper(),
		attributes: make(map[uint32]BlockAttributes),
	}
}

// FlatIndex returns the flat index of block i.
func FlatIndex(i int) uint32 {
	return uint32(i + 1)
}

// SetBlocks replaces the dataset. Meshes already in the batch keep their
// buffers' element state; meshes no longer present are dropped. Attribute
// overrides are replaced by the ones carried in blocks.
func (m *CompositeMapper) SetBlocks(blocks []Block) {
	m.blocks = append(m.blocks[:0], blocks...)
	clear(m.attributes)

	m.Batch.UnmarkAll()
	for i, b := range blocks {
		if b.Attributes != (BlockAttributes{}) {
			m.attributes[FlatIndex(i)] = b.Attributes
		}
		if b.Mesh == nil {
			continue
		}
		el := batch.NewBatchElement(b.Mesh)
		if b.Coloring != nil {
			el.Color = *b.Coloring
		}
		m.Batch.AddOrUpdate(FlatIndex(i), el)
		// AddOrUpdate keeps the stored element of a known mesh
		if stored := m.Batch.Element(b.Mesh); stored.Color != el.Color {
			stored.Color = el.Color
			m.Batch.Modified()
		}
	}
	m.Batch.PruneUnmarked()
	slog.Debug("render: composite blocks set", "blocks", len(blocks), "batched", m.Batch.Len())
}

func (m *CompositeMapper) Blocks() []Block {
	return m.blocks
}

// Block returns the block with flat index flat.
func (m *CompositeMapper) Block(flat uint32) (Block, bool) {
	if flat == 0 || int(flat) > len(m.blocks) {
		return Block{}, false
	}
	return m.blocks[flat-1], true
}

func (m *CompositeMapper) update(flat uint32, fn func(*BlockAttributes)) {
	attrs := m.attributes[flat]
	fn(&attrs)
	m.attributes[flat] = attrs
}

func (m *CompositeMapper) SetBlockVisibility(flat uint32, v bool) {
	m.update(flat, func(a *BlockAttributes) { a.Visibility = &v })
}

func (m *CompositeMapper) SetBlockPickability(flat uint32, v bool) {
	m.update(flat, func(a *BlockAttributes) { a.Pickability = &v })
}

func (m *CompositeMapper) SetBlockOpacity(flat uint32, o float32) {
	m.update(flat, func(a *BlockAttributes) { a.Opacity = &o })
}

func (m *CompositeMapper) SetBlockColor(flat uint32, c base.Color) {
	m.update(flat, func(a *BlockAttributes) { a.Color = &c })
}

// RemoveBlockAttributes makes block flat inherit everything again.
func (m *CompositeMapper) RemoveBlockAttributes(flat uint32) {
	delete(m.attributes, flat)
}

// applyAttributes resolves each element's attributes from the property and
// the block overrides.
func (m *CompositeMapper) applyAttributes(p *Property) {
	for _, el := range m.Batch.Elements() {
		el.Visibility = true
		el.Pickability = true
		el.Opacity = p.Opacity()
		el.AmbientColor = p.AmbientColor()
		el.DiffuseColor = p.DiffuseColor()
		el.OverridesColor = false

		attrs := m.attributes[el.FlatIndex]
		if attrs.Visibility != nil {
			el.Visibility = *attrs.Visibility
		}
		if attrs.Pickability != nil {
			el.Pickability = *attrs.Pickability
		}
		if attrs.Opacity != nil {
			el.Opacity = *attrs.Opacity
		}
		if attrs.Color != nil {
			el.AmbientColor, el.DiffuseColor = *attrs.Color, *attrs.Color
			el.OverridesColor = true
		}
		el.IsOpaque = el.Opacity >= 1
	}
}

func (m *CompositeMapper) hasBlocks(pred func(*batch.GLBatchElement) bool) bool {
	for _, el := range m.Batch.Elements() {
		if el.Visibility && pred(el) {
			return true
		}
	}
	return false
}

// Render draws the blocks of a for the renderer's current pass.
func (m *CompositeMapper) Render(r *Renderer, a *Actor) {
	m.applyAttributes(a.Property)
	m.Batch.RenderPiece(r, a)
}
