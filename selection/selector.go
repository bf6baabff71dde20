package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"polybatch/gpu"
)

// ErrEmptyArea is returned when a selection rectangle covers no pixels.
var ErrEmptyArea = errors.New("selection: empty area")

// Selector is what a mapper sees of a running selection.
type Selector interface {
	CurrentPass() Pass
	FieldAssociation() FieldAssociation

	// RawPixelBuffer returns the pixels rendered for p, 3 bytes per pixel,
	// or nil when p was not rendered.
	RawPixelBuffer(p Pass) []uint8
	// PixelBuffer returns the buffer decoders write resolved ids into.
	PixelBuffer(p Pass) []uint8

	HasHighPointIDs() bool
	HasHighCellIDs() bool
	UseProcessIDFromData() bool
	UpdateMaximumPointID(id int)
	UpdateMaximumCellID(id int)

	// PropColorValue is the color the current prop renders with in the
	// actor, process and composite passes.
	PropColorValue() [3]float32
	// RenderCompositeIndex makes PropColorValue encode a flat index.
	RenderCompositeIndex(index uint32)
}

// Prop is something the selector can attribute pixels to.
type Prop interface {
	// ProcessSelectorPixelBuffers decodes the pixels at the given byte
	// offsets, all of which the prop covered in the actor pass.
	ProcessSelectorPixelBuffers(sel Selector, pixelOffsets []int)
}

// Scene renders props for the selector.
type Scene interface {
	// RenderSelection draws every pickable prop for the current pass,
	// calling BeginRenderProp before each one.
	RenderSelection(sel *HardwareSelector) error
}

// HardwareSelector renders the id passes and collects the picked items.
type HardwareSelector struct {
	device gpu.Device

	association   FieldAssociation
	processID     int
	useProcessIDs bool

	pass       Pass
	propColor  [3]float32
	props      []Prop
	propIDs    map[Prop]int
	maxPointID int
	maxCellID  int

	raw     [NumPasses][]uint8
	buffers [NumPasses][]uint8
	width   int
	height  int
}

func NewHardwareSelector(dev gpu.Device) *HardwareSelector {
	return &HardwareSelector{device: dev, processID: -1, propIDs: make(map[Prop]int)}
}

func (s *HardwareSelector) SetFieldAssociation(a FieldAssociation) { s.association = a }
func (s *HardwareSelector) FieldAssociation() FieldAssociation { return s.association }

// SetProcessID sets the id rendered in the process pass; negative disables
// the pass unless ids come from data.
func (s *HardwareSelector) SetProcessID(id int) { s.processID = id }

// SetUseProcessIDFromData makes mappers resolve process ids through a point
// data array.
func (s *HardwareSelector) SetUseProcessIDFromData(v bool) { s.useProcessIDs = v }
func (s *HardwareSelector) UseProcessIDFromData() bool { return s.useProcessIDs }

func (s *HardwareSelector) CurrentPass() Pass { return s.pass }

func (s *HardwareSelector) RawPixelBuffer(p Pass) []uint8 { return s.raw[p] }
func (s *HardwareSelector) PixelBuffer(p Pass) []uint8 { return s.buffers[p] }

func (s *HardwareSelector) HasHighPointIDs() bool { return s.maxPointID > maxID24 }
func (s *HardwareSelector) HasHighCellIDs() bool { return s.maxCellID > maxID24 }

func (s *HardwareSelector) UpdateMaximumPointID(id int) { s.maxPointID = max(s.maxPointID, id) }
func (s *HardwareSelector) UpdateMaximumCellID(id int) { s.maxCellID = max(s.maxCellID, id) }

func (s *HardwareSelector) PropColorValue() [3]float32 { return s.propColor }

func (s *HardwareSelector) RenderCompositeIndex(index uint32) {
	if s.pass == CompositeIndexPass {
		s.propColor = EncodeID24(index)
	}
}

// BeginRenderProp registers p and sets the color it renders with in the
// current pass.
func (s *HardwareSelector) BeginRenderProp(p Prop) {
	id, ok := s.propIDs[p]
	if !ok {
		s.props = append(s.props, p)
		id = len(s.props)
		s.propIDs[p] = id
	}
	switch s.pass {
	case ActorPass:
		s.propColor = EncodeID24(uint32(id))
	case ProcessPass:
		s.propColor = EncodeID24(uint32(s.processID + 1))
	default:
		s.propColor = [3]float32{}
	}
}

func (s *HardwareSelector) passRequired(p Pass) bool {
	switch p {
	case ProcessPass:
		return s.useProcessIDs || s.processID >= 0
	case PointIDLow24:
		return s.association == AssociationPoints
	case PointIDHigh24:
		return s.association == AssociationPoints && s.HasHighPointIDs()
	case CellIDHigh24:
		return s.HasHighCellIDs()
	}
	return true
}

func (s *HardwareSelector) reset() {
	s.props = s.props[:0]
	clear(s.propIDs)
	s.maxPointID, s.maxCellID = 0, 0
	for p := range s.raw {
		s.raw[p] = nil
		s.buffers[p] = nil
	}
}

// Select renders the id passes over the inclusive window rectangle
// (x0, y0)-(x1, y1) and decodes what every prop drew there.
func (s *HardwareSelector) Select(scene Scene, x0, y0, x1, y1 int) (*Result, error) {
	if x1 < x0 || y1 < y0 {
		return nil, ErrEmptyArea
	}
	s.reset()
	s.width, s.height = x1-x0+1, y1-y0+1
	start := time.Now()

	for p := ActorPass; p < NumPasses; p++ {
		if !s.passRequired(p) {
			continue
		}
		s.pass = p
		s.device.Clear([4]float32{0, 0, 0, 0})
		if err := scene.RenderSelection(s); err != nil {
			return nil, fmt.Errorf("selection: render %s pass: %w", p, err)
		}
		rgba, err := s.device.ReadPixels(x0, y0, s.width, s.height)
		if err != nil {
			return nil, fmt.Errorf("selection: read %s pass: %w", p, err)
		}
		s.raw[p] = rgbaToRGB(rgba)
		s.buffers[p] = append([]uint8(nil), s.raw[p]...)
	}

	offsets := s.propPixelOffsets()
	for p := ActorPass; p < NumPasses; p++ {
		if s.raw[p] == nil {
			continue
		}
		s.pass = p
		for i, prop := range s.props {
			if len(offsets[i]) > 0 {
				prop.ProcessSelectorPixelBuffers(s, offsets[i])
			}
		}
	}

	res := s.collect(x0, y0)
	slog.Debug("selection: done",
		"association", s.association.String(),
		"pixels", s.width*s.height,
		"items", len(res.Items),
		"elapsed", time.Since(start))
	return res, nil
}

func (s *HardwareSelector) propPixelOffsets() [][]int {
	offsets := make([][]int, len(s.props))
	actor := s.raw[ActorPass]
	for pos := 0; pos+2 < len(actor); pos += 3 {
		id := int(DecodeID24(actor, pos))
		if id == 0 || id > len(s.props) {
			continue
		}
		offsets[id-1] = append(offsets[id-1], pos)
	}
	return offsets
}
