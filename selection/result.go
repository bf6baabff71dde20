package selection

// Item is one distinct thing hit by a selection.
type Item struct {
	Prop Prop
	// FlatIndex is the composite block the pixels belong to; 0 when the
	// prop is not a composite.
	FlatIndex uint32
	// ID is a cell or point id depending on the result association.
	ID        int64
	ProcessID int
	// Pixels counts the covered pixels; X and Y locate the first one.
	Pixels int
	X, Y   int
}

// Result lists the picked items in order of first appearance, scanning
// rows bottom up.
type Result struct {
	Association FieldAssociation
	Items       []Item
}

// Closest returns the item covering the most pixels.
func (r *Result) Closest() (Item, bool) {
	if r == nil || len(r.Items) == 0 {
		return Item{}, false
	}
	best := r.Items[0]
	for _, it := range r.Items[1:] {
		if it.Pixels > best.Pixels {
			best = it
		}
	}
	return best, true
}

// ItemsFor returns the items of one prop.
func (r *Result) ItemsFor(p Prop) []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Prop == p {
			out = append(out, it)
		}
	}
	return out
}

type itemKey struct {
	prop    int
	flat    uint32
	id      int64
	process int
}

func (s *HardwareSelector) value(p Pass, pos int) (uint32, bool) {
	buf := s.buffers[p]
	if buf == nil {
		return 0, false
	}
	return DecodeID24(buf, pos), true
}

func (s *HardwareSelector) collect(x0, y0 int) *Result {
	res := &Result{Association: s.association}
	index := make(map[itemKey]int)
	actor := s.raw[ActorPass]
	lowPass, highPass := CellIDLow24, CellIDHigh24
	if s.association == AssociationPoints {
		lowPass, highPass = PointIDLow24, PointIDHigh24
	}
	for pos := 0; pos+2 < len(actor); pos += 3 {
		propID := int(DecodeID24(actor, pos))
		if propID == 0 || propID > len(s.props) {
			continue
		}
		key := itemKey{prop: propID, process: -1}
		key.flat, _ = s.value(CompositeIndexPass, pos)
		low, _ := s.value(lowPass, pos)
		high, _ := s.value(highPass, pos)
		key.id = int64(Combine48(low, high))
		if v, ok := s.value(ProcessPass, pos); ok {
			key.process = int(v) - 1
		}
		if i, ok := index[key]; ok {
			res.Items[i].Pixels++
			continue
		}
		pixel := pos / 3
		index[key] = len(res.Items)
		res.Items = append(res.Items, Item{
			Prop:      s.props[propID-1],
			FlatIndex: key.flat,
			ID:        key.id,
			ProcessID: key.process,
			Pixels:    1,
			X:         x0 + pixel%s.width,
			Y:         y0 + pixel/s.width,
		})
	}
	return res
}
