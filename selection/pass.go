// Package selection implements hardware picking: the scene is rendered once
// per pass with ids encoded as colors, the pixels are read back and every
// prop decodes the ids it drew.
package selection

// Pass is one id rendering pass. Passes are decoded in declaration order.
type Pass int

const (
	// ActorPass renders prop ids.
	ActorPass Pass = iota
	ProcessPass
	PointIDLow24
	PointIDHigh24
	// CompositeIndexPass renders the flat index of every block.
	CompositeIndexPass
	CellIDLow24
	CellIDHigh24
	NumPasses
)

func (p Pass) String() string {
	switch p {
	case ActorPass:
		return "actor"
	case ProcessPass:
		return "process"
	case PointIDLow24:
		return "point-low24"
	case PointIDHigh24:
		return "point-high24"
	case CompositeIndexPass:
		return "composite"
	case CellIDLow24:
		return "cell-low24"
	case CellIDHigh24:
		return "cell-high24"
	}
	return "unknown"
}

// FieldAssociation selects whether a pick reports cells or points.
type FieldAssociation int

const (
	AssociationCells FieldAssociation = iota
	AssociationPoints
)

func (a FieldAssociation) String() string {
	if a == AssociationPoints {
		return "points"
	}
	return "cells"
}
