package polydata

// ScalarMode selects where coloring scalars are read from.
type ScalarMode int

const (
	// ScalarModeDefault uses point scalars, falling back to cell scalars.
	ScalarModeDefault ScalarMode = iota
	ScalarModeUsePointData
	ScalarModeUseCellData
	ScalarModeUsePointFieldData
	ScalarModeUseCellFieldData
	ScalarModeUseFieldData
)

func (m ScalarMode) String() string {
	switch m {
	case ScalarModeUsePointData:
		return "point"
	case ScalarModeUseCellData:
		return "cell"
	case ScalarModeUsePointFieldData:
		return "point-field"
	case ScalarModeUseCellFieldData:
		return "cell-field"
	case ScalarModeUseFieldData:
		return "field"
	default:
		return "default"
	}
}

// ArrayAccessMode tells whether ColorConfig addresses arrays by index or name.
type ArrayAccessMode int

const (
	ArrayByID ArrayAccessMode = iota
	ArrayByName
)

// ColorConfig is the per-mesh scalar coloring selection. It travels as a
// value into every routine that colors a mesh.
type ColorConfig struct {
	ScalarMode      ScalarMode
	ArrayAccessMode ArrayAccessMode
	ArrayID         int
	ArrayName       string
	// ArrayComponent picks one component; negative means magnitude.
	ArrayComponent int
	// FieldDataTupleID selects one field data tuple to color the whole
	// mesh with; negative means per-cell field data.
	FieldDataTupleID int
}

// DefaultColorConfig returns the configuration that colors by active scalars.
func DefaultColorConfig() ColorConfig {
	return ColorConfig{ArrayComponent: -1, FieldDataTupleID: -1}
}

// Association tells which entities a scalar array is attached to.
type Association int

const (
	AssociationPoints Association = iota
	AssociationCells
	AssociationField
)

// GetScalars selects the coloring array of m according to cfg. It returns
// nil when nothing matches.
func GetScalars(m *Mesh, cfg ColorConfig) (Array, Association) {
	if m == nil {
		return nil, AssociationPoints
	}
	pick := func(a *Attributes) Array {
		if cfg.ArrayAccessMode == ArrayByName {
			return a.Array(cfg.ArrayName)
		}
		return a.ArrayAt(cfg.ArrayID)
	}

	switch cfg.ScalarMode {
	case ScalarModeUsePointData:
		return m.PointData.Scalars(), AssociationPoints
	case ScalarModeUseCellData:
		return m.CellData.Scalars(), AssociationCells
	case ScalarModeUsePointFieldData:
		return pick(m.PointData), AssociationPoints
	case ScalarModeUseCellFieldData:
		return pick(m.CellData), AssociationCells
	case ScalarModeUseFieldData:
		return pick(m.FieldData), AssociationField
	default:
		if s := m.PointData.Scalars(); s != nil {
			return s, AssociationPoints
		}
		return m.CellData.Scalars(), AssociationCells
	}
}
