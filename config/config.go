// Package config reads and writes polyview scene files: window settings,
// camera, render options and the composite blocks to batch.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"polybatch/base"
	"polybatch/batch"
	"polybatch/cellmap"
	"polybatch/gpu"
	"polybatch/math"
	"polybatch/polydata"
)

// ErrNoBlocks is returned for a scene without blocks.
var ErrNoBlocks = errors.New("config: no blocks")

// File is the top-level structure of a scene file.
type File struct {
	Version string      `toml:"version"`
	Window  WindowData  `toml:"window"`
	Camera  CameraData  `toml:"camera"`
	Render  RenderData  `toml:"render"`
	Blocks  []BlockData `toml:"blocks"`
}

// WindowData stores the viewer window settings. It converts to
// core.WindowConfig.
type WindowData struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	Resizable  bool   `toml:"resizable"`
	VSync      bool   `toml:"vsync"`
	Fullscreen bool   `toml:"fullscreen"`
	// LimitToES makes the device report OpenGL ES 3.0 capabilities.
	LimitToES bool `toml:"limit_to_es"`
}

// CameraData stores camera state. With Reset the camera frames the blocks
// and Position is only used as the view direction.
type CameraData struct {
	Position   [3]float32 `toml:"position"`
	FocalPoint [3]float32 `toml:"focal_point"`
	FOV        float32    `toml:"fov"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
	Reset      bool       `toml:"reset"`
}

// RenderData stores the actor property and mapper options.
type RenderData struct {
	Representation   string     `toml:"representation"` // "surface", "wireframe" or "points"
	Interpolation    string     `toml:"interpolation"`  // "gouraud" or "flat"
	Opacity          float32    `toml:"opacity"`
	Color            [3]float32 `toml:"color"`
	Background       [3]float32 `toml:"background"`
	PointSize        float32    `toml:"point_size"`
	LineWidth        float32    `toml:"line_width"`
	EdgeVisibility   bool       `toml:"edge_visibility"`
	VertexVisibility bool       `toml:"vertex_visibility"`

	ScalarVisibility bool       `toml:"scalar_visibility"`
	ScalarRange      [2]float64 `toml:"scalar_range"`
	NaNColorMissing  bool       `toml:"nan_color_missing"`
	ShiftScale       string     `toml:"shift_scale"` // "auto", "always", "disabled", "focal-point", "near-plane"

	// PickPoints makes clicks select points instead of cells.
	PickPoints bool `toml:"pick_points"`
}

// BlockData is one leaf of the composite. Exactly one of Source and File
// is set; a file may yield several blocks.
type BlockData struct {
	Name string `toml:"name"`
	// Source is a built-in mesh: "plane", "cube", "sphere", "grid",
	// "strip" or "points".
	Source       string  `toml:"source,omitempty"`
	Size         float32 `toml:"size,omitempty"`
	Subdivisions int     `toml:"subdivisions,omitempty"`
	// File is an .obj, .gltf or .glb path, relative to the scene file.
	File     string     `toml:"file,omitempty"`
	Position [3]float32 `toml:"position"`

	// ColorBy names a data array to color with; CellIds is generated on
	// demand.
	ColorBy   string `toml:"color_by,omitempty"`
	ColorMode string `toml:"color_mode,omitempty"` // "default", "point" or "cell"

	Visible  *bool       `toml:"visible,omitempty"`
	Pickable *bool       `toml:"pickable,omitempty"`
	Opacity  *float32    `toml:"opacity,omitempty"`
	Color    *[3]float32 `toml:"color,omitempty"`
}

// Default returns a scene with sensible defaults and no blocks.
func Default() *File {
	return &File{
		Version: "1.0",
		Window: WindowData{
			Width:     1280,
			Height:    720,
			Title:     "polyview",
			Resizable: true,
			VSync:     true,
		},
		Camera: CameraData{
			Position: [3]float32{0, 2, 5},
			FOV:      30,
			Near:     0.1,
			Far:      1000,
			Reset:    true,
		},
		Render: RenderData{
			Representation:   "surface",
			Interpolation:    "gouraud",
			Opacity:          1,
			Color:            [3]float32{1, 1, 1},
			Background:       [3]float32{0.1, 0.1, 0.15},
			PointSize:        1,
			LineWidth:        1,
			ScalarVisibility: true,
			ScalarRange:      [2]float64{0, 1},
			ShiftScale:       "auto",
		},
	}
}

// Parse decodes a scene on top of the defaults and validates it.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := toml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse scene file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads and validates a scene file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Save writes f as TOML.
func Save(path string, f *File) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the enumerated options and the blocks.
func (f *File) Validate() error {
	if len(f.Blocks) == 0 {
		return ErrNoBlocks
	}
	if _, err := f.Render.RepresentationValue(); err != nil {
		return err
	}
	if _, err := f.Render.InterpolationValue(); err != nil {
		return err
	}
	if _, err := f.Render.ShiftScaleMethod(); err != nil {
		return err
	}
	for i, b := range f.Blocks {
		if (b.Source == "") == (b.File == "") {
			return fmt.Errorf("config: block %d (%q): set exactly one of source and file", i, b.Name)
		}
		if _, err := b.scalarMode(); err != nil {
			return fmt.Errorf("config: block %d (%q): %w", i, b.Name, err)
		}
	}
	return nil
}

func (r RenderData) RepresentationValue() (cellmap.Representation, error) {
	switch strings.ToLower(r.Representation) {
	case "", "surface":
		return cellmap.Surface, nil
	case "wireframe":
		return cellmap.Wireframe, nil
	case "points":
		return cellmap.Points, nil
	}
	return 0, fmt.Errorf("config: unknown representation %q", r.Representation)
}

func (r RenderData) InterpolationValue() (batch.Interpolation, error) {
	switch strings.ToLower(r.Interpolation) {
	case "", "gouraud":
		return batch.InterpolationGouraud, nil
	case "flat":
		return batch.InterpolationFlat, nil
	}
	return 0, fmt.Errorf("config: unknown interpolation %q", r.Interpolation)
}

func (r RenderData) ShiftScaleMethod() (gpu.ShiftScaleMethod, error) {
	switch strings.ToLower(r.ShiftScale) {
	case "", "auto":
		return gpu.ShiftScaleAuto, nil
	case "always":
		return gpu.ShiftScaleAlwaysAuto, nil
	case "disabled":
		return gpu.ShiftScaleDisabled, nil
	case "focal-point":
		return gpu.ShiftScaleFocalPoint, nil
	case "near-plane":
		return gpu.ShiftScaleNearPlane, nil
	}
	return 0, fmt.Errorf("config: unknown shift_scale %q", r.ShiftScale)
}

func (b BlockData) scalarMode() (polydata.ScalarMode, error) {
	switch strings.ToLower(b.ColorMode) {
	case "", "default":
		return polydata.ScalarModeDefault, nil
	case "point":
		return polydata.ScalarModeUsePointData, nil
	case "cell":
		return polydata.ScalarModeUseCellData, nil
	}
	return 0, fmt.Errorf("unknown color_mode %q", b.ColorMode)
}

// --- Helper conversions ---

// ArrayToColor converts [3]float32 to Color
func ArrayToColor(a [3]float32) base.Color {
	return base.Color{R: a[0], G: a[1], B: a[2]}
}

// ArrayToVec3 converts a [3]float32 to Vec3
func ArrayToVec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
