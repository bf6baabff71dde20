// Command polyview renders the composite blocks of a TOML scene through the
// batched mapper and picks cells or points with the mouse.
//
// Keys: W wireframe, S surface, P toggles point picking, R resets the
// camera, arrows orbit, -/= zoom, Esc quits. The scene file is reloaded when
// it changes on disk.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"polybatch/batch"
	"polybatch/cellmap"
	"polybatch/config"
	"polybatch/core"
	"polybatch/internal/opengl"
	"polybatch/render"
)

const orbitSpeed = 1.5 // radians per second

type viewer struct {
	path     string
	window   *core.Window
	renderer *render.Renderer
	mapper   *render.CompositeMapper
	actor    *render.Actor

	pickPoints bool
	clicks     []clickEvent
}

type clickEvent struct{ x, y float64 }

func main() {
	scenePath := flag.String("scene", "scene.toml", "scene file to render")
	debug := flag.Bool("debug", false, "log batch rebuilds and selection passes")
	flag.Parse()

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if err := run(*scenePath); err != nil {
		slog.Error("polyview failed", "err", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	window, err := core.NewWindow(core.WindowConfig(cfg.Window))
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice(opengl.Options{LimitToES: cfg.Window.LimitToES})
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	defer dev.Destroy()

	width, height := window.GetFramebufferSize()
	mapper := render.NewCompositeMapper()
	v := &viewer{
		path:       path,
		window:     window,
		renderer:   render.NewRenderer(dev, width, height),
		mapper:     mapper,
		actor:      render.NewActor("scene", mapper),
		pickPoints: cfg.Render.PickPoints,
	}
	v.renderer.AddActor(v.actor)
	if err := v.load(cfg); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to watch scene file: %w", err)
	}
	defer watcher.Close()
	// editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch scene file: %w", err)
	}
	reload := make(chan struct{}, 1)
	go watch(watcher, path, reload)

	window.SetClickCallback(func(x, y float64) {
		v.clicks = append(v.clicks, clickEvent{x, y})
	})

	return v.loop(reload)
}

// watch forwards changes of path to reload, coalescing bursts of events.
func watch(w *fsnotify.Watcher, path string, reload chan<- struct{}) {
	target := filepath.Clean(path)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			select {
			case reload <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("scene watcher error", "err", err)
		}
	}
}

// load applies cfg and refreshes the batch with the new blocks.
func (v *viewer) load(cfg *config.File) error {
	blocks, err := cfg.LoadBlocks(filepath.Dir(v.path))
	if err != nil {
		return err
	}
	if err := cfg.Apply(v.renderer, v.actor); err != nil {
		return err
	}
	v.mapper.SetBlocks(blocks)
	v.mapper.Batch.SetHighlights(nil)
	if cfg.Camera.Reset {
		v.renderer.ResetCamera()
	}
	slog.Info("scene loaded", "path", v.path, "blocks", len(blocks))
	return nil
}

func (v *viewer) reload() {
	cfg, err := config.Load(v.path)
	if err != nil {
		slog.Warn("scene reload failed", "err", err)
		return
	}
	if err := v.load(cfg); err != nil {
		slog.Warn("scene reload failed", "err", err)
	}
}

func (v *viewer) loop(reload <-chan struct{}) error {
	var wKeyWasDown, sKeyWasDown, pKeyWasDown, rKeyWasDown bool
	lastTime := time.Now()
	fpsCounter := 0
	fpsLastTime := time.Now()

	for !v.window.ShouldClose() {
		v.window.PollEvents()
		now := time.Now()
		deltaTime := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.window.IsKeyPressed(core.KeyEscape) {
			break
		}

		select {
		case <-reload:
			v.reload()
		default:
		}

		wDown := v.window.IsKeyPressed(core.KeyW)
		if wDown && !wKeyWasDown {
			v.actor.Property.SetRepresentation(cellmap.Wireframe)
		}
		wKeyWasDown = wDown

		sDown := v.window.IsKeyPressed(core.KeyS)
		if sDown && !sKeyWasDown {
			v.actor.Property.SetRepresentation(cellmap.Surface)
		}
		sKeyWasDown = sDown

		pDown := v.window.IsKeyPressed(core.KeyP)
		if pDown && !pKeyWasDown {
			v.pickPoints = !v.pickPoints
			slog.Info("pick mode", "points", v.pickPoints)
		}
		pKeyWasDown = pDown

		rDown := v.window.IsKeyPressed(core.KeyR)
		if rDown && !rKeyWasDown {
			v.renderer.ResetCamera()
		}
		rKeyWasDown = rDown

		v.orbit(deltaTime)

		fbW, fbH := v.window.GetFramebufferSize()
		if w, h := v.renderer.Size(); w != fbW || h != fbH {
			v.renderer.SetSize(fbW, fbH)
		}

		for _, c := range v.clicks {
			v.pick(c.x, c.y)
		}
		v.clicks = v.clicks[:0]

		if err := v.renderer.Render(); err != nil {
			return err
		}
		v.window.SwapBuffers()

		fpsCounter++
		if time.Since(fpsLastTime) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("polyview - %d FPS", fpsCounter))
			fpsCounter = 0
			fpsLastTime = time.Now()
		}
	}
	return nil
}

func (v *viewer) orbit(deltaTime float32) {
	step := orbitSpeed * deltaTime
	cam := v.renderer.Camera
	if v.window.IsKeyPressed(core.KeyLeft) {
		cam.Orbit(-step, 0)
	}
	if v.window.IsKeyPressed(core.KeyRight) {
		cam.Orbit(step, 0)
	}
	if v.window.IsKeyPressed(core.KeyUp) {
		cam.Orbit(0, step)
	}
	if v.window.IsKeyPressed(core.KeyDown) {
		cam.Orbit(0, -step)
	}
	if v.window.IsKeyPressed(core.KeyEqual) {
		cam.Zoom(1 + step)
	}
	if v.window.IsKeyPressed(core.KeyMinus) {
		cam.Zoom(1 / (1 + step))
	}
}

// pick selects the cell or point under a click given in window coordinates
// and highlights it.
func (v *viewer) pick(x, y float64) {
	winW, winH := v.window.GetSize()
	fbW, fbH := v.renderer.Size()
	if winW <= 0 || winH <= 0 {
		return
	}
	px := int(x * float64(fbW) / float64(winW))
	py := fbH - 1 - int(y*float64(fbH)/float64(winH))

	pickFn := v.renderer.Pick
	if v.pickPoints {
		pickFn = v.renderer.PickPoint
	}
	res, err := pickFn(px, py)
	if err != nil {
		slog.Warn("pick failed", "err", err)
		return
	}
	item, ok := res.Closest()
	if !ok {
		slog.Info("picked nothing", "x", px, "y", py)
		v.mapper.Batch.SetHighlights(nil)
		return
	}

	blk, _ := v.mapper.Block(item.FlatIndex)
	slog.Info("picked",
		"block", blk.Name,
		"flat_index", item.FlatIndex,
		"association", res.Association,
		"id", item.ID,
		"pixels", item.Pixels)
	v.mapper.Batch.SetHighlights([]batch.Highlight{{
		FlatIndex: item.FlatIndex,
		Points:    v.pickPoints,
		IDs:       []int{int(item.ID)},
	}})
}
