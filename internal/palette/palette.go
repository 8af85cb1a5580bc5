// Package palette serves the named color presets offered to the day grid.
// Presets are read from a YAML file and reloaded when it changes.
package palette

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/dayblocks/internal/models"
)

const reloadDelay = 200 * time.Millisecond

// Defaults mirror the legacy status colors.
var Defaults = []models.Label{
	{Name: "Unproductive", Color: models.ColorRed},
	{Name: "Neutral", Color: models.ColorYellow},
	{Name: "Productive", Color: models.ColorGreen},
}

type file struct {
	Labels []models.Label `yaml:"labels"`
}

// Palette holds the current label set.
type Palette struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	labels []models.Label
}

// New loads the palette at path. An empty path or a missing file yields the
// default presets.
func New(path string, logger *slog.Logger) (*Palette, error) {
	p := &Palette{path: path, logger: logger}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Labels returns a copy of the current presets.
func (p *Palette) Labels() []models.Label {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Label, len(p.labels))
	copy(out, p.labels)
	return out
}

// Reload rereads the file. On error the previous labels are kept.
func (p *Palette) Reload() error {
	labels, err := load(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.labels = labels
	p.mu.Unlock()
	return nil
}

func load(path string) ([]models.Label, error) {
	if path == "" {
		return Defaults, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("palette: read %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("palette: parse %s: %w", path, err)
	}
	for i := range f.Labels {
		l := &f.Labels[i]
		if err := validation.ValidateStruct(l,
			validation.Field(&l.Name, validation.Required),
			validation.Field(&l.Color, validation.Required, validation.Length(1, 64)),
		); err != nil {
			return nil, fmt.Errorf("palette: label %d: %w", i, err)
		}
	}
	if len(f.Labels) == 0 {
		return Defaults, nil
	}
	return f.Labels, nil
}

// Watch reloads the palette whenever its file is written, replaced or
// removed, until ctx is cancelled. The parent directory is watched so that
// editors that replace the file atomically are picked up.
func (p *Palette) Watch(ctx context.Context) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(p.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("palette: watch %s: %w", dir, err)
	}
	name := filepath.Clean(p.path)
	p.logger.Info("palette: watching", slog.String("path", name))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDelay)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			p.logger.Info("palette: stopped")
			return nil

		case <-reloadCh:
			if err := p.Reload(); err != nil {
				p.logger.Warn("palette: reload failed", slog.String("error", err.Error()))
				continue
			}
			p.logger.Debug("palette: reloaded", slog.Int("labels", len(p.Labels())))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("palette: watch error", slog.String("error", watchErr.Error()))
		}
	}
}
