// Package config loads constraint packs from YAML files into a
// validated constraint library.
//
// A pack file declares atomic constraints and composites; the loader
// builds the library, then runs the eager finalize pre-check so
// structural defects (dangling references, cycles) fail at startup
// instead of on the first serving request.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"tenet/internal/constraint"
)

// packFile mirrors the YAML pack schema.
type packFile struct {
	Constraints []atomicDef    `yaml:"constraints"`
	Composites  []compositeDef `yaml:"composites"`
}

type triggerDef struct {
	Keywords            []string `yaml:"keywords"`
	FilePatterns        []string `yaml:"file_patterns"`
	ContextPatterns     []string `yaml:"context_patterns"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
}

type atomicDef struct {
	ID        string     `yaml:"id"`
	Title     string     `yaml:"title"`
	Priority  float64    `yaml:"priority"`
	Triggers  triggerDef `yaml:"triggers"`
	Reminders []string   `yaml:"reminders"`
}

type referenceDef struct {
	ID   string `yaml:"id"`
	Role string `yaml:"role"`
}

type levelDef struct {
	Label       string   `yaml:"label"`
	Constraints []string `yaml:"constraints"`
	Barrier     bool     `yaml:"barrier"`
	Guidance    []string `yaml:"guidance"`
}

type layerDef struct {
	Name        string   `yaml:"name"`
	Allowed     []string `yaml:"allowed"`
	Constraints []string `yaml:"constraints"`
}

type compositeDef struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Priority    float64        `yaml:"priority"`
	Composition string         `yaml:"composition"`
	Components  []referenceDef `yaml:"components"`
	Triggers    triggerDef     `yaml:"triggers"`
	Hierarchy   map[string]int `yaml:"hierarchy"`
	Levels      []levelDef     `yaml:"levels"`
	Layers      []layerDef     `yaml:"layers"`
}

// Load reads one pack file into a finalized library.
func Load(path string) (*constraint.Library, error) {
	lib := constraint.NewLibrary()
	if err := loadInto(lib, path); err != nil {
		return nil, err
	}
	if err := lib.Finalize(); err != nil {
		return nil, fmt.Errorf("finalizing %s: %w", path, err)
	}
	return lib, nil
}

// LoadDir reads every *.yaml and *.yml file under dir (sorted by name,
// non-recursive) into one finalized library. Forward references across
// files are legal — finalize runs once after all files are in.
func LoadDir(dir string) (*constraint.Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pack directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no pack files found in %s", dir)
	}
	sort.Strings(paths)

	lib := constraint.NewLibrary()
	for _, p := range paths {
		if err := loadInto(lib, p); err != nil {
			return nil, err
		}
	}
	if err := lib.Finalize(); err != nil {
		return nil, fmt.Errorf("finalizing pack directory %s: %w", dir, err)
	}
	return lib, nil
}

func loadInto(lib *constraint.Library, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading pack file: %w", err)
	}

	var pack packFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, def := range pack.Constraints {
		if err := lib.AddAtomic(def.toAtomic()); err != nil {
			return fmt.Errorf("%s: constraint %q: %w", path, def.ID, err)
		}
	}
	for _, def := range pack.Composites {
		if err := lib.AddComposite(def.toComposite()); err != nil {
			return fmt.Errorf("%s: composite %q: %w", path, def.ID, err)
		}
	}
	return nil
}

func (d triggerDef) toTrigger() constraint.Trigger {
	return constraint.Trigger{
		Keywords:            d.Keywords,
		FilePatterns:        d.FilePatterns,
		ContextPatterns:     d.ContextPatterns,
		ConfidenceThreshold: d.ConfidenceThreshold,
	}
}

func (d atomicDef) toAtomic() *constraint.Atomic {
	return &constraint.Atomic{
		ID:        d.ID,
		Title:     d.Title,
		Priority:  d.Priority,
		Triggers:  d.Triggers.toTrigger(),
		Reminders: d.Reminders,
	}
}

func (d compositeDef) toComposite() *constraint.Composite {
	c := &constraint.Composite{
		ID:          d.ID,
		Title:       d.Title,
		Priority:    d.Priority,
		Composition: constraint.Composition(d.Composition),
		Triggers:    d.Triggers.toTrigger(),
	}
	for _, ref := range d.Components {
		c.Components = append(c.Components, constraint.Reference{TargetID: ref.ID, Role: ref.Role})
	}
	if len(d.Hierarchy) > 0 {
		c.HierarchyLevels = make(map[string]int, len(d.Hierarchy))
		for id, lvl := range d.Hierarchy {
			c.HierarchyLevels[constraint.Normalize(id)] = lvl
		}
	}
	for _, lvl := range d.Levels {
		c.Levels = append(c.Levels, constraint.ProgressiveLevel{
			Label:           lvl.Label,
			ConstraintIDs:   lvl.Constraints,
			IsBarrier:       lvl.Barrier,
			BarrierGuidance: lvl.Guidance,
		})
	}
	for _, layer := range d.Layers {
		c.Layers = append(c.Layers, constraint.LayerRule{
			Name:          layer.Name,
			AllowedDeps:   layer.Allowed,
			ConstraintIDs: layer.Constraints,
		})
	}
	// Progressive packs may declare only levels; derive the component
	// list from them so references still resolve in declared order.
	if c.Composition == constraint.CompositionProgressive && len(c.Components) == 0 {
		seen := map[string]bool{}
		for _, lvl := range c.Levels {
			for _, id := range lvl.ConstraintIDs {
				key := constraint.Normalize(id)
				if seen[key] {
					continue
				}
				seen[key] = true
				c.Components = append(c.Components, constraint.Reference{TargetID: id})
			}
		}
	}
	// Same for layered packs declaring only layers.
	if c.Composition == constraint.CompositionLayered && len(c.Components) == 0 {
		for _, layer := range c.Layers {
			for _, id := range layer.ConstraintIDs {
				c.Components = append(c.Components, constraint.Reference{TargetID: id})
			}
		}
	}
	return c
}
