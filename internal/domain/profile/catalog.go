// Package profile holds the catalog of named race profile presets: complete
// dimension weight tables for common race archetypes. The catalog is pure
// data; it performs no rating logic.
package profile

import (
	"sort"

	"github.com/okian/peloton/internal/domain/model"
)

type weights = map[model.Dimension]float64

// Catalog is a fixed, named set of dimension weight presets.
type Catalog struct {
	templates map[string]weights
}

// NewCatalog returns the built-in preset catalog.
func NewCatalog() *Catalog {
	return &Catalog{templates: builtinTemplates()}
}

// Get returns an independent copy of the named preset's weight table.
// Unknown names fail with ErrUnknownTemplate.
func (c *Catalog) Get(name string) (map[model.Dimension]float64, error) {
	w, ok := c.templates[name]
	if !ok {
		return nil, ErrUnknownTemplate
	}
	out := make(map[model.Dimension]float64, len(w))
	for d, v := range w {
		out[d] = v
	}
	return out, nil
}

// Names returns all preset names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// builtinTemplates returns the preset weight tables. Each table covers the
// full dimension set with weights in [0,1].
func builtinTemplates() map[string]weights {
	return map[string]weights{
		// Flat sprint stage: bunch finish, no climbing or cobbles.
		"Flat Sprint Stage": {
			model.DimensionFlat:      0.8,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.0,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    1.0,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.5,
		},
		// Mountain stage: summit finish, GC battleground.
		"Mountain Stage": {
			model.DimensionFlat:      0.1,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  1.0,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        0.9,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.8,
		},
		// High mountain stage with multiple HC climbs.
		"High Mountain Stage": {
			model.DimensionFlat:      0.0,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  1.0,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        1.0,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.9,
		},
		// Medium mountain stage with rolling terrain and breakaway potential.
		"Medium Mountain Stage": {
			model.DimensionFlat:      0.3,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.6,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.2,
			model.DimensionGC:        0.5,
			model.DimensionOneDay:    0.3,
			model.DimensionEndurance: 0.7,
		},
		// Individual time trial, flat or rolling.
		"Individual Time Trial": {
			model.DimensionFlat:      0.6,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.0,
			model.DimensionTimeTrial: 1.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        0.7,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.4,
		},
		// Mountain time trial with an uphill finish.
		"Mountain Time Trial": {
			model.DimensionFlat:      0.2,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.7,
			model.DimensionTimeTrial: 1.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        1.0,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.5,
		},
		// The cobbled monument.
		"Paris-Roubaix": {
			model.DimensionFlat:      0.6,
			model.DimensionCobbles:   1.0,
			model.DimensionMountain:  0.0,
			model.DimensionTimeTrial: 0.2,
			model.DimensionSprint:    0.1,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    1.0,
			model.DimensionEndurance: 0.9,
		},
		// Cobbles and short steep climbs.
		"Tour of Flanders": {
			model.DimensionFlat:      0.4,
			model.DimensionCobbles:   0.8,
			model.DimensionMountain:  0.4,
			model.DimensionTimeTrial: 0.1,
			model.DimensionSprint:    0.2,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    1.0,
			model.DimensionEndurance: 0.8,
		},
		// Hilly monument with a punchy finish.
		"Liège-Bastogne-Liège": {
			model.DimensionFlat:      0.3,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.7,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.3,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    1.0,
			model.DimensionEndurance: 0.8,
		},
		// The sprinter's monument, longest classic on the calendar.
		"Milano-Sanremo": {
			model.DimensionFlat:      0.7,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.3,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.8,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    1.0,
			model.DimensionEndurance: 0.9,
		},
		// The climbing monument.
		"Il Lombardia": {
			model.DimensionFlat:      0.2,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.9,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.1,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    1.0,
			model.DimensionEndurance: 0.8,
		},
		// World championship road race, balanced profile.
		"World Championship RR": {
			model.DimensionFlat:      0.5,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.5,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.4,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    1.0,
			model.DimensionEndurance: 0.8,
		},
		// World championship individual time trial.
		"World Championship ITT": {
			model.DimensionFlat:      0.7,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.2,
			model.DimensionTimeTrial: 1.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    0.8,
			model.DimensionEndurance: 0.4,
		},
		// Generic hilly one-day classic.
		"Hilly Classic": {
			model.DimensionFlat:      0.3,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.6,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    0.4,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    0.9,
			model.DimensionEndurance: 0.6,
		},
		// Generic flat one-day classic ending in a sprint.
		"Sprint Classic": {
			model.DimensionFlat:      0.9,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.0,
			model.DimensionTimeTrial: 0.0,
			model.DimensionSprint:    1.0,
			model.DimensionGC:        0.0,
			model.DimensionOneDay:    0.7,
			model.DimensionEndurance: 0.5,
		},
		// Short opening time trial.
		"Prologue": {
			model.DimensionFlat:      0.5,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.0,
			model.DimensionTimeTrial: 1.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        0.3,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.1,
		},
		// Team time trial.
		"Team Time Trial": {
			model.DimensionFlat:      0.6,
			model.DimensionCobbles:   0.0,
			model.DimensionMountain:  0.0,
			model.DimensionTimeTrial: 1.0,
			model.DimensionSprint:    0.0,
			model.DimensionGC:        0.6,
			model.DimensionOneDay:    0.0,
			model.DimensionEndurance: 0.5,
		},
	}
}
