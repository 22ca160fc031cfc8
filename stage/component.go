package stage

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/config"
	"github.com/gogpu/molrep/representation"
	"github.com/gogpu/molrep/structure"
)

// Component is one structure on the stage and its representations.
type Component struct {
	stage     *Stage
	structure *structure.Structure
	reprs     []representation.Representation
}

// Structure returns the structure of the component.
func (c *Component) Structure() *structure.Structure { return c.structure }

// Representations returns the representations in insertion order.
func (c *Component) Representations() []representation.Representation { return c.reprs }

// AddRepresentation creates the representation registered under name for
// the atoms matching sele. Parameters are taken from the stage config and
// overridden by p.
func (c *Component) AddRepresentation(name, sele string, p representation.Params) (representation.Representation, error) {
	if c.stage.closed {
		return nil, ErrClosed
	}
	f, ok := representation.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", representation.ErrUnknownType, name)
	}
	v, err := c.structure.View(sele)
	if err != nil {
		return nil, fmt.Errorf("stage: %s: %w", name, err)
	}
	r := f(c.stage.env)
	params := c.stage.defaults(name, r.Table())
	maps.Copy(params, p)
	if err := r.AddView(v); err != nil {
		return nil, err
	}
	if err := r.Init(params); err != nil {
		r.Dispose()
		return nil, err
	}
	c.reprs = append(c.reprs, r)
	molrep.Logger().Info("stage: representation added",
		"component", c.structure.Name, "type", name, "sele", sele, "buffers", len(r.Buffers()))
	return r, nil
}

// defaults returns the configured parameters of a representation type.
// Global strategy settings the type does not accept are left out; keys
// of the type's own config section are passed through unchanged.
func (s *Stage) defaults(name string, t representation.Table) representation.Params {
	p := representation.Params(s.cfg.Params(name))
	section := s.cfg.Representations[name]
	for _, k := range config.GlobalParams {
		if _, explicit := section[k]; explicit {
			continue
		}
		if d, ok := t[k]; !ok || d.Effect == representation.EffectDisabled {
			delete(p, k)
		}
	}
	return p
}

// RemoveRepresentation disposes r and removes it from the component.
func (c *Component) RemoveRepresentation(r representation.Representation) {
	i := slices.Index(c.reprs, r)
	if i < 0 {
		return
	}
	r.Dispose()
	c.reprs = slices.Delete(c.reprs, i, i+1)
}

// SetPositions replaces the atom coordinates, as for a trajectory frame,
// and updates every representation.
func (c *Component) SetPositions(coords []float32) error {
	if err := c.structure.SetPositions(coords); err != nil {
		return err
	}
	for _, r := range c.reprs {
		if err := r.Update(representation.ChangePosition); err != nil {
			return err
		}
	}
	return nil
}

// SetVisibility shows or hides every representation.
func (c *Component) SetVisibility(visible bool) {
	for _, r := range c.reprs {
		r.SetVisibility(visible)
	}
}
