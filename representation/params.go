package representation

import (
	"fmt"
	"maps"
	"math/bits"
	"strings"

	"github.com/gogpu/molrep"
	"github.com/gogpu/molrep/buffer"
)

// Effect is what a parameter change does to built data.
type Effect uint8

const (
	// EffectRebuild discards all data and recreates it.
	EffectRebuild Effect = iota + 1
	// EffectRebuildOnStrategy rebuilds when the change flips the mesh or
	// impostor decision, or when the active strategy is one the parameter
	// shapes.
	EffectRebuildOnStrategy
	// EffectBuffer patches attribute channels of existing buffers.
	EffectBuffer
	// EffectUniform patches uniforms of existing buffers.
	EffectUniform
	// EffectDisabled marks an inherited parameter a variant turned off.
	EffectDisabled
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectRebuild:
		return "rebuild"
	case EffectRebuildOnStrategy:
		return "rebuild-on-strategy-change"
	case EffectBuffer:
		return "buffer"
	case EffectUniform:
		return "uniform"
	case EffectDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("Effect(%d)", int(e))
	}
}

// ChangeSet is a set of semantic channels that changed since the last
// build. UpdateData implementations must handle every kind their table
// forwards.
type ChangeSet uint16

// Change kinds.
const (
	ChangePosition ChangeSet = 1 << iota
	ChangeColor
	ChangeRadius
	ChangeScale
	ChangeLabelSize
	ChangeLabelColor
	ChangeOpacity
	ChangeShrink

	numChanges = iota
)

var changeNames = [numChanges]string{
	"position", "color", "radius", "scale", "labelSize", "labelColor", "opacity", "shrink",
}

// Has reports whether any kind of o is in c.
func (c ChangeSet) Has(o ChangeSet) bool { return c&o != 0 }

// String returns the kinds joined by "|".
func (c ChangeSet) String() string {
	if c == 0 {
		return "none"
	}
	names := make([]string, 0, bits.OnesCount16(uint16(c)))
	for i, n := range changeNames {
		if c&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}

// ParamDesc describes one parameter.
type ParamDesc struct {
	Effect Effect
	// Change is forwarded to UpdateData by buffer and uniform parameters.
	Change ChangeSet
	// Shapes lists the strategies whose geometry a rebuild-on-strategy
	// parameter shapes.
	Shapes []buffer.Strategy
}

// Parameter descriptor constructors.
func rebuildParam() ParamDesc { return ParamDesc{Effect: EffectRebuild} }

func strategyParam(shapes ...buffer.Strategy) ParamDesc {
	return ParamDesc{Effect: EffectRebuildOnStrategy, Shapes: shapes}
}

func bufferParam(c ChangeSet) ParamDesc  { return ParamDesc{Effect: EffectBuffer, Change: c} }
func uniformParam(c ChangeSet) ParamDesc { return ParamDesc{Effect: EffectUniform, Change: c} }

// Table maps parameter names to descriptors.
type Table map[string]ParamDesc

// Extend returns a copy of t with overrides applied. Entries of overrides
// replace inherited entries of the same name.
func (t Table) Extend(overrides Table) Table {
	out := maps.Clone(t)
	if out == nil {
		out = make(Table, len(overrides))
	}
	maps.Copy(out, overrides)
	return out
}

// Disable returns a copy of t in which the named parameters are disabled.
func (t Table) Disable(names ...string) Table {
	o := make(Table, len(names))
	for _, n := range names {
		o[n] = ParamDesc{Effect: EffectDisabled}
	}
	return t.Extend(o)
}

// Params holds parameter values by name.
type Params map[string]any

// Clone returns a shallow copy.
func (p Params) Clone() Params { return maps.Clone(p) }

// Float returns a numeric parameter as float32.
func (p Params) Float(name string) float32 {
	f, _ := toFloat(p[name])
	return float32(f)
}

// Int returns a numeric parameter as int.
func (p Params) Int(name string) int {
	f, _ := toFloat(p[name])
	return int(f)
}

// Bool returns a boolean parameter.
func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

// String returns a string parameter.
func (p Params) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// Color parses a color parameter. An empty string yields the zero color.
func (p Params) Color(name string) (molrep.Color, error) {
	s := p.String(name)
	if s == "" {
		return molrep.Color{}, nil
	}
	return molrep.ParseColor(s)
}

// Pairs returns a list-of-pairs parameter.
func (p Params) Pairs(name string) [][2]string {
	v, _ := p[name].([][2]string)
	return v
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

// coerce converts v to the dynamic type of def so that equal values
// compare equal regardless of where they were decoded from.
func coerce(def, v any) (any, error) {
	switch def.(type) {
	case float64:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case int:
		if f, ok := toFloat(v); ok {
			return int(f), nil
		}
	case bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case string:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case [][2]string:
		return toPairs(v)
	default:
		return v, nil
	}
	return nil, fmt.Errorf("%w: got %T, want %T", ErrInvalidParam, v, def)
}

// toPairs accepts pairs as typed Go values or as decoded config lists.
func toPairs(v any) ([][2]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case [][2]string:
		return x, nil
	case [][]string:
		out := make([][2]string, len(x))
		for i, p := range x {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: pair %d has %d elements", ErrInvalidParam, i, len(p))
			}
			out[i] = [2]string{p[0], p[1]}
		}
		return out, nil
	case []any:
		out := make([][2]string, len(x))
		for i, e := range x {
			p, ok := e.([]any)
			if !ok || len(p) != 2 {
				return nil, fmt.Errorf("%w: pair %d is not a two element list", ErrInvalidParam, i)
			}
			a, okA := p[0].(string)
			b, okB := p[1].(string)
			if !okA || !okB {
				return nil, fmt.Errorf("%w: pair %d has non-string selections", ErrInvalidParam, i)
			}
			out[i] = [2]string{a, b}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T, want list of pairs", ErrInvalidParam, v)
	}
}
