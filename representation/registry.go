package representation

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType is returned by New for an unregistered name.
var ErrUnknownType = errors.New("representation: unknown type")

var (
	_ Representation = (*BallAndStick)(nil)
	_ Representation = (*Spacefill)(nil)
	_ Representation = (*Label)(nil)
	_ Representation = (*Distance)(nil)
	_ Representation = (*Rocket)(nil)
)

// Factory creates an uninitialized representation.
type Factory func(env Env) Representation

var registry = map[string]Factory{
	"ball+stick": func(env Env) Representation { return NewBallAndStick(env) },
	"spacefill":  func(env Env) Representation { return NewSpacefill(env) },
	"label":      func(env Env) Representation { return NewLabel(env) },
	"distance":   func(env Env) Representation { return NewDistance(env) },
	"rocket":     func(env Env) Representation { return NewRocket(env) },
}

// Register adds a factory under name, replacing any existing one. It is
// meant to be called from init functions.
func Register(name string, f Factory) { registry[name] = f }

// Types returns the registered names in sorted order.
func Types() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates the representation registered under name and initializes
// it with p.
func New(name string, env Env, p Params) (Representation, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	r := f(env)
	if err := r.Init(p); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	f, ok := registry[name]
	return f, ok
}
