package graph

import (
	"errors"
	"fmt"
)

// Factory builds one Unit for a declaration.
type Factory func(p Params) (Unit, error)

// Registry maps unit type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateUnitType = errors.New("duplicate unit type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given unit type.
func (r *Registry) Register(unitType string, factory Factory) error {
	if unitType == "" {
		return errors.New("empty unit type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[unitType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateUnitType, unitType)
	}

	r.factories[unitType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(unitType string, factory Factory) {
	if err := r.Register(unitType, factory); err != nil {
		panic("graph registry: " + err.Error())
	}
}

// Lookup returns the factory for the given unit type, or nil.
func (r *Registry) Lookup(unitType string) Factory {
	return r.factories[unitType]
}

// Types returns the number of registered unit types.
func (r *Registry) Types() int {
	return len(r.factories)
}
