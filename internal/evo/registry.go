package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"keyforge/internal/keycode"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

// OperatorFactory builds an operator bound to the optimizer's random source
// and valid keycode set.
type OperatorFactory func(rng *rand.Rand, keycodes []keycode.Keycode) Operator

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]OperatorFactory
}{
	m: make(map[string]OperatorFactory),
}

func init() {
	mustRegister("swap_keys", func(rng *rand.Rand, _ []keycode.Keycode) Operator {
		return &SwapKeys{Rand: rng}
	})
	mustRegister("replace_key", func(rng *rand.Rand, keycodes []keycode.Keycode) Operator {
		return &ReplaceKey{Rand: rng, Keycodes: keycodes}
	})
}

func mustRegister(name string, factory OperatorFactory) {
	if err := RegisterOperator(name, factory); err != nil {
		panic(err)
	}
}

// RegisterOperator makes a mutation operator available by name.
func RegisterOperator(name string, factory OperatorFactory) error {
	if name == "" {
		return errors.New("operator name is required")
	}
	if factory == nil {
		return errors.New("operator factory is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, name)
	}
	operatorRegistry.m[name] = factory
	return nil
}

// NewOperator builds the operator registered under name.
func NewOperator(name string, rng *rand.Rand, keycodes []keycode.Keycode) (Operator, error) {
	operatorRegistry.mu.RLock()
	factory, ok := operatorRegistry.m[name]
	operatorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	return factory(rng, keycodes), nil
}

// ListOperators returns the registered operator names in sorted order.
func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
