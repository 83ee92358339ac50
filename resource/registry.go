// Package resource provides the registry that resolves Go struct types and
// wire type names to contracts.
package resource

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Registry maintains the bijection between Go struct types and wire type
// names. Each registry is an independent universe of contracts; lookups
// take the read lock only, so a registry populated at startup serves
// concurrent operations without contention.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Contract
	byType map[reflect.Type]*Contract
	log    hclog.Logger
}

// RegistryOption adjusts registry construction.
type RegistryOption func(*Registry)

// WithLogger routes the registry's and its mappers' debug logging to l.
// The default logger discards everything.
func WithLogger(l hclog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[string]*Contract),
		byType: make(map[reflect.Type]*Contract),
		log:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds T's struct type to a contract in r. Registering the same
// type again is a no-op; a second type claiming an already registered
// resource type name is an error, as is re-registering a type under a new
// name.
func Register[T any](r *Registry) error {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Errorf("register: interface types cannot be registered")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return r.register(t, nil)
}

// MustRegister is a helper that calls Register and panics if an error
// occurs. It is intended for use during application initialization.
func MustRegister[T any](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}

// RegisterType is the non-generic registration path for callers holding a
// reflect.Type.
func (r *Registry) RegisterType(t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("register: nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return r.register(t, nil)
}

func (r *Registry) register(t reflect.Type, override *ManifestResource) error {
	c, err := buildContract(t, r, override)
	if err != nil {
		return fmt.Errorf("registering %s: %w", t.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byType[t]; ok {
		if existing.ResourceType != c.ResourceType {
			return fmt.Errorf("type %s already registered as %q", t.Name(), existing.ResourceType)
		}
		return nil
	}
	if existing, ok := r.byName[c.ResourceType]; ok && existing.GoType != t {
		return fmt.Errorf("resource type %q already registered to %s", c.ResourceType, existing.GoType.Name())
	}

	r.byName[c.ResourceType] = c
	r.byType[t] = c
	r.log.Debug("registered contract", "resource_type", c.ResourceType, "go_type", t.String())
	return nil
}

// ContractFor retrieves the contract bound to a Go type, dereferencing
// pointer types. A miss yields UnresolvedContractError.
func (r *Registry) ContractFor(t reflect.Type) (*Contract, error) {
	if c, ok := r.lookupType(t); ok {
		return c, nil
	}
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return nil, &UnresolvedContractError{GoType: t}
}

// ContractByName retrieves the contract registered under a wire type name.
// A miss yields ContractResolutionError.
func (r *Registry) ContractByName(name string) (*Contract, error) {
	r.mu.RLock()
	c, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ContractResolutionError{ResourceType: name}
	}
	return c, nil
}

// Contracts returns all registered contracts sorted by resource type name.
func (r *Registry) Contracts() []*Contract {
	r.mu.RLock()
	out := make([]*Contract, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].ResourceType < out[j].ResourceType
	})
	return out
}

func (r *Registry) lookupType(t reflect.Type) (*Contract, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[t]
	return c, ok
}
