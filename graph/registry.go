package graph

import (
	"fmt"

	"github.com/go-gflow/gflow"
)

// NodeFactory instantiates a Node from a TaskSpec
type NodeFactory func(spec *TaskSpec) (gflow.Node, error)

// Registry maps node type names to NodeFactories, so graphs can be built
// from task specs
type Registry struct {
	factories map[string]NodeFactory
}

// CreateRegistry produces an empty Registry
func CreateRegistry() *Registry {
	return &Registry{factories: make(map[string]NodeFactory)}
}

// Register binds a node type name to a NodeFactory. Registering the same
// name twice is an error.
func (r *Registry) Register(typeName string, factory NodeFactory) error {
	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("Node type \"%s\" is already registered", typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// Create instantiates a Node for a TaskSpec via its registered factory
func (r *Registry) Create(spec *TaskSpec) (gflow.Node, error) {
	factory, ok := r.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("Unknown node type \"%s\" for task \"%s\"", spec.Type, spec.ID)
	}
	return factory(spec)
}
