package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gflow/gflow"
	uuid "github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
)

// Builder turns TaskSpecs into executable Graphs using a Registry of node
// factories
type Builder struct {
	registry *Registry
}

// CreateBuilder produces a Builder backed by a Registry
func CreateBuilder(registry *Registry) *Builder {
	return &Builder{registry: registry}
}

// splitRef splits an output reference "node" or "node.port" into its parts
func splitRef(ref string) (string, string) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return ref, ""
}

// Build instantiates Nodes for every TaskSpec, derives Edges from their
// declared inputs, and assembles a validated Graph. outputs lists graph
// output references ("node" or "node.port") collected by the synthesized
// terminal node. Structural violations are aggregated into one error.
func (b *Builder) Build(specs []*TaskSpec, outputs []string) (*Graph, error) {
	var errs *multierror.Error
	nodes := make([]gflow.Node, 0, len(specs))
	edges := make([]gflow.Edge, 0)
	for _, spec := range specs {
		node, err := b.registry.Create(spec)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		nodes = append(nodes, node)
		if node.UsesPorts() {
			// deterministic edge order regardless of spec map iteration
			ports := make([]string, 0, len(spec.Inputs))
			for port := range spec.Inputs {
				ports = append(ports, port)
			}
			sort.Strings(ports)
			for _, port := range ports {
				from, fromPort := splitRef(spec.Inputs[port])
				edges = append(edges, gflow.Edge{From: from, FromPort: fromPort, To: spec.ID, ToPort: port})
			}
		} else {
			for i, ref := range spec.PositionalInputs {
				from, fromPort := splitRef(ref)
				edges = append(edges, gflow.Edge{From: from, FromPort: fromPort, To: spec.ID, ToPort: strconv.Itoa(i)})
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return Assemble(nodes, edges, outputs)
}

// Assemble produces a validated Graph from pre-built Nodes and Edges,
// synthesizing a terminal collector node for the declared outputs. All
// structural violations are aggregated into one error: duplicate uids,
// unknown edge endpoints, edge ports absent from node declarations,
// unconnected input ports and cycles.
func Assemble(nodes []gflow.Node, edges []gflow.Edge, outputs []string) (*Graph, error) {
	var errs *multierror.Error
	g := createGraph()
	for _, node := range nodes {
		if !g.addNode(node, StandardNode) {
			errs = multierror.Append(errs, fmt.Errorf("Duplicate node uid \"%s\"", node.UID()))
		}
	}

	if len(outputs) > 0 {
		collector, err := createCollectorNode()
		if err != nil {
			return nil, err
		}
		g.addNode(collector, OutputNode)
		g.collectorUID = collector.UID()
		g.outputRefs = outputs
		for i, ref := range outputs {
			from, fromPort := splitRef(ref)
			edges = append(edges, gflow.Edge{From: from, FromPort: fromPort, To: collector.UID(), ToPort: strconv.Itoa(i)})
		}
	}

	connected := make(map[string]map[string]bool)
	for _, e := range edges {
		fromNode := g.Node(e.From)
		toNode := g.Node(e.To)
		if fromNode == nil {
			errs = multierror.Append(errs, fmt.Errorf("Edge references unknown source node \"%s\"", e.From))
		}
		if toNode == nil {
			errs = multierror.Append(errs, fmt.Errorf("Edge references unknown target node \"%s\"", e.To))
		}
		if fromNode == nil || toNode == nil {
			continue
		}
		if len(e.FromPort) > 0 {
			if !fromNode.UsesPorts() {
				errs = multierror.Append(errs, fmt.Errorf("Edge names output port \"%s\" on positional node \"%s\"", e.FromPort, e.From))
			} else if !declaresPort(fromNode.OutputPorts(), e.FromPort) {
				errs = multierror.Append(errs, fmt.Errorf("Node \"%s\" does not declare output port \"%s\"", e.From, e.FromPort))
			}
		} else if fromNode.UsesPorts() && toNode.UsesPorts() {
			errs = multierror.Append(errs, fmt.Errorf("Edge from ported node \"%s\" to ported node \"%s\" must name a source port", e.From, e.To))
		}
		if toNode.UsesPorts() && !declaresPort(toNode.InputPorts(), e.ToPort) {
			errs = multierror.Append(errs, fmt.Errorf("Node \"%s\" does not declare input port \"%s\"", e.To, e.ToPort))
		}
		if connected[e.To] == nil {
			connected[e.To] = make(map[string]bool)
		}
		if connected[e.To][e.ToPort] {
			errs = multierror.Append(errs, fmt.Errorf("Node \"%s\" input port \"%s\" is fed by more than one edge", e.To, e.ToPort))
		}
		connected[e.To][e.ToPort] = true
		g.addEdge(e)
	}

	for _, uid := range g.order {
		node := g.nodes[uid]
		if !node.UsesPorts() || node.Flags().Load || node.Preloaded() != nil {
			continue
		}
		for _, port := range node.InputPorts() {
			if port.Optional {
				continue
			}
			if !connected[uid][port.Name] {
				errs = multierror.Append(errs, fmt.Errorf("Node \"%s\" input port \"%s\" is not connected", uid, port.Name))
			}
		}
	}

	if err := findCycle(g); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return g, nil
}

func createCollectorNode() (gflow.Node, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %v", err)
	}
	return CreateTaskNode(&TaskNodeConfig{
		UID: fmt.Sprintf("collector-%s", id.String()),
		PositionalProcess: func(inputs []gflow.Dataset) (gflow.Dataset, error) {
			return nil, nil
		},
	})
}

func declaresPort(ports []gflow.PortSpec, name string) bool {
	for _, p := range ports {
		if p.Name == name {
			return true
		}
	}
	return false
}

const (
	white = iota
	gray
	black
)

// findCycle walks the graph depth-first and reports the first cycle it
// encounters, with the full path in the error
func findCycle(g *Graph) error {
	colors := make(map[string]int, len(g.order))
	path := make([]string, 0)
	var visit func(uid string) error
	visit = func(uid string) error {
		colors[uid] = gray
		path = append(path, uid)
		for _, e := range g.Outbound(uid) {
			switch colors[e.To] {
			case gray:
				start := 0
				for i, p := range path {
					if p == e.To {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), e.To)
				return fmt.Errorf("Cycle detected: %s", strings.Join(cycle, " -> "))
			case white:
				if err := visit(e.To); err != nil {
					return err
				}
			}
		}
		colors[uid] = black
		path = path[:len(path)-1]
		return nil
	}
	for _, uid := range g.order {
		if colors[uid] == white {
			if err := visit(uid); err != nil {
				return err
			}
		}
	}
	return nil
}
