package dataset

import (
	"github.com/go-gflow/gflow"
)

// Empty is a Dataset which carries no data
type Empty struct{}

// CreateEmpty produces an Empty Dataset
func CreateEmpty() *Empty {
	return &Empty{}
}

// Kind returns the runtime shape of this Empty
func (e *Empty) Kind() gflow.DatasetKind {
	return gflow.EmptyDataset
}

// Opaque wraps an arbitrary non-tabular payload as a Dataset
type Opaque struct {
	payload interface{}
}

// CreateOpaque produces an Opaque Dataset wrapping a payload
func CreateOpaque(payload interface{}) *Opaque {
	return &Opaque{payload: payload}
}

// Kind returns the runtime shape of this Opaque
func (o *Opaque) Kind() gflow.DatasetKind {
	return gflow.OpaqueDataset
}

// Payload returns the wrapped payload of this Opaque
func (o *Opaque) Payload() interface{} {
	return o.payload
}

// Group is an ordered list of Datasets, produced when a ported node with
// multiple output ports hands data to a positional node without naming a
// port
type Group struct {
	items []gflow.Dataset
}

// CreateGroup produces a Group from an ordered list of Datasets
func CreateGroup(items ...gflow.Dataset) *Group {
	return &Group{items: items}
}

// Kind returns the runtime shape of this Group
func (g *Group) Kind() gflow.DatasetKind {
	return gflow.GroupDataset
}

// Items returns the ordered Datasets composing this Group
func (g *Group) Items() []gflow.Dataset {
	return g.items
}
