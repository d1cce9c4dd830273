package gflow

// DatasetKind describes the runtime shape of a Dataset
type DatasetKind int

const (
	// EmptyDataset indicates a Dataset which carries no data
	EmptyDataset DatasetKind = iota
	// TableDataset indicates an in-memory columnar table
	TableDataset
	// DistributedDataset indicates a lazy table composed of partitions
	DistributedDataset
	// OpaqueDataset indicates an arbitrary non-tabular payload
	OpaqueDataset
	// GroupDataset indicates an ordered list of Datasets, produced when a
	// ported node hands data to a positional node without naming a port
	GroupDataset
)

// String returns a textual representation of this DatasetKind
func (k DatasetKind) String() string {
	switch k {
	case EmptyDataset:
		return "empty"
	case TableDataset:
		return "table"
	case DistributedDataset:
		return "distributed"
	case OpaqueDataset:
		return "opaque"
	case GroupDataset:
		return "group"
	default:
		return "unknown"
	}
}

// KindSet is the set of DatasetKinds a port declares it may carry
type KindSet []DatasetKind

// Contains returns true iff kind is a member of this KindSet
func (s KindSet) Contains(kind DatasetKind) bool {
	for _, k := range s {
		if k == kind {
			return true
		}
	}
	return false
}

// With returns a KindSet containing every member of this KindSet plus kind.
// The receiver is returned unchanged if kind is already a member.
func (s KindSet) With(kind DatasetKind) KindSet {
	if s.Contains(kind) {
		return s
	}
	res := make(KindSet, len(s), len(s)+1)
	copy(res, s)
	return append(res, kind)
}

// A Dataset is an opaque handle to data flowing along graph edges. Concrete
// implementations live in the dataset package.
type Dataset interface {
	Kind() DatasetKind // Kind returns the runtime shape of this Dataset
}

// Tabular is a Dataset which can answer columnar questions about itself.
// Answering may require materialization for distributed implementations,
// hence the error returns.
type Tabular interface {
	Dataset
	Len() (int, error)                  // Len returns the number of rows in this Dataset
	ColumnNames() ([]string, error)     // ColumnNames returns the names of the columns in this Dataset
	DType(colName string) (TypeTag, error) // DType returns the type tag of a named column
}
