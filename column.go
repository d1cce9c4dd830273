package gflow

// TypeTag is the string type tag of a column, e.g. "int64" or "datetime64[ns]".
// The zero value AnyType matches any type.
type TypeTag string

const (
	// AnyType is the TypeTag which matches any column type
	AnyType TypeTag = ""
	// CategoricalType is the TypeTag for categorical columns
	CategoricalType TypeTag = "category"
	// DateType is the TypeTag for date columns, equivalent to any member of DateTypeTags
	DateType TypeTag = "date"
)

// DateTypeTags is the equivalence class of TypeTags which all satisfy a
// DateType expectation
var DateTypeTags = []TypeTag{"datetime64[ms]", DateType, "datetime64[ns]"}

// typeTagAliases folds shorthand tags to their canonical form
var typeTagAliases = map[TypeTag]TypeTag{
	"int":      "int64",
	"long":     "int64",
	"float":    "float64",
	"double":   "float64",
	"str":      "object",
	"string":   "object",
	"boolean":  "bool",
	"datetime": "datetime64[ns]",
}

// NormalizeTypeTag folds shorthand TypeTags to their canonical string form
func NormalizeTypeTag(tag TypeTag) TypeTag {
	if canonical, ok := typeTagAliases[tag]; ok {
		return canonical
	}
	return tag
}

// IsDateTypeTag returns true iff tag belongs to the date equivalence class
func IsDateTypeTag(tag TypeTag) bool {
	for _, t := range DateTypeTags {
		if tag == t {
			return true
		}
	}
	return false
}

// TypeTagsMatch returns true iff an actual column TypeTag satisfies an
// expected one, honouring the date and categorical equivalence classes.
// An AnyType expectation matches everything.
func TypeTagsMatch(expected TypeTag, actual TypeTag) bool {
	if expected == AnyType {
		return true
	}
	if expected == DateType {
		return IsDateTypeTag(actual)
	}
	if expected == CategoricalType {
		return actual == CategoricalType
	}
	return NormalizeTypeTag(expected) == NormalizeTypeTag(actual)
}

// ColumnSchema is a mapping from column names to TypeTags. Order is
// irrelevant.
type ColumnSchema map[string]TypeTag

// Clone returns a copy of this ColumnSchema
func (s ColumnSchema) Clone() ColumnSchema {
	res := make(ColumnSchema, len(s))
	for name, tag := range s {
		res[name] = tag
	}
	return res
}

// Merge copies every entry of other into this ColumnSchema, overwriting
// entries on name collision
func (s ColumnSchema) Merge(other ColumnSchema) {
	for name, tag := range other {
		s[name] = tag
	}
}

// FlattenSchemas flattens per-port ColumnSchemas into a single ColumnSchema.
// On a column name collision the last write wins, so positional nodes must
// not receive colliding column names across inputs.
func FlattenSchemas(perPort map[string]ColumnSchema) ColumnSchema {
	res := make(ColumnSchema)
	for _, cols := range perPort {
		res.Merge(cols)
	}
	return res
}
