// Package schema implements the @-macro interpreter for column-schema
// operations. Each of a node's required/addition/deletion/retention/rename
// maps is translated against the node's configuration before use.
package schema

import (
	"strings"

	"github.com/go-gflow/gflow"
	"github.com/go-gflow/gflow/errors"
)

const macroPrefix = "@"

// Translate resolves @-prefixed entries of one column-operation map against
// a node's configuration:
//
//   - a type "@field" is replaced with the string value of conf["field"]
//   - a column name "@field" whose conf value is a string becomes a single
//     column of that name, keeping the (resolved) type
//   - a column name "@field" whose conf value is a sequence of strings
//     expands into one column per element, each with AnyType, discarding the
//     declared type
//
// Non-@ entries pass through unchanged. A name macro resolving to any other
// value kind drops the entry; a missing configuration key or a non-string
// type value is a ConfigKeyError.
func Translate(cols gflow.ColumnSchema, conf gflow.Conf, nodeUID string) (gflow.ColumnSchema, error) {
	output := make(gflow.ColumnSchema, len(cols))
	for colName, colType := range cols {
		if strings.HasPrefix(string(colType), macroPrefix) {
			field := string(colType)[len(macroPrefix):]
			resolved, ok := conf.GetString(field)
			if !ok {
				return nil, errors.ConfigKeyError{Node: nodeUID, Key: field}
			}
			colType = gflow.TypeTag(resolved)
		}
		if !strings.HasPrefix(colName, macroPrefix) {
			output[colName] = colType
			continue
		}
		field := colName[len(macroPrefix):]
		if _, ok := conf[field]; !ok {
			return nil, errors.ConfigKeyError{Node: nodeUID, Key: field}
		}
		if name, ok := conf.GetString(field); ok {
			output[name] = colType
		} else if names, ok := conf.GetStrings(field); ok {
			for _, name := range names {
				output[name] = gflow.AnyType
			}
		}
		// any other value kind drops the entry
	}
	return output, nil
}
