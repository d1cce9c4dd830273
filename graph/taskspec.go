package graph

import (
	"fmt"

	"github.com/go-gflow/gflow"
	"github.com/tidwall/gjson"
)

// TaskSpec describes one node of a graph, as parsed from a task-spec
// document or constructed programmatically
type TaskSpec struct {
	ID               string            // uid for the node
	Type             string            // registered node type name
	Conf             gflow.Conf        // node configuration
	Inputs           map[string]string // ported inputs: port -> "node" or "node.port"
	PositionalInputs []string          // positional inputs, in order
	Flags            gflow.ExecFlags
}

// ParseTaskSpecs parses a JSON task-spec document: an array of objects with
// "id", "type" and optional "conf", "inputs" (an object for ported nodes, an
// array for positional ones) and the boolean flags "load", "save",
// "delayed_process", "profile" and "clear_input".
func ParseTaskSpecs(data []byte) ([]*TaskSpec, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("Task spec document is not valid JSON")
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("Task spec document must be a JSON array")
	}
	specs := make([]*TaskSpec, 0)
	var parseErr error
	parsed.ForEach(func(_, task gjson.Result) bool {
		spec := &TaskSpec{
			ID:   task.Get("id").String(),
			Type: task.Get("type").String(),
		}
		if len(spec.ID) == 0 {
			parseErr = fmt.Errorf("Task spec entry %d has no \"id\"", len(specs))
			return false
		}
		if conf := task.Get("conf"); conf.Exists() {
			m, ok := conf.Value().(map[string]interface{})
			if !ok {
				parseErr = fmt.Errorf("Task spec \"%s\" has a non-object \"conf\"", spec.ID)
				return false
			}
			spec.Conf = gflow.Conf(m)
		}
		if inputs := task.Get("inputs"); inputs.Exists() {
			switch {
			case inputs.IsObject():
				spec.Inputs = make(map[string]string)
				inputs.ForEach(func(port, ref gjson.Result) bool {
					if ref.Type != gjson.String {
						parseErr = fmt.Errorf("Task spec \"%s\" input \"%s\" must be a string reference", spec.ID, port.String())
						return false
					}
					spec.Inputs[port.String()] = ref.String()
					return true
				})
			case inputs.IsArray():
				inputs.ForEach(func(_, ref gjson.Result) bool {
					if ref.Type != gjson.String {
						parseErr = fmt.Errorf("Task spec \"%s\" inputs must be string references", spec.ID)
						return false
					}
					spec.PositionalInputs = append(spec.PositionalInputs, ref.String())
					return true
				})
			default:
				parseErr = fmt.Errorf("Task spec \"%s\" has \"inputs\" which are neither an object nor an array", spec.ID)
				return false
			}
			if parseErr != nil {
				return false
			}
		}
		spec.Flags = gflow.ExecFlags{
			Load:           task.Get("load").Bool(),
			Save:           task.Get("save").Bool(),
			DelayedProcess: task.Get("delayed_process").Bool(),
			Profile:        task.Get("profile").Bool(),
			ClearInput:     task.Get("clear_input").Bool(),
		}
		specs = append(specs, spec)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return specs, nil
}
