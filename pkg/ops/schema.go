package ops

// InputSchema describes an operation's argument shape in JSON Schema form, as
// surfaced through the tools/list RPC method.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Meta contains metadata about an operation for discovery.
type Meta struct {
	Name        string
	Description string
	InputSchema InputSchema
}

// vectorProperty is the {x, y, z} argument shape shared by positions, deltas,
// and axes.
func vectorProperty(desc string) Property {
	return Property{Type: "object", Description: desc}
}
