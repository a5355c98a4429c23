package ops

import "fmt"

// Sketch-based modeling is routed but not functionally implemented. The
// handlers still repair a missing document so callers observe the same
// precondition behavior as the other creators, and they return an explicit
// "Not implemented" value rather than a hard failure.

func init() {
	Register(OpCreateSketch, createSketch, &Meta{
		Name:        OpCreateSketch,
		Description: "Create a sketch on a plane. Not yet implemented.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"plane": {Type: "string", Description: "Sketch plane (XY, XZ, YZ)"},
				"name":  {Type: "string", Description: "Sketch name"},
			},
		},
	})
	Register(OpCreatePad, createPad, &Meta{
		Name:        OpCreatePad,
		Description: "Extrude a sketch into a pad. Not yet implemented.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"sketch_name": {Type: "string", Description: "Sketch to extrude"},
				"length":      {Type: "number", Description: "Extrusion length in mm"},
				"name":        {Type: "string", Description: "Pad name"},
			},
		},
	})
	Register(OpCreatePocket, createPocket, &Meta{
		Name:        OpCreatePocket,
		Description: "Cut a pocket from a sketch. Not yet implemented.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"sketch_name": {Type: "string", Description: "Sketch to cut with"},
				"length":      {Type: "number", Description: "Pocket depth in mm"},
				"name":        {Type: "string", Description: "Pocket name"},
			},
		},
	})
}

func createSketch(ex *Executor, args map[string]any) (string, error) {
	ensureDocumentForCreator(ex)
	return fmt.Sprintf("Not implemented: %v", args), nil
}

func createPad(ex *Executor, args map[string]any) (string, error) {
	ensureDocumentForCreator(ex)
	return fmt.Sprintf("Not implemented: create_pad %v", args), nil
}

func createPocket(ex *Executor, args map[string]any) (string, error) {
	ensureDocumentForCreator(ex)
	return fmt.Sprintf("Not implemented: create_pocket %v", args), nil
}
