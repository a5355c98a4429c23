package ops

import (
	"fmt"

	"cadbridge/pkg/document"
	"cadbridge/pkg/proto"
)

func init() {
	Register(OpBooleanOperation, booleanOperation, &Meta{
		Name:        OpBooleanOperation,
		Description: "Combine two objects with a boolean cut, intersection, or union.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"operation":   {Type: "string", Description: "Boolean variant to apply", Enum: []string{BoolCut, BoolIntersection, BoolUnion}},
				"base_object": {Type: "string", Description: "Name of the base object"},
				"tool_object": {Type: "string", Description: "Name of the tool object"},
				"result_name": {Type: "string", Description: "Result object name. Defaults to <operation>_<count>."},
			},
			Required: []string{"operation", "base_object", "tool_object"},
		},
	})
}

func booleanOperation(ex *Executor, args map[string]any) (string, error) {
	doc, err := ex.state.EnsureDocument()
	if err != nil {
		ex.logger.Info("BooleanOperation: No document available, ignoring boolean operation...")
		return "", err
	}

	operation, err := stringArg(args, "operation")
	if err != nil {
		return "", err
	}
	baseName, err := stringArg(args, "base_object")
	if err != nil {
		return "", err
	}
	toolName, err := stringArg(args, "tool_object")
	if err != nil {
		return "", err
	}
	resultName := stringArgOrDefault(args, "result_name", doc.DefaultName(operation))

	baseObj, baseErr := doc.GetObject(baseName)
	toolObj, toolErr := doc.GetObject(toolName)
	if baseErr != nil || toolErr != nil {
		return "", proto.FailErrorf(proto.FailObjectNotFound, "Could not find objects: %s, %s", baseName, toolName)
	}

	var typeID string
	switch operation {
	case BoolCut:
		typeID = document.TypeCut
	case BoolIntersection:
		typeID = document.TypeCommon
	case BoolUnion:
		typeID = document.TypeFuse
	default:
		return "", proto.FailErrorf(proto.FailInvalidArgument, "Unknown operation: %s", operation)
	}

	result := &document.Object{
		Name:    resultName,
		TypeID:  typeID,
		Visible: true,
		Base:    baseObj.Name,
		Tool:    toolObj.Name,
	}
	if err := doc.AddObject(result); err != nil {
		return "", err
	}
	doc.Recompute()
	return fmt.Sprintf("Created %s operation '%s'", operation, resultName), nil
}
