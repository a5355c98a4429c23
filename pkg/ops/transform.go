package ops

import (
	"fmt"

	"cadbridge/pkg/geom"
)

func init() {
	Register(OpMoveObject, moveObject, &Meta{
		Name:        OpMoveObject,
		Description: "Translate an object by a delta vector relative to its current position.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"object_name": {Type: "string", Description: "Name of the object to move"},
				"vector":      vectorProperty("Translation delta in mm. Missing components default to 0."),
			},
			Required: []string{"object_name", "vector"},
		},
	})
	Register(OpRotateObject, rotateObject, &Meta{
		Name:        OpRotateObject,
		Description: "Set an object's rotation to the given axis and angle, preserving its position.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"object_name": {Type: "string", Description: "Name of the object to rotate"},
				"axis":        vectorProperty("Rotation axis. Missing components default to (0, 0, 1)."),
				"angle":       {Type: "number", Description: "Rotation angle in degrees"},
			},
			Required: []string{"object_name", "angle"},
		},
	})
}

func moveObject(ex *Executor, args map[string]any) (string, error) {
	doc, err := ex.state.EnsureDocument()
	if err != nil {
		ex.logger.Warn("MoveObject: No document available, ignoring request...")
		return "", err
	}

	objectName, err := stringArg(args, "object_name")
	if err != nil {
		return "", err
	}
	delta, err := vecArg(args, "vector", geom.Vec3{})
	if err != nil {
		return "", err
	}

	obj, err := doc.GetObject(objectName)
	if err != nil {
		ex.logger.Warn("MoveObject: Object not found: %s", objectName)
		return "", err
	}

	obj.Placement.Base = obj.Placement.Base.Add(delta)
	doc.Recompute()
	return fmt.Sprintf("Moved '%s' by (%g, %g, %g)", objectName, delta.X, delta.Y, delta.Z), nil
}

func rotateObject(ex *Executor, args map[string]any) (string, error) {
	doc, err := ex.state.EnsureDocument()
	if err != nil {
		ex.logger.Warn("RotateObject: No document available, ignoring request...")
		return "", err
	}

	objectName, err := stringArg(args, "object_name")
	if err != nil {
		return "", err
	}
	angle, err := floatArg(args, "angle")
	if err != nil {
		return "", err
	}
	axis, err := vecArg(args, "axis", geom.Vec3{Z: 1})
	if err != nil {
		return "", err
	}

	obj, err := doc.GetObject(objectName)
	if err != nil {
		ex.logger.Warn("RotateObject: Object not found: %s", objectName)
		return "", err
	}

	// Rotation is replaced outright; only the position survives.
	obj.Placement = geom.Placement{
		Base:     obj.Placement.Base,
		Rotation: geom.Rotation{Axis: axis, AngleDeg: angle},
	}
	doc.Recompute()
	return fmt.Sprintf("Rotated '%s' around axis (%g, %g, %g) by %g degrees",
		objectName, axis.X, axis.Y, axis.Z, angle), nil
}
