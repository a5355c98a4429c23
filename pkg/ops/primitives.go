package ops

import (
	"fmt"

	"cadbridge/pkg/document"
	"cadbridge/pkg/geom"
)

func init() {
	Register(OpCreateBox, createBox, &Meta{
		Name:        OpCreateBox,
		Description: "Create a box primitive in the active document, creating a default document if none exists.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"length":   {Type: "number", Description: "Box length along X in mm"},
				"width":    {Type: "number", Description: "Box width along Y in mm"},
				"height":   {Type: "number", Description: "Box height along Z in mm"},
				"position": vectorProperty("Placement of the box corner. Defaults to the origin."),
				"name":     {Type: "string", Description: "Object name. Defaults to Box_<count>."},
			},
			Required: []string{"length", "width", "height"},
		},
	})
	Register(OpCreateCylinder, createCylinder, &Meta{
		Name:        OpCreateCylinder,
		Description: "Create a cylinder primitive in the active document, creating a default document if none exists.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"radius":   {Type: "number", Description: "Cylinder radius in mm"},
				"height":   {Type: "number", Description: "Cylinder height along Z in mm"},
				"position": vectorProperty("Placement of the base center. Defaults to the origin."),
				"name":     {Type: "string", Description: "Object name. Defaults to Cylinder_<count>."},
			},
			Required: []string{"radius", "height"},
		},
	})
	Register(OpCreateSphere, createSphere, &Meta{
		Name:        OpCreateSphere,
		Description: "Create a sphere primitive in the active document, creating a default document if none exists.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"radius":   {Type: "number", Description: "Sphere radius in mm"},
				"position": vectorProperty("Placement of the sphere center. Defaults to the origin."),
				"name":     {Type: "string", Description: "Object name. Defaults to Sphere_<count>."},
			},
			Required: []string{"radius"},
		},
	})
}

func createBox(ex *Executor, args map[string]any) (string, error) {
	doc := ensureDocumentForCreator(ex)

	length, err := floatArg(args, "length")
	if err != nil {
		return "", err
	}
	width, err := floatArg(args, "width")
	if err != nil {
		return "", err
	}
	height, err := floatArg(args, "height")
	if err != nil {
		return "", err
	}
	position, err := vecArg(args, "position", geom.Vec3{})
	if err != nil {
		return "", err
	}
	name := stringArgOrDefault(args, "name", doc.DefaultName("Box"))

	obj := &document.Object{
		Name:      name,
		TypeID:    document.TypeBox,
		Placement: geom.Placement{Base: position},
		Visible:   true,
		Length:    length,
		Width:     width,
		Height:    height,
	}
	if err := doc.AddObject(obj); err != nil {
		return "", err
	}
	doc.Recompute()
	return fmt.Sprintf("Created box '%s' with dimensions %gx%gx%gmm", name, length, width, height), nil
}

func createCylinder(ex *Executor, args map[string]any) (string, error) {
	doc := ensureDocumentForCreator(ex)

	radius, err := floatArg(args, "radius")
	if err != nil {
		return "", err
	}
	height, err := floatArg(args, "height")
	if err != nil {
		return "", err
	}
	position, err := vecArg(args, "position", geom.Vec3{})
	if err != nil {
		return "", err
	}
	name := stringArgOrDefault(args, "name", doc.DefaultName("Cylinder"))

	obj := &document.Object{
		Name:      name,
		TypeID:    document.TypeCylinder,
		Placement: geom.Placement{Base: position},
		Visible:   true,
		Radius:    radius,
		Height:    height,
	}
	if err := doc.AddObject(obj); err != nil {
		return "", err
	}
	doc.Recompute()
	return fmt.Sprintf("Created cylinder '%s' with radius %gmm and height %gmm", name, radius, height), nil
}

func createSphere(ex *Executor, args map[string]any) (string, error) {
	doc := ensureDocumentForCreator(ex)

	radius, err := floatArg(args, "radius")
	if err != nil {
		return "", err
	}
	position, err := vecArg(args, "position", geom.Vec3{})
	if err != nil {
		return "", err
	}
	name := stringArgOrDefault(args, "name", doc.DefaultName("Sphere"))

	obj := &document.Object{
		Name:      name,
		TypeID:    document.TypeSphere,
		Placement: geom.Placement{Base: position},
		Visible:   true,
		Radius:    radius,
	}
	if err := doc.AddObject(obj); err != nil {
		return "", err
	}
	doc.Recompute()
	return fmt.Sprintf("Created sphere '%s' with radius %gmm", name, radius), nil
}
