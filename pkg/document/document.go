// Package document models the in-memory CAD document: named feature objects
// with placements and parameters, held in creation order. All mutation happens
// on the executor goroutine, so the types here carry no locking of their own.
package document

import (
	"fmt"

	"cadbridge/pkg/geom"
	"cadbridge/pkg/proto"
)

// Type identifiers mirror the host kernel's namespaced feature types.
const (
	TypeBox      = "Part::Box"
	TypeCylinder = "Part::Cylinder"
	TypeSphere   = "Part::Sphere"
	TypeCut      = "Part::Cut"
	TypeCommon   = "Part::Common"
	TypeFuse     = "Part::Fuse"
	TypeSketch   = "Sketcher::SketchObject"
)

// Object is a single document feature. Which parameter fields are meaningful
// depends on TypeID: primitives use the dimension fields, booleans reference
// their operands by name.
type Object struct {
	Name      string         `json:"name"`
	TypeID    string         `json:"type_id"`
	Placement geom.Placement `json:"placement"`
	Visible   bool           `json:"visible"`

	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`

	Base string `json:"base,omitempty"`
	Tool string `json:"tool,omitempty"`
}

// TypeTag returns the short type name, the part after the namespace separator.
func (o *Object) TypeTag() string {
	for i := len(o.TypeID) - 2; i >= 0; i-- {
		if o.TypeID[i] == ':' && o.TypeID[i+1] == ':' {
			return o.TypeID[i+2:]
		}
	}
	return o.TypeID
}

// Document holds objects in creation order with name lookup.
type Document struct {
	Name     string
	Revision int

	objects []*Object
	index   map[string]*Object
}

// New creates an empty document.
func New(name string) *Document {
	return &Document{
		Name:  name,
		index: make(map[string]*Object),
	}
}

// DefaultName produces the automatic name for a new object of the given kind,
// numbered by the current object count.
func (d *Document) DefaultName(kind string) string {
	return fmt.Sprintf("%s_%d", kind, len(d.objects))
}

// AddObject inserts obj, failing on a duplicate name.
func (d *Document) AddObject(obj *Object) error {
	if obj.Name == "" {
		return fmt.Errorf("object name is required")
	}
	if _, exists := d.index[obj.Name]; exists {
		return fmt.Errorf("object %q already exists", obj.Name)
	}
	d.objects = append(d.objects, obj)
	d.index[obj.Name] = obj
	return nil
}

// GetObject looks up an object by name.
func (d *Document) GetObject(name string) (*Object, error) {
	obj, ok := d.index[name]
	if !ok {
		return nil, proto.FailErrorf(proto.FailObjectNotFound, "Object not found: %s", name)
	}
	return obj, nil
}

// Objects returns the objects in creation order. The slice is shared; callers
// must not modify it.
func (d *Document) Objects() []*Object {
	return d.objects
}

// Count returns the number of objects in the document.
func (d *Document) Count() int {
	return len(d.objects)
}

// Recompute marks the document as having been rebuilt after a mutation.
func (d *Document) Recompute() {
	d.Revision++
}

// MeshFor tessellates an object into document space, resolving boolean
// operands by name. Intersections and cuts approximate to the base operand's
// shape; unions merge both operand meshes.
func (d *Document) MeshFor(o *Object) (*geom.Mesh, error) {
	switch o.TypeID {
	case TypeBox:
		return geom.BoxMesh(o.Length, o.Width, o.Height).Transform(o.Placement), nil
	case TypeCylinder:
		return geom.CylinderMesh(o.Radius, o.Height).Transform(o.Placement), nil
	case TypeSphere:
		return geom.SphereMesh(o.Radius).Transform(o.Placement), nil
	case TypeCut, TypeCommon:
		base, err := d.GetObject(o.Base)
		if err != nil {
			return nil, err
		}
		m, err := d.MeshFor(base)
		if err != nil {
			return nil, err
		}
		return m.Transform(o.Placement), nil
	case TypeFuse:
		base, err := d.GetObject(o.Base)
		if err != nil {
			return nil, err
		}
		tool, err := d.GetObject(o.Tool)
		if err != nil {
			return nil, err
		}
		bm, err := d.MeshFor(base)
		if err != nil {
			return nil, err
		}
		tm, err := d.MeshFor(tool)
		if err != nil {
			return nil, err
		}
		bm.Merge(tm)
		return bm.Transform(o.Placement), nil
	default:
		return nil, fmt.Errorf("object %q has no solid shape", o.Name)
	}
}
