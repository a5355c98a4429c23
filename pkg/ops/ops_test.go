package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadbridge/pkg/document"
	"cadbridge/pkg/persistence"
	"cadbridge/pkg/proto"
)

func newTestExecutor() *Executor {
	return NewExecutor(document.NewState())
}

func run(t *testing.T, ex *Executor, op string, args map[string]any) *proto.Result {
	t.Helper()
	return ex.Execute(proto.NewCall(op, args))
}

func mustSucceed(t *testing.T, ex *Executor, op string, args map[string]any) string {
	t.Helper()
	res := run(t, ex, op, args)
	if !res.OK() {
		t.Fatalf("%s failed: %s (%s)", op, res.Failure.Message, res.Failure.Kind)
	}
	return res.Value
}

func mustFail(t *testing.T, ex *Executor, op string, args map[string]any, kind proto.FailureKind) string {
	t.Helper()
	res := run(t, ex, op, args)
	if res.OK() {
		t.Fatalf("%s succeeded, expected %s failure", op, kind)
	}
	if res.Failure.Kind != kind {
		t.Fatalf("%s failure kind = %s, want %s", op, res.Failure.Kind, kind)
	}
	return res.Failure.Message
}

func TestCreateDocument(t *testing.T) {
	ex := newTestExecutor()
	value := mustSucceed(t, ex, OpCreateDocument, map[string]any{"name": "Widget"})
	if value != "Created document: Widget" {
		t.Errorf("Unexpected confirmation: %q", value)
	}
	if !ex.State().HasDocument() {
		t.Error("Expected active document after create_document")
	}

	// A second create replaces the document unconditionally.
	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 1, "height": 1})
	mustSucceed(t, ex, OpCreateDocument, map[string]any{"name": "Fresh"})
	if got := ex.State().Active().Count(); got != 0 {
		t.Errorf("Replacement document has %d objects, want 0", got)
	}
}

func TestCreateBoxDefaults(t *testing.T) {
	ex := newTestExecutor()

	// No document yet: the creator makes a default one.
	value := mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 10, "width": 20, "height": 30})
	if value != "Created box 'Box_0' with dimensions 10x20x30mm" {
		t.Errorf("Unexpected confirmation: %q", value)
	}
	if ex.State().Active().Name != "Document" {
		t.Errorf("Default document name = %q", ex.State().Active().Name)
	}

	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 1, "height": 1})
	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 1, "height": 1})

	names := []string{}
	for _, obj := range ex.State().Active().Objects() {
		names = append(names, obj.Name)
	}
	want := []string{"Box_0", "Box_1", "Box_2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Object %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestCreateBoxMissingArgument(t *testing.T) {
	ex := newTestExecutor()
	msg := mustFail(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 1}, proto.FailInvalidArgument)
	if !strings.Contains(msg, "height") {
		t.Errorf("Expected message naming the missing argument, got %q", msg)
	}
}

func TestCreateCylinderAndSphere(t *testing.T) {
	ex := newTestExecutor()
	value := mustSucceed(t, ex, OpCreateCylinder, map[string]any{
		"radius": 5, "height": 12.5,
		"position": map[string]any{"x": 1, "y": 2, "z": 3},
	})
	if value != "Created cylinder 'Cylinder_0' with radius 5mm and height 12.5mm" {
		t.Errorf("Unexpected confirmation: %q", value)
	}
	obj, err := ex.State().Active().GetObject("Cylinder_0")
	if err != nil {
		t.Fatal(err)
	}
	if obj.Placement.Base.Y != 2 {
		t.Errorf("Cylinder position Y = %g, want 2", obj.Placement.Base.Y)
	}

	value = mustSucceed(t, ex, OpCreateSphere, map[string]any{"radius": 4, "name": "Ball"})
	if value != "Created sphere 'Ball' with radius 4mm" {
		t.Errorf("Unexpected confirmation: %q", value)
	}
}

func TestBooleanOperation(t *testing.T) {
	ex := newTestExecutor()

	// No document: reported, not repaired.
	mustFail(t, ex, OpBooleanOperation, map[string]any{
		"operation": "cut", "base_object": "A", "tool_object": "B",
	}, proto.FailNoDocument)

	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 2, "width": 2, "height": 2})
	mustSucceed(t, ex, OpCreateSphere, map[string]any{"radius": 1})

	msg := mustFail(t, ex, OpBooleanOperation, map[string]any{
		"operation": "cut", "base_object": "Box_0", "tool_object": "Ghost",
	}, proto.FailObjectNotFound)
	if msg != "Could not find objects: Box_0, Ghost" {
		t.Errorf("Unexpected message: %q", msg)
	}
	// The failed boolean created nothing.
	if got := ex.State().Active().Count(); got != 2 {
		t.Errorf("Object count after failed boolean = %d, want 2", got)
	}

	mustFail(t, ex, OpBooleanOperation, map[string]any{
		"operation": "xor", "base_object": "Box_0", "tool_object": "Sphere_1",
	}, proto.FailInvalidArgument)

	value := mustSucceed(t, ex, OpBooleanOperation, map[string]any{
		"operation": "cut", "base_object": "Box_0", "tool_object": "Sphere_1",
	})
	if value != "Created cut operation 'cut_2'" {
		t.Errorf("Unexpected confirmation: %q", value)
	}
	cut, err := ex.State().Active().GetObject("cut_2")
	if err != nil {
		t.Fatal(err)
	}
	if cut.TypeID != document.TypeCut || cut.Base != "Box_0" || cut.Tool != "Sphere_1" {
		t.Errorf("Unexpected boolean object: %+v", cut)
	}
}

func TestMoveObjectIsRelative(t *testing.T) {
	ex := newTestExecutor()
	mustSucceed(t, ex, OpCreateBox, map[string]any{
		"length": 1, "width": 1, "height": 1,
		"position": map[string]any{"x": 5},
	})

	value := mustSucceed(t, ex, OpMoveObject, map[string]any{
		"object_name": "Box_0",
		"vector":      map[string]any{"x": 10, "z": 3},
	})
	if value != "Moved 'Box_0' by (10, 0, 3)" {
		t.Errorf("Unexpected confirmation: %q", value)
	}

	obj, _ := ex.State().Active().GetObject("Box_0")
	if obj.Placement.Base.X != 15 || obj.Placement.Base.Z != 3 {
		t.Errorf("Position after move = %+v, want (15, 0, 3)", obj.Placement.Base)
	}

	// A second identical move accumulates rather than replacing.
	mustSucceed(t, ex, OpMoveObject, map[string]any{
		"object_name": "Box_0",
		"vector":      map[string]any{"x": 10, "z": 3},
	})
	if obj.Placement.Base.X != 25 || obj.Placement.Base.Z != 6 {
		t.Errorf("Position after second move = %+v, want (25, 0, 6)", obj.Placement.Base)
	}

	mustFail(t, ex, OpMoveObject, map[string]any{
		"object_name": "Ghost", "vector": map[string]any{"x": 1},
	}, proto.FailObjectNotFound)
}

func TestRotateObjectReplacesRotation(t *testing.T) {
	ex := newTestExecutor()
	mustSucceed(t, ex, OpCreateBox, map[string]any{
		"length": 1, "width": 1, "height": 1,
		"position": map[string]any{"x": 7},
	})

	mustSucceed(t, ex, OpRotateObject, map[string]any{
		"object_name": "Box_0", "angle": 45,
		"axis": map[string]any{"x": 1},
	})
	value := mustSucceed(t, ex, OpRotateObject, map[string]any{
		"object_name": "Box_0", "angle": 90,
	})
	if value != "Rotated 'Box_0' around axis (0, 0, 1) by 90 degrees" {
		t.Errorf("Unexpected confirmation: %q", value)
	}

	obj, _ := ex.State().Active().GetObject("Box_0")
	// The second rotation overwrote the first; position is untouched.
	if obj.Placement.Rotation.AngleDeg != 90 || obj.Placement.Rotation.Axis.X != 0 {
		t.Errorf("Rotation after second rotate = %+v", obj.Placement.Rotation)
	}
	if obj.Placement.Base.X != 7 {
		t.Errorf("Rotate moved the object: %+v", obj.Placement.Base)
	}
}

func TestExportSTL(t *testing.T) {
	ex := newTestExecutor()

	mustFail(t, ex, OpExportSTL, map[string]any{
		"objects": []any{"Box_0"}, "filepath": "unused.stl",
	}, proto.FailNoDocument)

	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 1, "height": 1})
	mustSucceed(t, ex, OpCreateSphere, map[string]any{"radius": 1})

	dir := t.TempDir()
	path := filepath.Join(dir, "out.stl")

	// Unknown names are skipped silently.
	value := mustSucceed(t, ex, OpExportSTL, map[string]any{
		"objects": []any{"Box_0", "Ghost", "Sphere_1"}, "filepath": path,
	})
	if value != "Exported 2 objects to: "+path {
		t.Errorf("Unexpected confirmation: %q", value)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("STL file not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "solid ") {
		t.Error("Expected ASCII STL output")
	}

	// Zero resolved objects: no file, no error.
	missing := filepath.Join(dir, "none.stl")
	value = mustSucceed(t, ex, OpExportSTL, map[string]any{
		"objects": []any{"Ghost"}, "filepath": missing,
	})
	if value != "No valid objects found for export" {
		t.Errorf("Unexpected confirmation: %q", value)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("Expected no file for empty export")
	}
}

func TestListObjects(t *testing.T) {
	ex := newTestExecutor()
	mustFail(t, ex, OpListObjects, nil, proto.FailNoDocument)

	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 1, "height": 1})
	mustSucceed(t, ex, OpCreateSphere, map[string]any{"radius": 2})
	mustSucceed(t, ex, OpBooleanOperation, map[string]any{
		"operation": "union", "base_object": "Box_0", "tool_object": "Sphere_1",
	})

	value := mustSucceed(t, ex, OpListObjects, nil)
	want := "Objects in document:\n- Box_0 (Box)\n- Sphere_1 (Sphere)\n- union_2 (Fuse)"
	if value != want {
		t.Errorf("list_objects = %q, want %q", value, want)
	}
}

func TestSaveDocument(t *testing.T) {
	ex := newTestExecutor()
	mustFail(t, ex, OpSaveDocument, map[string]any{"filepath": "x"}, proto.FailNoDocument)

	mustSucceed(t, ex, OpCreateDocument, map[string]any{"name": "Widget"})
	mustSucceed(t, ex, OpCreateBox, map[string]any{"length": 1, "width": 2, "height": 3})

	path := filepath.Join(t.TempDir(), "widget.FCStd")
	value := mustSucceed(t, ex, OpSaveDocument, map[string]any{"filepath": path})
	if value != "Document saved to: "+path {
		t.Errorf("Unexpected confirmation: %q", value)
	}

	loaded, err := persistence.LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	if loaded.Name != "Widget" || loaded.Count() != 1 {
		t.Errorf("Loaded document %q with %d objects", loaded.Name, loaded.Count())
	}
}

func TestSketchOpsNotImplemented(t *testing.T) {
	ex := newTestExecutor()
	value := mustSucceed(t, ex, OpCreateSketch, map[string]any{"plane": "XY"})
	if !strings.HasPrefix(value, "Not implemented:") {
		t.Errorf("Unexpected value: %q", value)
	}
	// Sketch ops still repair a missing document.
	if !ex.State().HasDocument() {
		t.Error("Expected default document after create_sketch")
	}

	value = mustSucceed(t, ex, OpCreatePad, map[string]any{"sketch_name": "Sketch", "length": 5})
	if !strings.HasPrefix(value, "Not implemented: create_pad") {
		t.Errorf("Unexpected value: %q", value)
	}
	value = mustSucceed(t, ex, OpCreatePocket, map[string]any{"sketch_name": "Sketch", "length": 5})
	if !strings.HasPrefix(value, "Not implemented: create_pocket") {
		t.Errorf("Unexpected value: %q", value)
	}
}

func TestUnknownOperation(t *testing.T) {
	ex := newTestExecutor()
	res := run(t, ex, "destroy_everything", nil)
	if res.OK() {
		t.Fatal("Expected failure for unknown operation")
	}
	if res.Failure.Kind != proto.FailUnknownOperation {
		t.Errorf("Kind = %s, want %s", res.Failure.Kind, proto.FailUnknownOperation)
	}
}

func TestRegistryList(t *testing.T) {
	if !Known(OpCreateBox) || Known("no_such_op") {
		t.Error("Known() misreports registry contents")
	}
	metas := List()
	if len(metas) != 13 {
		t.Errorf("Registered operations = %d, want 13", len(metas))
	}
	for i := 1; i < len(metas); i++ {
		if metas[i-1].Name >= metas[i].Name {
			t.Errorf("List not sorted: %s before %s", metas[i-1].Name, metas[i].Name)
		}
	}
}
