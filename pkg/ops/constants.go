package ops

// Operation names, one per inbound tool.
const (
	OpCreateDocument   = "create_document"
	OpCreateBox        = "create_box"
	OpCreateCylinder   = "create_cylinder"
	OpCreateSphere     = "create_sphere"
	OpBooleanOperation = "boolean_operation"
	OpMoveObject       = "move_object"
	OpRotateObject     = "rotate_object"
	OpExportSTL        = "export_stl"
	OpListObjects      = "list_objects"
	OpSaveDocument     = "save_document"
	OpCreateSketch     = "create_sketch"
	OpCreatePad        = "create_pad"
	OpCreatePocket     = "create_pocket"
)

// Boolean operation variants accepted by boolean_operation.
const (
	BoolCut          = "cut"
	BoolIntersection = "intersection"
	BoolUnion        = "union"
)

// defaultDocumentName is used when a creator runs with no active document.
const defaultDocumentName = "Document"
