package ops

import (
	"fmt"

	"cadbridge/pkg/geom"
)

func init() {
	Register(OpExportSTL, exportSTL, &Meta{
		Name:        OpExportSTL,
		Description: "Tessellate the named objects and write a single combined ASCII STL file.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"objects":  {Type: "array", Description: "Ordered names of objects to export"},
				"filepath": {Type: "string", Description: "Destination STL file path"},
			},
			Required: []string{"objects", "filepath"},
		},
	})
}

func exportSTL(ex *Executor, args map[string]any) (string, error) {
	doc, err := ex.state.EnsureDocument()
	if err != nil {
		ex.logger.Warn("ExportSTL: No document available, nothing to export, ignoring request...")
		return "", err
	}

	filepath, err := stringArg(args, "filepath")
	if err != nil {
		return "", err
	}
	objectNames, err := stringsArg(args, "objects")
	if err != nil {
		return "", err
	}

	// Names that do not resolve are skipped, not errors.
	combined := &geom.Mesh{}
	exported := 0
	for _, name := range objectNames {
		obj, err := doc.GetObject(name)
		if err != nil {
			continue
		}
		mesh, err := doc.MeshFor(obj)
		if err != nil {
			ex.logger.Debug("ExportSTL: Skipping %s: %v", name, err)
			continue
		}
		ex.logger.Debug("ExportSTL: Adding object to mesh: %s", obj.Name)
		combined.Merge(mesh)
		exported++
	}

	if exported == 0 {
		ex.logger.Debug("ExportSTL: No valid objects found for export")
		return "No valid objects found for export", nil
	}

	if err := combined.WriteFile(filepath, doc.Name); err != nil {
		return "", err
	}
	ex.logger.Debug("ExportSTL: Exported %d objects to: %s", exported, filepath)
	return fmt.Sprintf("Exported %d objects to: %s", exported, filepath), nil
}
