package ops

import (
	"fmt"
	"strings"

	"cadbridge/pkg/document"
	"cadbridge/pkg/persistence"
)

func init() {
	Register(OpCreateDocument, createDocument, &Meta{
		Name:        OpCreateDocument,
		Description: "Create a new document, replacing any active one.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"name": {Type: "string", Description: "Document name. Defaults to Document."},
			},
		},
	})
	Register(OpListObjects, listObjects, &Meta{
		Name:        OpListObjects,
		Description: "List all objects in the active document with their type tags.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	})
	Register(OpSaveDocument, saveDocument, &Meta{
		Name:        OpSaveDocument,
		Description: "Save the active document to a file.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"filepath": {Type: "string", Description: "Destination file path"},
			},
			Required: []string{"filepath"},
		},
	})
}

func createDocument(ex *Executor, args map[string]any) (string, error) {
	ex.logger.Info("CreateDocument: Starting new document creation...")
	name := stringArgOrDefault(args, "name", defaultDocumentName)
	ex.state.SetActive(document.New(name))
	return fmt.Sprintf("Created document: %s", name), nil
}

func listObjects(ex *Executor, _ map[string]any) (string, error) {
	doc, err := ex.state.EnsureDocument()
	if err != nil {
		ex.logger.Warn("ListObjects: No document available, nothing to list, ignoring request...")
		return "", err
	}

	lines := make([]string, 0, doc.Count())
	for _, obj := range doc.Objects() {
		lines = append(lines, fmt.Sprintf("- %s (%s)", obj.Name, obj.TypeTag()))
	}
	ex.logger.Debug("ListObjects: Found %d objects in document", len(lines))
	return "Objects in document:\n" + strings.Join(lines, "\n"), nil
}

func saveDocument(ex *Executor, args map[string]any) (string, error) {
	doc, err := ex.state.EnsureDocument()
	if err != nil {
		ex.logger.Warn("SaveDocument: No document available, nothing to save, ignoring request...")
		return "", err
	}

	filepath, err := stringArg(args, "filepath")
	if err != nil {
		return "", err
	}
	if err := persistence.SaveDocument(filepath, doc); err != nil {
		return "", err
	}
	ex.logger.Debug("SaveDocument: Document saved to: %s", filepath)
	return fmt.Sprintf("Document saved to: %s", filepath), nil
}
