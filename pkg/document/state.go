package document

import "cadbridge/pkg/proto"

// State is the single active-document handle shared by all operations. It is
// read and written only from the executor goroutine; the serial drain is what
// makes that safe.
type State struct {
	active     *Document
	activeBody *Object
}

// NewState creates a handle with no active document.
func NewState() *State {
	return &State{}
}

// Active returns the active document, or nil when none exists.
func (s *State) Active() *Document {
	return s.active
}

// SetActive replaces the active document. Any previous document and body
// context are discarded.
func (s *State) SetActive(doc *Document) {
	s.active = doc
	s.activeBody = nil
}

// ActiveBody returns the body context sketch-based operations target, or nil.
func (s *State) ActiveBody() *Object {
	return s.activeBody
}

// SetActiveBody replaces the body context.
func (s *State) SetActiveBody(obj *Object) {
	s.activeBody = obj
}

// HasDocument reports whether a document is active.
func (s *State) HasDocument() bool {
	return s.active != nil
}

// EnsureDocument returns the active document or a NO_DOCUMENT failure.
func (s *State) EnsureDocument() (*Document, error) {
	if s.active == nil {
		return nil, proto.FailErrorf(proto.FailNoDocument, "No active document")
	}
	return s.active, nil
}
