package domain

type TransformAction string

const (
	ActionRemoveBackground TransformAction = "remove-bg"
	ActionEdit             TransformAction = "edit"
	ActionExpand           TransformAction = "expand"
	ActionCrop             TransformAction = "crop"
)

// Valid reports whether a is one of the known transform actions.
func (a TransformAction) Valid() bool {
	switch a {
	case ActionRemoveBackground, ActionEdit, ActionExpand, ActionCrop:
		return true
	}
	return false
}

// ModifierRequest is the AI modifier form as submitted from the canvas.
// SourceIDs and RefID are item ids; the service resolves them to sources.
type ModifierRequest struct {
	SourceIDs   []string `json:"sourceIds"`
	RefID       string   `json:"refId,omitempty"`
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Perspective string   `json:"perspective"`
	AspectRatio string   `json:"aspectRatio"`
	Style       string   `json:"style"`
	Resolution  string   `json:"resolution"`
}

// ImageResult is what an image backend returns for a successful call.
type ImageResult struct {
	ImageURL string         `json:"imageUrl"`
	Metadata *ImageMetadata `json:"metadata,omitempty"`
}
