package domain

import (
	"time"

	"studio/internal/geom"
)

type ItemKind string

const (
	ItemImage ItemKind = "image"
	ItemText  ItemKind = "text"
)

// Item is a positioned rectangle on the canvas. Images use Src/Name and the
// generation fields; text items use Content and the font attributes.
type Item struct {
	ID        string    `json:"id"`
	Kind      ItemKind  `json:"kind"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	CreatedAt time.Time `json:"createdAt"`

	Src          string         `json:"src,omitempty"`
	Name         string         `json:"name,omitempty"`
	IsGenerating bool           `json:"isGenerating,omitempty"`
	Metadata     *ImageMetadata `json:"metadata,omitempty"`

	Content    string  `json:"content,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	Rotation   float64 `json:"rotation,omitempty"`
}

// Rect returns the item's bounds in canvas space.
func (it Item) Rect() geom.Rect {
	return geom.Rect{X: it.X, Y: it.Y, W: it.Width, H: it.Height}
}

// ImageMetadata describes how an AI-generated image was produced.
type ImageMetadata struct {
	Prompt         string  `json:"prompt,omitempty"`
	Model          string  `json:"model,omitempty"`
	AspectRatio    string  `json:"aspectRatio,omitempty"`
	Resolution     string  `json:"resolution,omitempty"`
	GenerationTime float64 `json:"generationTime,omitempty"`
	PredictionID   string  `json:"predictionId,omitempty"`
}

// ItemPatch is a partial update. Nil fields are left unchanged.
type ItemPatch struct {
	X            *float64       `json:"x,omitempty"`
	Y            *float64       `json:"y,omitempty"`
	Width        *float64       `json:"width,omitempty"`
	Height       *float64       `json:"height,omitempty"`
	Src          *string        `json:"src,omitempty"`
	Name         *string        `json:"name,omitempty"`
	IsGenerating *bool          `json:"isGenerating,omitempty"`
	Metadata     *ImageMetadata `json:"metadata,omitempty"`
	Content      *string        `json:"content,omitempty"`
	FontSize     *float64       `json:"fontSize,omitempty"`
	FontFamily   *string        `json:"fontFamily,omitempty"`
	FontWeight   *string        `json:"fontWeight,omitempty"`
	Color        *string        `json:"color,omitempty"`
	Rotation     *float64       `json:"rotation,omitempty"`
}

// Apply merges the patch into it.
func (p ItemPatch) Apply(it *Item) {
	if p.X != nil {
		it.X = *p.X
	}
	if p.Y != nil {
		it.Y = *p.Y
	}
	if p.Width != nil {
		it.Width = *p.Width
	}
	if p.Height != nil {
		it.Height = *p.Height
	}
	if p.Src != nil {
		it.Src = *p.Src
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.IsGenerating != nil {
		it.IsGenerating = *p.IsGenerating
	}
	if p.Metadata != nil {
		m := *p.Metadata
		it.Metadata = &m
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.FontSize != nil {
		it.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		it.FontFamily = *p.FontFamily
	}
	if p.FontWeight != nil {
		it.FontWeight = *p.FontWeight
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.Rotation != nil {
		it.Rotation = *p.Rotation
	}
}

// MoveTo builds a patch that changes only the position.
func MoveTo(x, y float64) ItemPatch {
	return ItemPatch{X: &x, Y: &y}
}

// ResizeTo builds a patch that changes only the size.
func ResizeTo(w, h float64) ItemPatch {
	return ItemPatch{Width: &w, Height: &h}
}

// Frame builds a patch that sets position and size together.
func Frame(r geom.Rect) ItemPatch {
	return ItemPatch{X: &r.X, Y: &r.Y, Width: &r.W, Height: &r.H}
}
