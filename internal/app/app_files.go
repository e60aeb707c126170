package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/geom"
	"studio/internal/intake"
)

// FileInput is a file handed over by the frontend, e.g. from a drop event.
type FileInput struct {
	Name    string `json:"name"`
	DataURL string `json:"dataUrl"`
}

var imageFilters = []wailsRuntime.FileFilter{
	{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.gif;*.webp;*.bmp;*.tif;*.tiff"},
}

func decodeInputs(files []FileInput) []intake.File {
	out := make([]intake.File, 0, len(files))
	for _, f := range files {
		_, data, err := intake.ParseDataURL(f.DataURL)
		if err != nil {
			continue
		}
		out = append(out, intake.File{Name: f.Name, Data: data})
	}
	return out
}

// DropFiles places files dropped at screen point (x, y).
func (a *App) DropFiles(files []FileInput, x, y float64) []domain.Item {
	return a.rt.Intake.Files(a.ctx, decodeInputs(files), editor.PlaceAtDrop, geom.Point{X: x, Y: y})
}

// AttachFiles places files added outside the canvas, such as chat panel
// attachments, at the fixed grid start.
func (a *App) AttachFiles(files []FileInput) []domain.Item {
	return a.rt.Intake.Files(a.ctx, decodeInputs(files), editor.PlaceGridStart, geom.Point{})
}

// OpenImages shows the native picker and places the chosen images around
// the visible center.
func (a *App) OpenImages() ([]domain.Item, error) {
	paths, err := wailsRuntime.OpenMultipleFilesDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title:   "Add Images",
		Filters: imageFilters,
	})
	if err != nil {
		return nil, err
	}
	files := make([]intake.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			wailsRuntime.LogErrorf(a.ctx, "[INTAKE] read %s: %v", p, err)
			continue
		}
		files = append(files, intake.File{Name: filepath.Base(p), Data: data})
	}
	return a.rt.Intake.Files(a.ctx, files, editor.PlaceCentered, geom.Point{}), nil
}

// PasteImage places the clipboard image at the visible center.
func (a *App) PasteImage() (domain.Item, error) {
	return a.rt.Intake.Paste(a.ctx)
}

// SaveImage writes an image item to a file chosen in the save dialog and
// returns the path, or "" when the dialog was cancelled.
func (a *App) SaveImage(id string) (string, error) {
	it, ok := a.rt.Session.Item(id)
	if !ok || it.Kind != domain.ItemImage {
		return "", fmt.Errorf("save image %s: not an image", id)
	}
	mime, data, err := intake.ParseDataURL(it.Src)
	if err != nil {
		return "", fmt.Errorf("save image %s: %w", id, err)
	}

	ext := "." + strings.TrimPrefix(mime, "image/")
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	name := it.Name
	if name == "" {
		name = "image"
	}
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Save Image",
		DefaultFilename: name + ext,
		Filters:         imageFilters,
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return path, nil
}
