package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"studio/internal/domain"
)

var transformPaths = map[domain.TransformAction]string{
	domain.ActionRemoveBackground: "/remove-background",
	domain.ActionEdit:             "/edit-elements",
	domain.ActionExpand:           "/expand",
	domain.ActionCrop:             "/crop",
}

// TransformPath returns the webhook path for an action.
func TransformPath(action domain.TransformAction) (string, bool) {
	p, ok := transformPaths[action]
	return p, ok
}

// EditRequest asks for an image-to-image refinement of an existing image.
type EditRequest struct {
	Image          Image
	EditPrompt     string
	OriginalPrompt string
	OriginalModel  string
}

// Transform runs a one-shot action (remove-bg, expand, crop) on an image.
// Edits go through Edit because they carry a prompt.
func (c *Client) Transform(ctx context.Context, action domain.TransformAction, imageID string, img Image) (domain.ImageResult, error) {
	path, ok := TransformPath(action)
	if !ok {
		return domain.ImageResult{}, fmt.Errorf("transform: unknown action %q", action)
	}
	if c.transformURL == "" {
		return domain.ImageResult{}, fmt.Errorf("transform %s: %w", action, ErrNotConfigured)
	}

	body, err := json.Marshal(map[string]string{"imageId": imageID, "imageSrc": img.Src})
	if err != nil {
		return domain.ImageResult{}, fmt.Errorf("marshal transform: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.transformURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.ImageResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp imageResponse
	if err := c.do(c.http, req, &resp); err != nil {
		return domain.ImageResult{}, fmt.Errorf("transform %s: %w", action, err)
	}
	return resp.result()
}

// Edit sends an image with an edit prompt to the edit webhook.
func (c *Client) Edit(ctx context.Context, er EditRequest) (domain.ImageResult, error) {
	if c.transformURL == "" {
		return domain.ImageResult{}, fmt.Errorf("edit: %w", ErrNotConfigured)
	}

	form := newForm()
	if err := c.attach(ctx, form, "sourceImage", er.Image); err != nil {
		return domain.ImageResult{}, err
	}
	form.field("editPrompt", er.EditPrompt)
	if er.OriginalPrompt != "" {
		form.field("originalPrompt", er.OriginalPrompt)
	}
	if er.OriginalModel != "" {
		form.field("originalModel", er.OriginalModel)
	}

	req, err := form.request(ctx, c.transformURL+transformPaths[domain.ActionEdit])
	if err != nil {
		return domain.ImageResult{}, err
	}
	var resp imageResponse
	if err := c.do(c.genHTTP, req, &resp); err != nil {
		return domain.ImageResult{}, fmt.Errorf("edit: %w", err)
	}
	res, err := resp.result()
	if err != nil {
		return res, err
	}
	if res.Metadata.Prompt == "" {
		res.Metadata.Prompt = er.EditPrompt
	}
	return res, nil
}

// ModifierJob is a resolved AI modifier request.
type ModifierJob struct {
	Sources []Image
	Ref     *Image
	Params  domain.ModifierRequest
}

// Modify submits source images and parameters to the AI modifier as a
// multipart form. Source images are numbered from productimage1.
func (c *Client) Modify(ctx context.Context, job ModifierJob) (domain.ImageResult, error) {
	if c.modifierURL == "" {
		return domain.ImageResult{}, fmt.Errorf("modify: %w", ErrNotConfigured)
	}
	if len(job.Sources) == 0 {
		return domain.ImageResult{}, fmt.Errorf("modify: no source images")
	}

	form := newForm()
	for i, img := range job.Sources {
		if err := c.attach(ctx, form, fmt.Sprintf("productimage%d", i+1), img); err != nil {
			return domain.ImageResult{}, err
		}
	}
	if job.Ref != nil {
		if err := c.attach(ctx, form, "referenceimage", *job.Ref); err != nil {
			return domain.ImageResult{}, err
		}
	}
	p := job.Params
	form.field("userPrompt", p.Prompt)
	form.field("model", p.Model)
	form.field("perspective", p.Perspective)
	form.field("aspectRatio", p.AspectRatio)
	form.field("stylingMode", p.Style)
	form.field("resolution", p.Resolution)

	req, err := form.request(ctx, c.modifierURL)
	if err != nil {
		return domain.ImageResult{}, err
	}
	var resp imageResponse
	if err := c.do(c.genHTTP, req, &resp); err != nil {
		return domain.ImageResult{}, fmt.Errorf("modify: %w", err)
	}
	return resp.result()
}

// ── multipart helpers ───────────────────────────────────────

type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err == nil {
		f.err = f.w.WriteField(name, value)
	}
}

func (f *form) file(field, filename, mime string, data []byte) {
	if f.err != nil {
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mime)
	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(data)
}

func (f *form) request(ctx context.Context, url string) (*http.Request, error) {
	if f.err == nil {
		f.err = f.w.Close()
	}
	if f.err != nil {
		return nil, fmt.Errorf("build form: %w", f.err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &f.buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", f.w.FormDataContentType())
	return req, nil
}

func (c *Client) attach(ctx context.Context, f *form, field string, img Image) error {
	mime, data, err := c.load(ctx, img.Src)
	if err != nil {
		return fmt.Errorf("load %s: %w", field, err)
	}
	name := img.Name
	if filepath.Ext(name) == "" {
		name += extFor(mime)
	}
	f.file(field, name, mime, data)
	return nil
}

func extFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}
