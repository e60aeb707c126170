// Package intake turns raw files into placeable images: it sniffs and
// decodes image headers, scales oversized images down, and feeds images
// from a watched folder or the clipboard.
package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"studio/internal/editor"
)

// DefaultMaxDimension bounds the longer side of a placed image.
const DefaultMaxDimension = 1200

// ErrNotImage is returned for payloads no registered decoder accepts.
var ErrNotImage = errors.New("not an image")

// File is one raw payload from a drop, picker, upload or folder.
type File struct {
	Name string
	Data []byte
}

// Decoder reads image headers and computes the placed size.
type Decoder struct {
	MaxDimension int
}

func NewDecoder(maxDim int) *Decoder {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Decoder{MaxDimension: maxDim}
}

// Decode reads the natural size of an image and returns it ready to place.
// Src is a data URL of the original bytes.
func (d *Decoder) Decode(f File) (editor.Incoming, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return editor.Incoming{}, fmt.Errorf("decode %s: %w", f.Name, ErrNotImage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return editor.Incoming{}, fmt.Errorf("decode %s: empty image: %w", f.Name, ErrNotImage)
	}

	w, h := Fit(float64(cfg.Width), float64(cfg.Height), float64(d.MaxDimension))
	return editor.Incoming{
		Src:    DataURL(mimeType(format, f.Data), f.Data),
		Name:   displayName(f.Name),
		Width:  w,
		Height: h,
	}, nil
}

// Filter decodes every image in files and silently skips the rest.
func (d *Decoder) Filter(files []File) []editor.Incoming {
	out := make([]editor.Incoming, 0, len(files))
	for _, f := range files {
		in, err := d.Decode(f)
		if err != nil {
			log.Printf("[INTAKE] skip %s: %v", f.Name, err)
			continue
		}
		out = append(out, in)
	}
	return out
}

// Fit scales (w, h) by min(max/w, max/h, 1).
func Fit(w, h, max float64) (float64, float64) {
	ratio := math.Min(math.Min(max/w, max/h), 1)
	return w * ratio, h * ratio
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL returns the MIME type and payload of a base64 data URL.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("parse data url: missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("parse data url: missing payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("parse data url: not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("parse data url: %w", err)
	}
	return mime, data, nil
}

func mimeType(format string, data []byte) string {
	switch format {
	case "png", "jpeg", "gif", "webp", "bmp", "tiff":
		return "image/" + format
	}
	return http.DetectContentType(data)
}

func displayName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return "image"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
