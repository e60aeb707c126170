package intake

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"studio/internal/editor"
)

// ErrClipboardEmpty means the clipboard holds no image.
var ErrClipboardEmpty = errors.New("clipboard has no image")

// Clipboard reads pasted images from the system clipboard.
type Clipboard struct {
	dec *Decoder

	once    sync.Once
	initErr error
}

func NewClipboard(dec *Decoder) *Clipboard {
	return &Clipboard{dec: dec}
}

// ReadImage returns the image currently on the clipboard.
func (c *Clipboard) ReadImage() (editor.Incoming, error) {
	c.once.Do(func() { c.initErr = clipboard.Init() })
	if c.initErr != nil {
		return editor.Incoming{}, fmt.Errorf("init clipboard: %w", c.initErr)
	}

	data := clipboard.Read(clipboard.FmtImage)
	if len(data) == 0 {
		return editor.Incoming{}, ErrClipboardEmpty
	}
	in, err := c.dec.Decode(File{Name: "pasted.png", Data: data})
	if err != nil {
		return editor.Incoming{}, fmt.Errorf("paste: %w", err)
	}
	return in, nil
}
