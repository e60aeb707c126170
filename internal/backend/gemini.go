package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"studio/internal/intake"
)

// SystemPrompt steers the chat model towards product photography help.
const SystemPrompt = "You are a creative assistant for product imagery on a visual canvas. " +
	"Answer briefly. When the user wants a new image, propose a detailed prompt in backticks " +
	"and ask whether you should generate it."

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Turn is one message of chat history in model format.
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content       `json:"system_instruction,omitempty"`
	Contents          []content      `json:"contents"`
	GenerationConfig  map[string]any `json:"generationConfig,omitempty"`
}

// responsePart accepts both inlineData and inline_data spellings.
type responsePart struct {
	Text        string          `json:"text"`
	InlineCamel *responseInline `json:"inlineData"`
	InlineSnake *responseInline `json:"inline_data"`
}

type responseInline struct {
	MimeType      string `json:"mimeType"`
	MimeTypeSnake string `json:"mime_type"`
	Data          string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []responsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) parts() []responsePart {
	if len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Content.Parts
}

func (p responsePart) image() string {
	in := p.InlineCamel
	if in == nil {
		in = p.InlineSnake
	}
	if in == nil {
		return ""
	}
	mime := firstNonEmpty(in.MimeType, in.MimeTypeSnake)
	if mime == "" || in.Data == "" {
		return ""
	}
	return "data:" + mime + ";base64," + in.Data
}

// ChatRequest is one user turn with prior history and an optional image.
type ChatRequest struct {
	Message string
	History []Turn
	Image   *Image
}

// ChatReply is the model's answer. GeneratedImage is a data URL when the
// model returned an image.
type ChatReply struct {
	Text           string
	GeneratedImage string
}

// Chat sends a message to the chat model.
func (c *Client) Chat(ctx context.Context, cr ChatRequest) (ChatReply, error) {
	if c.chatURL == "" || c.apiKey == "" {
		return ChatReply{}, fmt.Errorf("chat: %w", ErrNotConfigured)
	}

	current := []part{{Text: cr.Message}}
	if cr.Image != nil && strings.HasPrefix(cr.Image.Src, "data:") {
		if mime, data, err := intake.ParseDataURL(cr.Image.Src); err == nil {
			current = append([]part{{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}}}, current...)
		}
	}

	contents := make([]content, 0, len(cr.History)+1)
	for _, t := range cr.History {
		contents = append(contents, content{Role: t.Role, Parts: []part{{Text: t.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: current})

	gr := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: SystemPrompt}}},
		Contents:          contents,
		GenerationConfig:  map[string]any{"temperature": 1.0, "maxOutputTokens": 2048},
	}

	var resp generateResponse
	if err := c.post(ctx, c.http, c.chatURL, gr, &resp); err != nil {
		return ChatReply{}, fmt.Errorf("chat: %w", err)
	}

	var reply ChatReply
	for _, p := range resp.parts() {
		if p.Text != "" {
			reply.Text += p.Text
		} else if img := p.image(); img != "" {
			reply.GeneratedImage = img
		}
	}
	return reply, nil
}

// GenerateImage asks the image model for one 4:3 image at the given size
// ("1K", "2K" or "4K") and returns it as a data URL.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	if c.imageURL == "" || c.apiKey == "" {
		return "", fmt.Errorf("generate image: %w", ErrNotConfigured)
	}
	if size == "" {
		size = "2K"
	}

	gr := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: map[string]any{
			"responseModalities": []string{"IMAGE", "TEXT"},
			"imageConfig": map[string]string{
				"aspectRatio": "4:3",
				"imageSize":   size,
			},
		},
	}

	var resp generateResponse
	if err := c.post(ctx, c.genHTTP, c.imageURL, gr, &resp); err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	for _, p := range resp.parts() {
		if img := p.image(); img != "" {
			return img, nil
		}
	}
	return "", fmt.Errorf("generate image: %w: no image in response", ErrBackend)
}

func (c *Client) post(ctx context.Context, hc *http.Client, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(hc, req, out)
}
