// Package backend talks to the image services behind the editor: the
// transform webhooks, the AI modifier and the Gemini-style chat and image
// models. Failures are reported as errors wrapping ErrBackend.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio/internal/config"
	"studio/internal/domain"
	"studio/internal/intake"
)

// ErrBackend marks a failed or unusable backend response.
var ErrBackend = errors.New("backend error")

// ErrNotConfigured is returned when the URL for a call is empty.
var ErrNotConfigured = errors.New("backend not configured")

// Image is a source image sent to a backend.
type Image struct {
	Name string
	Src  string // data URL or http(s) URL
}

type Client struct {
	http    *http.Client
	genHTTP *http.Client

	transformURL string
	modifierURL  string
	chatURL      string
	imageURL     string
	apiKey       string
}

// New builds a client from config. Generation calls (modifier, image
// edit, image model) use the longer generation timeout.
func New(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	genTimeout := cfg.GenerationTimeout
	if genTimeout <= 0 {
		genTimeout = 5 * time.Minute
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		genHTTP:      &http.Client{Timeout: genTimeout},
		transformURL: strings.TrimRight(cfg.TransformURL, "/"),
		modifierURL:  cfg.ModifierURL,
		chatURL:      cfg.ChatURL,
		imageURL:     cfg.ImageURL,
		apiKey:       cfg.APIKey,
	}
}

// SetAPIKey replaces the key used for the chat and image models.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// imageResponse accepts the field spellings the webhooks are known to use.
type imageResponse struct {
	Success   *bool  `json:"success"`
	Error     string `json:"error"`
	ImageURL  string `json:"imageUrl"`
	OutputURL string `json:"output_url"`
	Image     string `json:"image"`
	URL       string `json:"url"`

	Prompt              string  `json:"prompt"`
	Model               string  `json:"model"`
	AspectRatio         string  `json:"aspectRatio"`
	AspectRatioSnake    string  `json:"aspect_ratio"`
	Resolution          string  `json:"resolution"`
	GenerationTime      float64 `json:"generationTime"`
	GenerationTimeSnake float64 `json:"generation_time"`
	PredictionID        string  `json:"predictionId"`
	PredictionIDSnake   string  `json:"prediction_id"`
}

func (r imageResponse) result() (domain.ImageResult, error) {
	if r.Success != nil && !*r.Success {
		msg := r.Error
		if msg == "" {
			msg = "request unsuccessful"
		}
		return domain.ImageResult{}, fmt.Errorf("%w: %s", ErrBackend, msg)
	}
	url := firstNonEmpty(r.ImageURL, r.OutputURL, r.Image, r.URL)
	if url == "" {
		return domain.ImageResult{}, fmt.Errorf("%w: response has no image url", ErrBackend)
	}
	return domain.ImageResult{
		ImageURL: url,
		Metadata: &domain.ImageMetadata{
			Prompt:         r.Prompt,
			Model:          r.Model,
			AspectRatio:    firstNonEmpty(r.AspectRatioSnake, r.AspectRatio),
			Resolution:     r.Resolution,
			GenerationTime: firstNonZero(r.GenerationTimeSnake, r.GenerationTime),
			PredictionID:   firstNonEmpty(r.PredictionIDSnake, r.PredictionID),
		},
	}, nil
}

func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: %s", ErrBackend, resp.Status, apiErrorMessage(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrBackend, err)
	}
	return nil
}

// apiErrorMessage pulls error.message out of a JSON error body.
func apiErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// load returns the bytes and MIME type of an image source.
func (c *Client) load(ctx context.Context, src string) (string, []byte, error) {
	if strings.HasPrefix(src, "data:") {
		return intake.ParseDataURL(src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("fetch image: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return mime, data, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
