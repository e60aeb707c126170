package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/config"
	"studio/internal/domain"
	"studio/internal/intake"
)

var pixel = intake.DataURL("image/png", []byte("\x89PNG\r\n\x1a\nfake"))

func newTestClient(url string) *Client {
	return New(config.BackendConfig{
		TransformURL: url,
		ModifierURL:  url + "/modifier",
		ChatURL:      url + "/chat",
		ImageURL:     url + "/image",
		APIKey:       "secret",
	})
}

func TestTransformPostsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/remove-background", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "item-1", body["imageId"])
		assert.Equal(t, pixel, body["imageSrc"])
		w.Write([]byte(`{"success":true,"output_url":"https://cdn/out.png"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Transform(context.Background(), domain.ActionRemoveBackground, "item-1", Image{Src: pixel})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/out.png", res.ImageURL)
}

func TestTransformFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/crop" {
			w.Write([]byte(`{"success":false,"error":"no product found"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	_, err := c.Transform(context.Background(), domain.ActionExpand, "x", Image{Src: pixel})
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Contains(t, err.Error(), "upstream down")

	_, err = c.Transform(context.Background(), domain.ActionCrop, "x", Image{Src: pixel})
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Contains(t, err.Error(), "no product found")

	_, err = New(config.BackendConfig{}).Transform(context.Background(), domain.ActionCrop, "x", Image{Src: pixel})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = c.Transform(context.Background(), "sharpen", "x", Image{Src: pixel})
	assert.Error(t, err)
}

func TestModifySendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/modifier", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		for _, field := range []string{"productimage1", "productimage2", "referenceimage"} {
			f, hdr, err := r.FormFile(field)
			require.NoError(t, err, field)
			data, _ := io.ReadAll(f)
			assert.Equal(t, "\x89PNG\r\n\x1a\nfake", string(data))
			assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		}
		assert.Equal(t, "on a marble table", r.FormValue("userPrompt"))
		assert.Equal(t, "flux-2", r.FormValue("model"))
		assert.Equal(t, "16:9", r.FormValue("aspectRatio"))
		assert.Equal(t, "hero", r.FormValue("stylingMode"))
		assert.Equal(t, "2k", r.FormValue("resolution"))

		w.Write([]byte(`{"url":"https://cdn/mod.png","aspect_ratio":"16:9","generation_time":12.5,"prediction_id":"p1","model":"flux-2"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Modify(context.Background(), ModifierJob{
		Sources: []Image{{Name: "shoe", Src: pixel}, {Name: "shoe-2.png", Src: pixel}},
		Ref:     &Image{Name: "mood", Src: pixel},
		Params: domain.ModifierRequest{
			Prompt:      "on a marble table",
			Model:       "flux-2",
			AspectRatio: "16:9",
			Style:       "hero",
			Resolution:  "2k",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/mod.png", res.ImageURL)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "16:9", res.Metadata.AspectRatio)
	assert.Equal(t, 12.5, res.Metadata.GenerationTime)
	assert.Equal(t, "p1", res.Metadata.PredictionID)
}

func TestModifyWithoutSources(t *testing.T) {
	_, err := newTestClient("http://unused").Modify(context.Background(), ModifierJob{})
	assert.Error(t, err)
}

func TestEditFallsBackToEditPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/edit-elements", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("sourceImage")
		require.NoError(t, err)
		assert.Equal(t, "make it blue", r.FormValue("editPrompt"))
		assert.Equal(t, "a red shoe", r.FormValue("originalPrompt"))
		w.Write([]byte(`{"imageUrl":"https://cdn/edit.png"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Edit(context.Background(), EditRequest{
		Image:          Image{Name: "shoe", Src: pixel},
		EditPrompt:     "make it blue",
		OriginalPrompt: "a red shoe",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/edit.png", res.ImageURL)
	assert.Equal(t, "make it blue", res.Metadata.Prompt)
}

func TestChatRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var body struct {
			SystemInstruction content   `json:"system_instruction"`
			Contents          []content `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 3)
		assert.Equal(t, "user", body.Contents[0].Role)
		assert.Equal(t, "model", body.Contents[1].Role)

		last := body.Contents[2]
		require.Len(t, last.Parts, 2)
		require.NotNil(t, last.Parts[0].InlineData)
		assert.Equal(t, "image/png", last.Parts[0].InlineData.MimeType)
		assert.Equal(t, "what is this?", last.Parts[1].Text)

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A "},{"text":"shoe."},{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Chat(context.Background(), ChatRequest{
		Message: "what is this?",
		History: []Turn{{Role: "user", Text: "hi"}, {Role: "model", Text: "hello"}},
		Image:   &Image{Src: pixel},
	})
	require.NoError(t, err)
	assert.Equal(t, "A shoe.", reply.Text)
	assert.Equal(t, "data:image/png;base64,QUJD", reply.GeneratedImage)
}

func TestChatNeedsKey(t *testing.T) {
	c := New(config.BackendConfig{ChatURL: "http://unused"})
	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GenerationConfig struct {
				ResponseModalities []string          `json:"responseModalities"`
				ImageConfig        map[string]string `json:"imageConfig"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"IMAGE", "TEXT"}, body.GenerationConfig.ResponseModalities)
		assert.Equal(t, "4:3", body.GenerationConfig.ImageConfig["aspectRatio"])
		assert.Equal(t, "4K", body.GenerationConfig.ImageConfig["imageSize"])
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"here"},{"inline_data":{"mime_type":"image/jpeg","data":"/9j/"}}]}}]}`))
	}))
	defer srv.Close()

	img, err := newTestClient(srv.URL).GenerateImage(context.Background(), "a shoe on sand", "4K")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,/9j/", img)
}

func TestGenerateImageWithoutImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateImage(context.Background(), "x", "")
	assert.True(t, errors.Is(err, ErrBackend))
}
