package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/internal/backend"
	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/intake"
)

// ChatBackend is the part of backend.Client the chat uses.
type ChatBackend interface {
	Chat(ctx context.Context, cr backend.ChatRequest) (backend.ChatReply, error)
	GenerateImage(ctx context.Context, prompt, size string) (string, error)
}

var (
	imageKeywords = []string{
		"generiere", "erstelle", "erzeuge", "mach ein bild",
		"generate", "create image", "bild generieren", "bild erstellen",
	}
	confirmationWords = []string{"ja", "yes", "ok", "klar", "mach", "bitte", "gerne", "los"}

	backtickPrompt = regexp.MustCompile("`\"?([^`]{20,})\"?`")
	quotedPrompt   = regexp.MustCompile(`"([^"]{20,})"`)
)

const (
	generatedSuffix = "\n\n✓ Image generated. Click it to add it to the canvas."
	failedSuffix    = "\n\n✗ Image generation failed: "
)

// ChatService keeps the chat history of the sidebar and turns requests for
// images into calls to the image model.
type ChatService struct {
	session *editor.Session
	backend ChatBackend
	emitter EventEmitter
	dec     *intake.Decoder

	mu       sync.Mutex
	messages []domain.Message
	busy     bool
}

func NewChatService(session *editor.Session, be ChatBackend, emitter EventEmitter, dec *intake.Decoder) *ChatService {
	if emitter == nil {
		emitter = noopEmitter{}
	}
	if dec == nil {
		dec = intake.NewDecoder(0)
	}
	return &ChatService{session: session, backend: be, emitter: emitter, dec: dec}
}

// Messages returns a copy of the chat history.
func (s *ChatService) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

// Clear drops the chat history.
func (s *ChatService) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// Send posts a user message. With attachSelected the primary selected
// image goes along with it. When the message asks for an image, or confirms
// an offer to generate one, the image model is called as well and the
// result is attached to the assistant reply.
func (s *ChatService) Send(ctx context.Context, text string, attachSelected bool) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, fmt.Errorf("send chat: empty message")
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return domain.Message{}, fmt.Errorf("send chat: %w", ErrBusy)
	}
	s.busy = true
	prior := append([]domain.Message(nil), s.messages...)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	var attached *backend.Image
	content := text
	if attachSelected {
		if it, ok := s.session.Item(s.session.Selection().PrimaryID); ok && it.Kind == domain.ItemImage {
			attached = &backend.Image{Name: it.Name, Src: it.Src}
			content = fmt.Sprintf("[Image: %s] %s", it.Name, text)
		}
	}
	s.append(ctx, domain.Message{Role: domain.RoleUser, Content: content})

	lastAssistant, hasAssistant := lastAssistantMessage(prior)
	confirmed := hasAssistant && IsConfirmation(text, lastAssistant.Content)
	wantsImage := WantsImage(text) || confirmed

	reply, err := s.backend.Chat(ctx, backend.ChatRequest{
		Message: text,
		History: History(prior),
		Image:   attached,
	})
	if err != nil {
		log.Printf("[CHAT] chat failed: %v", err)
		return domain.Message{}, fmt.Errorf("send chat: %w", err)
	}

	if !wantsImage {
		return s.append(ctx, domain.Message{Role: domain.RoleAssistant, Content: reply.Text}), nil
	}

	pending := s.append(ctx, domain.Message{Role: domain.RoleAssistant, Content: reply.Text, IsGenerating: true})

	prompt := text
	if confirmed {
		prompt = ExtractPrompt(lastAssistant.Content)
	}
	size := ImageSize(text)
	log.Printf("[CHAT] generating image at %s", size)

	img, genErr := s.backend.GenerateImage(ctx, prompt, size)
	return s.finish(ctx, pending.ID, func(m *domain.Message) {
		m.IsGenerating = false
		if genErr != nil {
			m.Content = reply.Text + failedSuffix + genErr.Error()
			return
		}
		m.Content = reply.Text + generatedSuffix
		m.GeneratedImage = img
	}), nil
}

// PlaceImage adds the generated image of message id to the canvas,
// centered in the visible viewport.
func (s *ChatService) PlaceImage(ctx context.Context, messageID string) (domain.Item, error) {
	var src string
	s.mu.Lock()
	for _, m := range s.messages {
		if m.ID == messageID {
			src = m.GeneratedImage
		}
	}
	s.mu.Unlock()
	if src == "" {
		return domain.Item{}, fmt.Errorf("place chat image %s: no generated image", messageID)
	}

	_, data, err := intake.ParseDataURL(src)
	if err != nil {
		return domain.Item{}, fmt.Errorf("place chat image: %w", err)
	}
	in, err := s.dec.Decode(intake.File{Name: "generated", Data: data})
	if err != nil {
		return domain.Item{}, fmt.Errorf("place chat image: %w", err)
	}
	in.Src = src
	it := s.session.PlaceAtVisibleCenter(in)
	s.emitter.Emit(ctx, EventIntakeAdded, []domain.Item{it})
	return it, nil
}

func (s *ChatService) append(ctx context.Context, m domain.Message) domain.Message {
	m.ID = uuid.NewString()
	m.Timestamp = time.Now()
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.emitter.Emit(ctx, EventChatMessage, m)
	return m
}

func (s *ChatService) finish(ctx context.Context, id string, fn func(*domain.Message)) domain.Message {
	s.mu.Lock()
	var out domain.Message
	for i := range s.messages {
		if s.messages[i].ID == id {
			fn(&s.messages[i])
			out = s.messages[i]
		}
	}
	s.mu.Unlock()
	s.emitter.Emit(ctx, EventChatMessage, out)
	return out
}

// ── Intent parsing ──────────────────────────────────────────

// History converts chat messages into model turns.
func History(msgs []domain.Message) []backend.Turn {
	out := make([]backend.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := "model"
		if m.Role == domain.RoleUser {
			role = "user"
		}
		out = append(out, backend.Turn{Role: role, Text: m.Content})
	}
	return out
}

// WantsImage reports whether text asks for an image.
func WantsImage(text string) bool {
	return containsAny(strings.ToLower(text), imageKeywords)
}

// IsConfirmation reports whether text agrees to an offer to generate an
// image made in the previous assistant message.
func IsConfirmation(text, lastAssistant string) bool {
	prev := strings.ToLower(lastAssistant)
	asked := strings.Contains(prev, "soll ich") && strings.Contains(prev, "generieren") ||
		strings.Contains(prev, "should i") && strings.Contains(prev, "generate")
	return asked && containsAny(strings.ToLower(text), confirmationWords)
}

// ExtractPrompt pulls the proposed prompt out of an assistant message:
// backticks first, then double quotes, otherwise the whole text.
func ExtractPrompt(assistant string) string {
	if m := backtickPrompt.FindStringSubmatch(assistant); m != nil {
		return strings.Trim(m[1], `"`)
	}
	if m := quotedPrompt.FindStringSubmatch(assistant); m != nil {
		return m[1]
	}
	return assistant
}

// ImageSize picks the requested resolution, defaulting to 2K.
func ImageSize(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "4k"):
		return "4K"
	case strings.Contains(lower, "1k"):
		return "1K"
	}
	return "2K"
}

func lastAssistantMessage(msgs []domain.Message) (domain.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant {
			return msgs[i], true
		}
	}
	return domain.Message{}, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
