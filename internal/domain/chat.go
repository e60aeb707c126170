package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the chat sidebar.
type Message struct {
	ID             string    `json:"id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	GeneratedImage string    `json:"generatedImage,omitempty"` // data URL
	IsGenerating   bool      `json:"isGenerating,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
