package llm

import "context"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

type Provider interface {
	// Generate returns the full completion for the given prompt messages.
	Generate(ctx context.Context, messages []Message) (string, error)
	Close() error
}
