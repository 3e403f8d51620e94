package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

type VertexGemini struct {
	client      *vertexgenai.Client
	modelName   string
	temperature float32
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &VertexGemini{client: c, modelName: modelName, temperature: 0.3}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// Generate sends system messages as the system instruction and the remaining messages as
// user parts, then drains the response stream into a single string.
func (v *VertexGemini) Generate(ctx context.Context, messages []Message) (string, error) {
	// model handles carry per-call settings, so each call gets its own
	m := v.client.GenerativeModel(v.modelName)
	m.SetTemperature(v.temperature)

	var system []vertexgenai.Part
	var parts []vertexgenai.Part
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == RoleSystem {
			system = append(system, vertexgenai.Text(msg.Content))
			continue
		}
		parts = append(parts, vertexgenai.Text(msg.Content))
	}
	if len(system) > 0 {
		m.SystemInstruction = &vertexgenai.Content{Parts: system}
	}
	if len(parts) == 0 {
		// gemini rejects requests without user content
		parts = system
		m.SystemInstruction = nil
	}
	if len(parts) == 0 {
		return "", errors.New("empty prompt")
	}

	var full strings.Builder
	it := m.GenerateContentStream(ctx, parts...)
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", err
		}

		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok && string(t) != "" {
					full.WriteString(string(t))
				}
			}
		}
	}

	out := strings.TrimSpace(full.String())
	if out == "" {
		return "", errors.New("no text returned by model")
	}
	return out, nil
}
