package assist

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/vovakirdan/coderelay/internal/config"
)

// Gemini calls the Gemini API with a fixed system instruction and decoding parameters.
type Gemini struct {
	models *genai.Models
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini builds a client for cfg. It returns ErrNotConfigured without an API key.
func NewGemini(ctx context.Context, cfg config.AssistConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		models: client.Models,
		model:  cfg.Model,
		config: generateConfig(cfg),
	}, nil
}

func generateConfig(cfg config.AssistConfig) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		TopK:            genai.Ptr(cfg.TopK),
		TopP:            genai.Ptr(cfg.TopP),
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	if cfg.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser)
	}
	return gc
}

func toContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

func (g *Gemini) Generate(ctx context.Context, turns []Turn) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, toContents(turns), g.config)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}
