// Package caption suggests captions for images with an OpenAI vision model.
package caption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rupl/internal/observability"

	"github.com/sashabaranov/go-openai"
)

const (
	// MissingKeyCaption is returned when no API key is configured.
	MissingKeyCaption = "This is a beautiful image! #vibes #rupl (AI Key Missing)"
	// EmptyCaption is returned when the model answers with no text.
	EmptyCaption = "Just sharing this moment! ✨"

	DefaultModel = "gpt-4o-mini"

	prompt = "Write a short, engaging, cool social media caption for this image. " +
		"Add 2-3 relevant hashtags. Keep it under 30 words."
)

// Config selects the model endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Suggester asks a chat completion model to caption an image reference.
type Suggester struct {
	client *openai.Client
	model  string
}

// New returns a Suggester. Without an API key it answers every request with
// MissingKeyCaption.
func New(cfg Config) *Suggester {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	s := &Suggester{model: model}
	if cfg.APIKey == "" {
		observability.Logger.Warn("OPENAI_API_KEY not set, caption suggestions return a placeholder")
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	s.client = openai.NewClientWithConfig(clientCfg)
	observability.Logger.Info("Initializing OpenAI caption client", slog.String("model", model))
	return s
}

// Suggest returns a caption for imageRef, which may be an http(s) URL or a
// data URI.
func (s *Suggester) Suggest(ctx context.Context, imageRef string) (string, error) {
	if s.client == nil {
		return MissingKeyCaption, nil
	}
	if strings.TrimSpace(imageRef) == "" {
		return "", errors.New("image reference is empty")
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageRef,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxCompletionTokens: 120,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return EmptyCaption, nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return EmptyCaption, nil
	}
	observability.Logger.DebugContext(ctx, "caption received", slog.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return text, nil
}
