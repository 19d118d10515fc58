// Package analysis asks a chat completion model to turn a reading listing
// into a structured daily report document.
package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/itsatony/w4b_v3/server/clima/internal/config"
	"github.com/itsatony/w4b_v3/server/clima/internal/errors"
	"github.com/itsatony/w4b_v3/server/clima/internal/models"
	openai "github.com/sashabaranov/go-openai"
	nuts "github.com/vaudience/go-nuts"
)

// Client is the OpenAI-compatible analysis service.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClient(cfg config.AnalysisConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Analyze submits the listing and returns the parsed report document.
// Transport errors, empty answers and unparsable JSON are analysis_failed.
func (c *Client) Analyze(ctx context.Context, listing string) (models.Document, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(listing)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, errors.NewAnalysisError("analysis request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewAnalysisError("analysis returned no choices", nil)
	}
	nuts.L.Infof("[Analysis] %s answered using %d tokens", c.model, resp.Usage.TotalTokens)
	return ParseDocument(resp.Choices[0].Message.Content)
}

// StripFences removes a surrounding ```json or ``` code fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseDocument decodes a model answer into a JSON object, tolerating code fences.
func ParseDocument(content string) (models.Document, error) {
	body := StripFences(content)
	if body == "" {
		return nil, errors.NewAnalysisError("analysis returned an empty response", nil)
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		nuts.L.Warnf("[Analysis] Unparsable answer: %s...", preview)
		return nil, errors.NewAnalysisError("analysis response is not valid JSON", err)
	}
	if doc == nil {
		return nil, errors.NewAnalysisError("analysis response is not a JSON object", nil)
	}
	return doc, nil
}
