package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/joeychilson/chat/internal/models"
)

// titleModel is the small model used for generated titles and filenames.
const titleModel = "gemini-2.0-flash-lite"

// Google talks to the Gemini API.
type Google struct {
	client *genai.Client
}

// NewGoogle creates a provider for the given API key.
func NewGoogle(ctx context.Context, apiKey string) (*Google, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("provider: genai client: %w", err)
	}
	return &Google{client: client}, nil
}

// StreamText streams a generation, forwarding text and thought deltas.
func (p *Google) StreamText(ctx context.Context, req TextRequest, emit func(Delta) error) (*TextResult, error) {
	cfg, contents, err := convRequest(req)
	if err != nil {
		return nil, err
	}

	var usage *models.Usage
	for chunk, err := range p.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
		if err != nil {
			return nil, err
		}
		if chunk.UsageMetadata != nil && chunk.UsageMetadata.TotalTokenCount > 0 {
			usage = &models.Usage{
				InputTokens:  int64(chunk.UsageMetadata.PromptTokenCount),
				OutputTokens: int64(chunk.UsageMetadata.CandidatesTokenCount),
				TotalTokens:  int64(chunk.UsageMetadata.TotalTokenCount),
			}
		}
		if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			d := Delta{Text: part.Text}
			if part.Thought {
				d = Delta{Reasoning: part.Text}
			}
			if err := emit(d); err != nil {
				return nil, err
			}
		}
	}
	return &TextResult{Usage: usage}, nil
}

func convRequest(req TextRequest) (*genai.GenerateContentConfig, []*genai.Content, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if tc, ok := req.Options["thinkingConfig"].(map[string]any); ok {
		cfg.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
		if budget, ok := tc["thinkingBudget"].(int); ok {
			b := int32(budget)
			cfg.ThinkingConfig.ThinkingBudget = &b
		}
	}
	if v, ok := req.Options["useSearchGrounding"].(bool); ok && v {
		cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}

	var contents []*genai.Content
	for _, turn := range req.Turns {
		role := genai.RoleUser
		if turn.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		var parts []*genai.Part
		for _, part := range turn.Parts {
			if part.File != nil {
				parts = append(parts, genai.NewPartFromBytes(part.File.Data, part.File.MediaType))
				continue
			}
			if part.Text != "" {
				parts = append(parts, genai.NewPartFromText(part.Text))
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("provider: no contents")
	}
	return cfg, contents, nil
}

// GenerateTitle asks the small model for a short title, using a JSON schema
// so the response is machine-parseable.
func (p *Google) GenerateTitle(ctx context.Context, instructions, content string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(instructions)},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {Type: genai.TypeString},
			},
			Required: []string{"title"},
		},
	}
	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText(content)}},
	}
	resp, err := p.client.Models.GenerateContent(ctx, titleModel, contents, cfg)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("provider: no candidates")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	var out struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		return "", fmt.Errorf("provider: decode title: %w", err)
	}
	if out.Title == "" {
		return "", fmt.Errorf("provider: empty title")
	}
	return out.Title, nil
}

var (
	_ TextStreamer = (*Google)(nil)
	_ Titler       = (*Google)(nil)
)
