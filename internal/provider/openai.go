package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/joeychilson/chat/internal/models"
)

// OpenAI talks to the OpenAI API, or any compatible endpoint such as xAI
// when constructed with a base URL.
type OpenAI struct {
	client *openai.Client
}

// NewOpenAI creates a provider for the given API key. baseURL is optional.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client}
}

// StreamText streams a chat completion, forwarding text and reasoning deltas.
func (p *OpenAI) StreamText(ctx context.Context, req TextRequest, emit func(Delta) error) (*TextResult, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, turn := range req.Turns {
		msg, err := convTurn(turn)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: msgs,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: param.NewOpt(true),
		},
	}
	applyTextOptions(&params, req.Options)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var usage *models.Usage
	var index int64
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Usage.TotalTokens > 0 {
			usage = &models.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		var sel *openai.ChatCompletionChunkChoice
		if index == 0 {
			index = chunk.Choices[0].Index
			sel = &chunk.Choices[0]
		} else {
			for i := range chunk.Choices {
				if chunk.Choices[i].Index == index {
					sel = &chunk.Choices[i]
					break
				}
			}
			if sel == nil {
				continue
			}
		}
		var d Delta
		d.Text = sel.Delta.Content
		// xAI streams reasoning as an extra field on the delta.
		if f, ok := sel.Delta.JSON.ExtraFields["reasoning_content"]; ok {
			var s string
			if err := json.Unmarshal([]byte(f.Raw()), &s); err == nil {
				d.Reasoning = s
			}
		}
		if d.Text == "" && d.Reasoning == "" {
			continue
		}
		if err := emit(d); err != nil {
			return nil, err
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &TextResult{Usage: usage}, nil
}

func applyTextOptions(params *openai.ChatCompletionNewParams, opts map[string]any) {
	extra := make(map[string]any)
	for k, v := range opts {
		switch k {
		case "reasoning_effort":
			if s, ok := v.(string); ok {
				params.ReasoningEffort = shared.ReasoningEffort(s)
			}
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		params.SetExtraFields(extra)
	}
}

func convTurn(turn Turn) (openai.ChatCompletionMessageParamUnion, error) {
	switch turn.Role {
	case models.RoleAssistant:
		var text strings.Builder
		for _, part := range turn.Parts {
			text.WriteString(part.Text)
		}
		return openai.AssistantMessage(text.String()), nil
	case models.RoleUser:
		var contents []openai.ChatCompletionContentPartUnionParam
		hasFile := false
		var text strings.Builder
		for _, part := range turn.Parts {
			if part.File == nil {
				text.WriteString(part.Text)
				continue
			}
			hasFile = true
			url := fmt.Sprintf("data:%s;base64,%s",
				part.File.MediaType, base64.StdEncoding.EncodeToString(part.File.Data))
			contents = append(contents, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: url,
			}))
		}
		if !hasFile {
			return openai.UserMessage(text.String()), nil
		}
		if text.Len() > 0 {
			contents = append([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(text.String()),
			}, contents...)
		}
		return openai.UserMessage(contents), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("provider: unexpected role %q", turn.Role)
	}
}

// GenerateImage produces an image via the Images API.
func (p *OpenAI) GenerateImage(ctx context.Context, req ImageRequest) (*Artifact, error) {
	params := openai.ImageGenerateParams{
		Model:  req.Model,
		Prompt: req.Prompt,
	}
	if v, ok := req.Options["quality"].(string); ok {
		params.Quality = openai.ImageGenerateParamsQuality(v)
	}
	if v, ok := req.Options["background"].(string); ok {
		params.Background = openai.ImageGenerateParamsBackground(v)
	}
	if v, ok := req.Options["size"].(string); ok {
		params.Size = openai.ImageGenerateParamsSize(v)
	}
	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("provider: no image returned")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("provider: decode image: %w", err)
	}
	return &Artifact{Data: data, MediaType: "image/png"}, nil
}

// GenerateSpeech synthesizes speech via the Audio API, returning MP3 bytes.
func (p *OpenAI) GenerateSpeech(ctx context.Context, req SpeechRequest) (*Artifact, error) {
	params := openai.AudioSpeechNewParams{
		Model:          req.Model,
		Input:          req.Input,
		Voice:          openai.AudioSpeechNewParamsVoice(req.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	if req.Speed > 0 {
		params.Speed = param.NewOpt(req.Speed)
	}
	resp, err := p.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: read speech response: %w", err)
	}
	return &Artifact{Data: data, MediaType: "audio/mpeg"}, nil
}

var (
	_ TextStreamer    = (*OpenAI)(nil)
	_ ImageGenerator  = (*OpenAI)(nil)
	_ SpeechGenerator = (*OpenAI)(nil)
)
