package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client and ChatClient for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// model builds a configured model handle for tier.
func (c *GeminiClient) model(tier ModelTier) (*genai.GenerativeModel, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.config.Temperature)
	return model, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	model, err := c.model(tier)
	if err != nil {
		return "", err
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// StartChat opens a chat session with plain-text replies and the harassment
// and hate-speech filters set to block medium-and-above.
func (c *GeminiClient) StartChat(opts ChatOptions) (Chat, error) {
	tier := opts.Tier
	if tier == "" {
		tier = TierStandard
	}
	model, err := c.model(tier)
	if err != nil {
		return nil, err
	}
	model.ResponseMIMEType = "text/plain"
	if opts.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(opts.SystemInstruction))
	}
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
	}

	return &geminiChat{session: model.StartChat()}, nil
}

// UploadFile uploads path through the Gemini File API and polls until the file
// leaves the PROCESSING state.
func (c *GeminiClient) UploadFile(ctx context.Context, path, mimeType string) (*Part, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	file, err := c.client.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: filepath.Base(path),
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", path, err)
	}

	interval := c.config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		file, err = c.client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to poll uploaded file: %w", err)
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("file processing failed for %s", path)
	}

	return &Part{FileURI: file.URI, MIMEType: file.MIMEType}, nil
}

type geminiChat struct {
	session *genai.ChatSession
}

func (g *geminiChat) Send(ctx context.Context, parts ...Part) (*Reply, error) {
	resp, err := g.session.SendMessage(ctx, toGenaiParts(parts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: text, Usage: usageFrom(resp)}, nil
}

func (g *geminiChat) SendStream(ctx context.Context, onChunk func(string) error, parts ...Part) (*Reply, error) {
	iter := g.session.SendMessageStream(ctx, toGenaiParts(parts)...)

	var sb strings.Builder
	var last *genai.GenerateContentResponse
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stream message: %w", err)
		}
		last = resp
		chunk, err := extractTextFromResponse(resp)
		if err != nil {
			// chunks without text (e.g. the final usage-only chunk) are fine
			continue
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return nil, err
			}
		}
	}

	if sb.Len() == 0 {
		return nil, fmt.Errorf("no text parts in response")
	}
	return &Reply{Text: sb.String(), Usage: usageFrom(last)}, nil
}

func toGenaiParts(parts []Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.FileURI != "":
			out = append(out, genai.FileData{MIMEType: p.MIMEType, URI: p.FileURI})
		case p.Data != nil:
			out = append(out, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
		default:
			out = append(out, genai.Text(p.Text))
		}
	}
	return out
}

func usageFrom(resp *genai.GenerateContentResponse) *Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &Usage{
		PromptTokens:    resp.UsageMetadata.PromptTokenCount,
		CandidateTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:     resp.UsageMetadata.TotalTokenCount,
	}
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

var (
	_ Client     = (*GeminiClient)(nil)
	_ ChatClient = (*GeminiClient)(nil)
)
