package llm

import "context"

// Client is an abstraction over one-shot generation calls.
type Client interface {
	// GenerateContent generates text content using the specified model tier
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON asks for an application/json response and strips any code fences
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the provider model name used for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// ChatClient opens multi-turn chat sessions and uploads large documents.
type ChatClient interface {
	StartChat(opts ChatOptions) (Chat, error)
	// UploadFile sends a file to the service's file store and waits until it
	// is usable as a message part.
	UploadFile(ctx context.Context, path, mimeType string) (*Part, error)
}

// Chat is one conversation whose history is kept by the implementation.
type Chat interface {
	Send(ctx context.Context, parts ...Part) (*Reply, error)
	// SendStream behaves like Send but calls onChunk for every partial text as it arrives.
	SendStream(ctx context.Context, onChunk func(string) error, parts ...Part) (*Reply, error)
}

// ChatOptions configures a chat session.
type ChatOptions struct {
	SystemInstruction string
	Tier              ModelTier
}

// Part is one piece of a chat message: text, inline bytes, or an uploaded file.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
	FileURI  string
}

// Text returns a text part.
func Text(s string) Part {
	return Part{Text: s}
}

// Inline returns a part carrying raw bytes.
func Inline(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// Usage reports token accounting for one reply.
type Usage struct {
	PromptTokens    int32 `json:"prompt_tokens"`
	CandidateTokens int32 `json:"candidates_tokens"`
	TotalTokens     int32 `json:"total_tokens"`
}

// Reply is the text of a chat response with its token usage.
type Reply struct {
	Text  string
	Usage *Usage
}
