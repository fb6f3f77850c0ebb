// Package assistant runs résumé-coaching chat sessions and saves every reply
// as a snapshot for the merge engine.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-assistant/internal/extract"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/prompts"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// DefaultInlineLimit is the largest PDF sent inline; bigger files go through
// the file upload API.
const DefaultInlineLimit int64 = 20 << 20

// Options configures a Session.
type Options struct {
	Client      llm.ChatClient
	Journal     *Journal
	Tier        llm.ModelTier
	InlineLimit int64
	Now         func() time.Time
	Logger      *slog.Logger
}

// Turn is one answered message.
type Turn struct {
	Kind      snapshot.SourceKind
	Reply     string
	Usage     *llm.Usage
	File      string // snapshot written for this reply
	Timestamp time.Time
}

// Session is one coaching conversation. Methods are safe for concurrent use;
// turns are serialized.
type Session struct {
	id      string
	chat    llm.Chat
	opts    Options
	created time.Time

	mu   sync.Mutex
	last *Turn
}

// NewSession starts a chat with the résumé-coach instruction.
func NewSession(opts Options) (*Session, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if opts.Journal == nil {
		return nil, fmt.Errorf("journal is required")
	}
	if opts.InlineLimit <= 0 {
		opts.InlineLimit = DefaultInlineLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	system, err := prompts.Get(prompts.AssistantFile, "coach-system")
	if err != nil {
		return nil, err
	}
	chat, err := opts.Client.StartChat(llm.ChatOptions{SystemInstruction: system, Tier: opts.Tier})
	if err != nil {
		return nil, fmt.Errorf("failed to start chat: %w", err)
	}

	id := uuid.NewString()
	opts.Logger = opts.Logger.With("session_id", id)
	return &Session{id: id, chat: chat, opts: opts, created: opts.Now()}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Created returns when the session started.
func (s *Session) Created() time.Time {
	return s.created
}

// Last returns the most recent turn, or nil before the first reply.
func (s *Session) Last() *Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Send sends a chat message and saves the reply as a text snapshot.
func (s *Session) Send(ctx context.Context, message string) (*Turn, error) {
	return s.SendStream(ctx, message, nil)
}

// SendStream is Send with partial reply text passed to onChunk as it arrives.
// A nil onChunk waits for the whole reply.
func (s *Session) SendStream(ctx context.Context, message string, onChunk func(string) error) (*Turn, error) {
	if message == "" {
		return nil, &InputError{Message: "message is empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		reply *llm.Reply
		err   error
	)
	if onChunk == nil {
		reply, err = s.chat.Send(ctx, llm.Text(message))
	} else {
		reply, err = s.chat.SendStream(ctx, onChunk, llm.Text(message))
	}
	if err != nil {
		return nil, err
	}
	return s.record(ctx, snapshot.KindText, reply)
}

// SendDocument sends a PDF or DOCX file with the summarize instruction and saves
// the reply as a document snapshot. PDFs up to the inline limit travel with the
// message; larger ones are uploaded first. DOCX files are sent as extracted text.
func (s *Session) SendDocument(ctx context.Context, path string) (*Turn, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &InputError{Message: fmt.Sprintf("file %s does not exist", path)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &InputError{Message: fmt.Sprintf("%s is not a regular file", path)}
	}

	log := s.opts.Logger.With("file", path, "size_mb", fmt.Sprintf("%.2f", float64(info.Size())/(1<<20)))
	name := filepath.Base(path)

	var data []byte
	if info.Size() <= s.opts.InlineLimit {
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var parts []llm.Part
	switch mime := extract.DetectMIME(name, data); mime {
	case extract.MIMEPDF:
		summarize := prompts.Format(prompts.MustGet(prompts.AssistantFile, "summarize-document"), map[string]string{"Kind": "PDF"})
		parts = append(parts, llm.Text(summarize))
		if data != nil {
			log.Info("sending PDF inline")
			parts = append(parts, llm.Inline(extract.MIMEPDF, data))
		} else {
			log.Info("uploading PDF through the file API")
			uploaded, err := s.opts.Client.UploadFile(ctx, path, extract.MIMEPDF)
			if err != nil {
				return nil, err
			}
			parts = append(parts, *uploaded)
		}
	case extract.MIMEDOCX:
		text, err := extract.FromFile(ctx, path)
		if err != nil {
			return nil, err
		}
		log.Info("sending extracted document text", "chars", len(text))
		summarize := prompts.Format(prompts.MustGet(prompts.AssistantFile, "summarize-document"), map[string]string{"Kind": "document"})
		body := prompts.Format(prompts.MustGet(prompts.AssistantFile, "document-text"), map[string]string{
			"FileName": name,
			"Text":     text,
		})
		parts = append(parts, llm.Text(summarize), llm.Text(body))
	default:
		return nil, &extract.UnsupportedError{FileName: name, MIMEType: mime}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.chat.Send(ctx, parts...)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, snapshot.KindPDF, reply)
}

// record saves the reply; callers hold s.mu.
func (s *Session) record(ctx context.Context, kind snapshot.SourceKind, reply *llm.Reply) (*Turn, error) {
	at := s.opts.Now()
	turn := &Turn{Kind: kind, Reply: reply.Text, Usage: reply.Usage, Timestamp: at}

	file, err := s.opts.Journal.Append(ctx, kind, reply.Text, at)
	if err != nil {
		s.last = turn
		return turn, fmt.Errorf("reply received but not saved: %w", err)
	}
	turn.File = file
	s.last = turn
	if reply.Usage != nil {
		s.opts.Logger.Debug("token usage",
			"prompt", reply.Usage.PromptTokens,
			"candidates", reply.Usage.CandidateTokens,
			"total", reply.Usage.TotalTokens)
	}
	return turn, nil
}
