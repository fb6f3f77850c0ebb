package merge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	Calls               int
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.Calls++
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{}`, nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	return nil
}

type recorderFunc func(ctx context.Context, result *Result) error

func (f recorderFunc) RecordRun(ctx context.Context, result *Result) error {
	return f(ctx, result)
}

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local)

func newTestEngine(t *testing.T, store snapshot.Store, client llm.Client, mode Mode) *Engine {
	t.Helper()
	engine, err := NewEngine(Options{
		Store:  store,
		Client: client,
		Mode:   mode,
		Now:    func() time.Time { return fixedNow },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return engine
}

func seedStore(store *snapshot.MemStore, files ...string) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, payload := range files {
		at := base.Add(time.Duration(i) * time.Hour)
		store.AddFile(snapshot.FileName(snapshot.KindText, at), []byte(payload), at)
	}
}

func readDoc(t *testing.T, store snapshot.Store, name string) map[string]any {
	t.Helper()
	data, err := store.Read(context.Background(), name)
	require.NoError(t, err)
	doc, err := snapshot.DecodePayload(data)
	require.NoError(t, err)
	return doc
}

func TestRun_NoSnapshotsSkipsService(t *testing.T) {
	store := snapshot.NewMemStore()
	store.AddFile("notes.json", []byte(`{}`), time.Now())
	client := &MockLLMClient{}

	res, err := newTestEngine(t, store, client, ModeLLM).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, client.Calls, "service must not be called without input")
	assert.Equal(t, StateNoData, res.Outcome)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, []State{StateIdle, StateLoading, StateNoData, StateDone}, res.Trace)
	assert.NotEmpty(t, res.Diagnostic)
	assert.Empty(t, res.Output)
	assert.Equal(t, []string{"notes.json"}, store.Names(), "no file may be created")
}

func TestRun_LLMHappyPath(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Python"]}`, `{"skills": ["Python", "Go"]}`)

	var sentPrompt string
	client := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			sentPrompt = prompt
			assert.Equal(t, llm.TierStandard, tier)
			return "```json\n{\"skills\": [\"Python\", \"Go\"], \"contact\": {}}\n```", nil
		},
	}

	res, err := newTestEngine(t, store, client, ModeLLM).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, client.Calls)
	assert.Equal(t, StateParsed, res.Outcome)
	assert.Equal(t, []State{StateIdle, StateLoading, StateLoaded, StateRequesting, StateParsed, StateDone}, res.Trace)
	assert.Equal(t, "merged_resume_20240601_093000.json", res.Output)
	assert.Len(t, res.FilesRead, 2)

	assert.Contains(t, sentPrompt, "oldest first, newest last")
	assert.Less(t, strings.Index(sentPrompt, `"Python"`), strings.Index(sentPrompt, `"Go"`))

	doc := readDoc(t, store, res.Output)
	assert.Equal(t, []any{"Python", "Go"}, doc["skills"])
	for _, section := range RecognizedSections {
		assert.Contains(t, doc, section)
	}
}

func TestRun_LLMResponseRestoresDroppedKeys(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"languages": ["English"]}`, `{"skills": ["Go"]}`)
	client := &MockLLMClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return `{"skills": ["Go"]}`, nil
		},
	}

	res, err := newTestEngine(t, store, client, ModeLLM).Run(context.Background())
	require.NoError(t, err)

	doc := readDoc(t, store, res.Output)
	assert.Equal(t, []any{"English"}, doc["languages"])
	assert.NotEmpty(t, res.Fixes)
}

func TestRun_RejectsNonJSON(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Go"]}`)
	client := &MockLLMClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "Sorry, I cannot comply.", nil
		},
	}

	res, err := newTestEngine(t, store, client, ModeLLM).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateRejected, res.Outcome)
	assert.Empty(t, res.Output)
	assert.Equal(t, "failed_merge_20240601_093000.txt", res.FailedOutput)
	assert.Contains(t, res.Diagnostic, "not a single JSON object")

	data, err := store.Read(context.Background(), res.FailedOutput)
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I cannot comply.\n", string(data))

	for _, name := range store.Names() {
		assert.False(t, strings.HasPrefix(name, snapshot.MergedPrefix), "unexpected canonical file %s", name)
	}
}

func TestRun_RejectsArrayAndTrailingData(t *testing.T) {
	for _, raw := range []string{`["a"]`, `{"a": 1} {"b": 2}`, `{"skills": ["Go"]}}`, `{"skills": ["Go"]}]`, ""} {
		store := snapshot.NewMemStore()
		seedStore(store, `{"skills": ["Go"]}`)
		client := &MockLLMClient{
			GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) { return raw, nil },
		}

		res, err := newTestEngine(t, store, client, ModeLLM).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StateRejected, res.Outcome, "raw=%q", raw)
		assert.Empty(t, res.Output, "raw=%q", raw)
	}
}

func TestRun_ServiceError(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Go"]}`)
	client := &MockLLMClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	res, err := newTestEngine(t, store, client, ModeLLM).Run(context.Background())
	require.Error(t, err)

	var serr *ServiceError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, StateFailed, res.State)
	assert.Empty(t, res.Output)
	assert.Len(t, store.Names(), 1, "only the input snapshot remains")
}

func TestRun_ServiceTimeout(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Go"]}`)
	client := &MockLLMClient{
		GenerateJSONFunc: func(ctx context.Context, _ string, _ llm.ModelTier) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	engine, err := NewEngine(Options{
		Store:   store,
		Client:  client,
		Timeout: 10 * time.Millisecond,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	_, err = engine.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRun_LocalMode(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store,
		`{"contact": {"email": "old@example.com"}, "skills": ["Python"]}`,
		`{"contact": {"email": "new@example.com"}, "skills": ["Python", "Go"]}`,
	)

	res, err := newTestEngine(t, store, nil, ModeLocal).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []State{StateIdle, StateLoading, StateLoaded, StateParsed, StateDone}, res.Trace)
	doc := readDoc(t, store, res.Output)
	assert.Equal(t, []any{"Python", "Go"}, doc["skills"])
	assert.Equal(t, "new@example.com", doc["contact"].(map[string]any)["email"])
}

func TestRun_NeverOverwritesCanonical(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Go"]}`)
	store.AddFile("merged_resume_20240601_093000.json", []byte(`{"previous": true}`), time.Now())

	res, err := newTestEngine(t, store, nil, ModeLocal).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "merged_resume_20240601_093000_1.json", res.Output)
	assert.Equal(t, true, readDoc(t, store, "merged_resume_20240601_093000.json")["previous"])
}

func TestRun_SnapshotsUntouched(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Python"]}`, `{"skills": ["Go"]}`)
	before := map[string]string{}
	for _, name := range store.Names() {
		data, _ := store.Read(context.Background(), name)
		before[name] = string(data)
	}

	_, err := newTestEngine(t, store, nil, ModeLocal).Run(context.Background())
	require.NoError(t, err)

	for name, data := range before {
		after, err := store.Read(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, data, string(after))
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Go"]}`)

	engine, err := NewEngine(Options{
		Store:  store,
		DryRun: true,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	res, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Equal(t, 1, res.Request.Snapshots)
	assert.Len(t, store.Names(), 1)
}

func TestRun_RecordsAndValidates(t *testing.T) {
	store := snapshot.NewMemStore()
	seedStore(store, `{"skills": ["Go"]}`)

	var recorded *Result
	validated := false
	engine, err := NewEngine(Options{
		Store: store,
		Mode:  ModeLocal,
		Recorder: recorderFunc(func(_ context.Context, r *Result) error {
			recorded = r
			return errors.New("ledger offline")
		}),
		Validate: func(map[string]any) error {
			validated = true
			return errors.New("schema mismatch")
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	res, err := engine.Run(context.Background())
	require.NoError(t, err, "recorder and validator failures are warnings")
	assert.True(t, validated)
	require.NotNil(t, recorded)
	assert.Equal(t, res.RunID, recorded.RunID)
	assert.NotEmpty(t, res.Output)
}

func TestNewEngine_Config(t *testing.T) {
	_, err := NewEngine(Options{})
	assert.Error(t, err)

	_, err = NewEngine(Options{Store: snapshot.NewMemStore(), Mode: ModeLLM})
	var cerr *ConfigError
	assert.True(t, errors.As(err, &cerr))

	_, err = ParseMode("magic")
	assert.Error(t, err)
}

func TestParseResult(t *testing.T) {
	doc, err := ParseResult("```json\n{\"skills\": [\"Go\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []any{"Go"}, doc["skills"])

	_, err = ParseResult("Here you go: {\"skills\": []}")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Here you go: {\"skills\": []}", verr.Raw)
}

func TestBuildRequest_EmbedsPayloadsInOrder(t *testing.T) {
	req, err := BuildRequest([]snapshot.Snapshot{
		snap(t, 1, `{"skills": ["<b>Python</b>"]}`),
		snap(t, 2, `{"skills": ["Go"]}`),
	})
	require.NoError(t, err)

	text := req.String()
	assert.True(t, strings.HasPrefix(text, req.System))
	assert.Contains(t, text, "contact, education, research, skills, honors, projects, coursework")
	assert.Contains(t, text, `"<b>Python</b>"`, "payloads are not HTML escaped")
	assert.Less(t, strings.Index(text, "Python"), strings.Index(text, `"Go"`))

	_, err = BuildRequest(nil)
	assert.Error(t, err)
}
