// Package merge reconciles résumé snapshots into a canonical document, either by
// delegating to the generation service or with the local reconciliation policy.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/snapshot"
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 60 * time.Second

// Mode selects who reconciles the snapshots.
type Mode string

const (
	// ModeLLM sends the snapshots to the generation service.
	ModeLLM Mode = "llm"
	// ModeLocal applies Reconcile without any external call.
	ModeLocal Mode = "local"
)

// ParseMode validates a mode name. The empty string selects ModeLLM.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLLM:
		return ModeLLM, nil
	case ModeLocal:
		return ModeLocal, nil
	}
	return "", &ConfigError{Message: fmt.Sprintf("unknown merge mode %q (want llm or local)", s)}
}

// State is a step of a merge pass.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateNoData     State = "no_data"
	StateLoaded     State = "loaded"
	StateRequesting State = "requesting"
	StateParsed     State = "parsed"
	StateRejected   State = "rejected"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Recorder keeps a ledger of finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, result *Result) error
}

// Options configures an Engine.
type Options struct {
	Store   snapshot.Store
	Client  llm.Client // required for ModeLLM
	Mode    Mode
	Tier    llm.ModelTier
	Timeout time.Duration
	// DryRun stops after the request is built; nothing is sent or written.
	DryRun bool
	Now    func() time.Time
	Logger *slog.Logger
	// Recorder is optional; recording failures are logged and otherwise ignored.
	Recorder Recorder
	// Validate is an optional structural check of the canonical document.
	// Failures are logged as warnings.
	Validate func(doc map[string]any) error
}

// Result describes one merge pass.
type Result struct {
	RunID   uuid.UUID
	Mode    Mode
	State   State   // StateDone or StateFailed
	Outcome State   // StateNoData, StateParsed, StateRejected or StateFailed
	Trace   []State // every state entered, in order

	FilesRead []string
	Skipped   []string

	Output       string // canonical document written, if any
	FailedOutput string // rejected response written, if any
	Document     map[string]any
	Request      *Request
	Fixes        []string
	Diagnostic   string

	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Result) enter(s State) {
	r.Trace = append(r.Trace, s)
	r.State = s
	if s != StateDone {
		r.Outcome = s
	}
}

// Engine runs merge passes.
type Engine struct {
	opts Options
}

// NewEngine validates opts and fills defaults.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, &ConfigError{Message: "snapshot store is required"}
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	opts.Mode = mode
	if opts.Mode == ModeLLM && opts.Client == nil && !opts.DryRun {
		return nil, &ConfigError{Message: "llm mode requires a generation client"}
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{opts: opts}, nil
}

// Run performs one merge pass over the snapshots currently in the store.
//
// NoData and Rejected are ordinary outcomes: Run returns a nil error and sets
// Result.Diagnostic. Service failures return a *ServiceError and storage
// failures a *snapshot.StoreError; in both cases no canonical document is written.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	log := e.opts.Logger
	res := &Result{RunID: uuid.New(), Mode: e.opts.Mode, StartedAt: e.opts.Now()}
	res.enter(StateIdle)
	log = log.With("run_id", res.RunID.String(), "mode", string(e.opts.Mode))

	res.enter(StateLoading)
	loaded, err := snapshot.Load(ctx, e.opts.Store, log)
	if loaded != nil {
		res.FilesRead = loaded.Files
		for _, s := range loaded.Skipped {
			res.Skipped = append(res.Skipped, s.Name)
		}
	}
	var noInput *snapshot.NoInputError
	switch {
	case errors.As(err, &noInput):
		res.enter(StateNoData)
		res.Diagnostic = noInput.Error()
		log.Warn("no snapshots to merge", "location", noInput.Location, "skipped", noInput.Skipped)
		return e.finish(ctx, res, nil)
	case err != nil:
		return e.finish(ctx, res, err)
	}
	res.enter(StateLoaded)
	log.Info("snapshots loaded", "count", len(loaded.Snapshots), "skipped", len(loaded.Skipped))

	baseline := Reconcile(loaded.Snapshots)

	var doc map[string]any
	if e.opts.Mode == ModeLocal {
		if e.opts.DryRun {
			res.Document = baseline
			res.Diagnostic = "dry run: nothing written"
			return e.finish(ctx, res, nil)
		}
		doc = baseline
		res.enter(StateParsed)
	} else {
		req, err := BuildRequest(loaded.Snapshots)
		if err != nil {
			return e.finish(ctx, res, err)
		}
		res.Request = req
		if e.opts.DryRun {
			res.Diagnostic = "dry run: request not sent"
			return e.finish(ctx, res, nil)
		}

		res.enter(StateRequesting)
		raw, err := e.generate(ctx, req)
		if err != nil {
			log.Error("generation request failed", "error", err)
			return e.finish(ctx, res, &ServiceError{Message: "generation request failed", Cause: err})
		}

		parsed, err := ParseResult(raw)
		if err != nil {
			res.enter(StateRejected)
			res.Diagnostic = err.Error()
			name, werr := WriteFailed(ctx, e.opts.Store, raw, e.opts.Now())
			if werr != nil {
				return e.finish(ctx, res, werr)
			}
			res.FailedOutput = name
			log.Error("service response rejected", "error", err, "raw_file", name)
			return e.finish(ctx, res, nil)
		}
		res.enter(StateParsed)

		res.Fixes = Conform(parsed, baseline)
		for _, fix := range res.Fixes {
			log.Warn("corrected service output", "fix", fix)
		}
		doc = parsed
	}

	if e.opts.Validate != nil {
		if verr := e.opts.Validate(doc); verr != nil {
			log.Warn("canonical document does not match the resume schema", "error", verr)
		}
	}

	name, err := WriteCanonical(ctx, e.opts.Store, doc, e.opts.Now())
	if err != nil {
		return e.finish(ctx, res, err)
	}
	res.Output = name
	res.Document = doc
	log.Info("canonical document written", "file", name)
	return e.finish(ctx, res, nil)
}

func (e *Engine) generate(ctx context.Context, req *Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	return e.opts.Client.GenerateJSON(ctx, req.String(), e.opts.Tier)
}

func (e *Engine) finish(ctx context.Context, res *Result, err error) (*Result, error) {
	if err != nil {
		res.enter(StateFailed)
		if res.Diagnostic == "" {
			res.Diagnostic = err.Error()
		}
	} else {
		res.enter(StateDone)
	}
	res.FinishedAt = e.opts.Now()

	if e.opts.Recorder != nil && !e.opts.DryRun {
		if rerr := e.opts.Recorder.RecordRun(context.WithoutCancel(ctx), res); rerr != nil {
			e.opts.Logger.Warn("failed to record merge run", "run_id", res.RunID.String(), "error", rerr)
		}
	}
	return res, err
}
