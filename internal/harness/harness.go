package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/ruleflow/internal/codegen"
	"github.com/roach88/ruleflow/internal/reorder"
	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/schema"
	"github.com/roach88/ruleflow/internal/session"
	"github.com/roach88/ruleflow/internal/store"
	"github.com/roach88/ruleflow/internal/testutil"
)

// Reference prefixes resolved inside action bodies.
const (
	packageRef = "@pkg:"
	ruleRef    = "@rule:"
)

// Harness executes one scenario. It owns the editor, its store and the
// deterministic clock and id source.
type Harness struct {
	scenario  *Scenario
	store     *store.Store
	editor    *session.Editor
	validator *schema.Validator
	layout    reorder.Layout
	logger    *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger routes editor and store diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh in-memory database. An error is returned
// only when the scenario cannot be executed (bad initial document, an
// action that fails to decode or validate); expectation failures are
// reported in the result.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: sc,
		layout:   reorder.DefaultLayout(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}

	st, err := store.Open(":memory:", store.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	h.store = st

	v, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	h.validator = v

	editorOpts := []session.Option{
		session.WithStore(st),
		session.WithActionLog(st),
		session.WithHistoryStore(st),
		session.WithGenerator(codegen.NewPythonGenerator(codegen.WithHeader(false), codegen.WithLogger(h.logger))),
		session.WithClock(testutil.NewStepClock()),
		session.WithIDGenerator(testutil.NewSequenceIDs("id")),
		session.WithLogger(h.logger),
	}
	if sc.ClassName != "" {
		editorOpts = append(editorOpts, session.WithClassName(sc.ClassName))
	}
	if sc.MaxVersions > 0 {
		editorOpts = append(editorOpts, session.WithMaxVersions(sc.MaxVersions))
	}
	h.editor = session.New(editorOpts...)

	if err := h.begin(ctx); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range sc.Steps {
		outcome, err := h.execute(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Kind(), err)
		}
		result.Steps = append(result.Steps, outcome)
		for _, e := range checkExpectation(ctx, h.editor, i, step.Expect, outcome.Changed) {
			result.AddError(e.Error())
		}
	}
	for _, e := range checkExpectation(ctx, h.editor, -1, sc.Expect, false) {
		result.AddError(e.Error())
	}

	result.Final = h.editor.Snapshot()
	result.Hash = ruleflow.MustHash(result.Final)
	return result, nil
}

// begin starts the session on the scenario's initial document, or on
// whatever the (empty) store yields.
func (h *Harness) begin(ctx context.Context) error {
	sc := h.scenario
	path := sc.initialPath()
	if path == "" {
		return h.editor.Load(ctx, sc.AppID, sc.RuntimeID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read initial document: %w", err)
	}
	if err := h.validator.ValidateDocument(data); err != nil {
		return fmt.Errorf("initial document: %w", err)
	}
	cfg, err := ruleflow.ParseConfiguration(data)
	if err != nil {
		return fmt.Errorf("initial document: %w", err)
	}
	h.editor.Start(sc.AppID, sc.RuntimeID, cfg)
	return nil
}

func (h *Harness) execute(ctx context.Context, i int, step Step) (StepOutcome, error) {
	before := ruleflow.MustHash(h.editor.Snapshot())
	out := StepOutcome{Index: i, Kind: step.Kind()}

	switch out.Kind {
	case StepAction:
		a, err := h.decodeAction(step.Action)
		if err != nil {
			return out, err
		}
		if _, err := h.editor.Dispatch(ctx, a); err != nil {
			return out, err
		}
		out.Detail = a.Describe()
	case StepUndo:
		if !h.editor.Undo() {
			out.Detail = "nothing to undo"
		}
	case StepRedo:
		if !h.editor.Redo() {
			out.Detail = "nothing to redo"
		}
	case StepDrag:
		detail, err := h.drag(ctx, step.Drag)
		if err != nil {
			return out, err
		}
		out.Detail = detail
	case StepSave:
		if err := h.editor.Save(ctx); err != nil {
			return out, err
		}
	case StepReload:
		h.editor.Reset()
		if err := h.editor.Load(ctx, h.scenario.AppID, h.scenario.RuntimeID); err != nil {
			return out, err
		}
	}

	out.Hash = ruleflow.MustHash(h.editor.Snapshot())
	out.Changed = out.Hash != before
	return out, nil
}

// drag replays a pointer gesture and dispatches the reorder it produces.
func (h *Harness) drag(ctx context.Context, d *DragStep) (string, error) {
	cfg := h.editor.Snapshot()
	idx := packageByName(cfg, d.Package)
	if idx < 0 {
		return "", fmt.Errorf("drag: no package named %q", d.Package)
	}
	start := h.layout.Center(h.layout.SlotTop(idx))
	g, ok := reorder.StartDrag(h.layout, reorder.RowsOf(cfg), cfg.Packages[idx].ID, start)
	if !ok {
		return "", fmt.Errorf("drag: package %q has no row", d.Package)
	}
	for _, y := range d.Via {
		g.Move(y)
	}
	res := g.Drop(d.To)

	if d.Result != "" && d.Result != res.Kind.String() {
		return "", fmt.Errorf("drag: expected %s drop, got %s", d.Result, res.Kind)
	}
	if res.Action == nil {
		return res.Kind.String(), nil
	}
	if _, err := h.editor.Dispatch(ctx, *res.Action); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s to %d", res.Kind, res.Index), nil
}

// decodeAction resolves references in a YAML action body, validates it
// against the action schema and decodes it.
func (h *Harness) decodeAction(body map[string]any) (ruleflow.Action, error) {
	resolved, err := h.resolveRefs(body)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}
	if err := h.validator.ValidateAction(data); err != nil {
		return nil, err
	}
	return ruleflow.DecodeAction(data)
}

func (h *Harness) resolveRefs(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			r, err := h.resolveRefs(elem)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := h.resolveRefs(elem)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case string:
		return h.resolveRef(val)
	}
	return v, nil
}

func (h *Harness) resolveRef(s string) (string, error) {
	cfg := h.editor.Snapshot()
	switch {
	case strings.HasPrefix(s, packageRef):
		name := strings.TrimPrefix(s, packageRef)
		idx := packageByName(cfg, name)
		if idx < 0 {
			return "", fmt.Errorf("unresolved reference %s", s)
		}
		return cfg.Packages[idx].ID, nil
	case strings.HasPrefix(s, ruleRef):
		r, ok := ruleByPath(cfg, strings.TrimPrefix(s, ruleRef))
		if !ok {
			return "", fmt.Errorf("unresolved reference %s", s)
		}
		return r.ID, nil
	}
	return s, nil
}
