package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

//go:embed ruleflow.cue
var schemaCUE string

// Validator checks inputs against the embedded schema.
//
// Thread-safety: safe for concurrent use; validations are serialized because
// a cue.Context is not.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("ruleflow.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: v}, nil
}

// ValidateDocument checks a JSON configuration document.
func (v *Validator) ValidateDocument(data []byte) error {
	return v.check("#Configuration", "document.json", data)
}

// ValidateAction checks one JSON wire action. The definition is chosen by
// the action's "type" tag.
func (v *Validator) ValidateAction(data []byte) error {
	var env struct {
		Type ruleflow.ActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return &ValidationError{Code: ErrCodeSyntax, Message: err.Error()}
	}
	if !slices.Contains(ruleflow.ActionTypes, env.Type) {
		return &ValidationError{
			Code:    ErrCodeUnknownAction,
			Path:    "type",
			Message: fmt.Sprintf("unknown action type %q", env.Type),
		}
	}
	return v.check("#"+string(env.Type), "action.json", data)
}

// ValidateActions checks a JSON array of wire actions and reports every
// failing element.
func (v *Validator) ValidateActions(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return &ValidationError{Code: ErrCodeSyntax, Message: err.Error()}
	}
	var errs []error
	for i, raw := range raws {
		if err := v.ValidateAction(raw); err != nil {
			errs = append(errs, fmt.Errorf("actions[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (v *Validator) check(def, filename string, data []byte) error {
	if !json.Valid(data) {
		return &ValidationError{Code: ErrCodeSyntax, Message: "input is not valid JSON"}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	input := v.ctx.CompileBytes(data, cue.Filename(filename))
	if err := input.Err(); err != nil {
		return &ValidationError{Code: ErrCodeSyntax, Message: err.Error()}
	}
	unified := v.schema.LookupPath(cue.ParsePath(def)).Unify(input)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convert(err)
	}
	return nil
}

// convert splits a CUE error list into ValidationErrors.
func convert(err error) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &ValidationError{Code: ErrCodeViolation, Message: err.Error()}
	}
	errs := make([]error, 0, len(list))
	for _, e := range list {
		ve := &ValidationError{
			Code:    ErrCodeViolation,
			Path:    strings.Join(e.Path(), "."),
			Message: messageOf(e),
		}
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			ve.Pos = pos[0]
		}
		errs = append(errs, ve)
	}
	return errors.Join(errs...)
}

func messageOf(e cueerrors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}
