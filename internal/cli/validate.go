package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Kind string // auto | document | actions
}

// FileValidation is the result for one validated file.
type FileValidation struct {
	Path    string   `json:"path"`
	Kind    string   `json:"kind"`
	Valid   bool     `json:"valid"`
	Hash    string   `json:"hash,omitempty"`
	Actions int      `json:"actions,omitempty"`
	Errors  []string `json:"errors"`
}

// ValidateResult holds the results of validating every file.
type ValidateResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check documents and action files",
		Long: `Validate configuration documents or action files against the schema.

Documents are also checked against the structural rules: unique ids, a
contiguous execution order and a single locked initialisation package at
the top. JSON and YAML files are accepted. With --kind auto a file holding
an array, or an object with a "type" field, is treated as actions.

Exit codes:
  0 - All files valid
  1 - At least one file is invalid
  2 - Command error (unreadable file, bad flag)

Examples:
  ruleflow validate scoring.json
  ruleflow validate --kind actions edits/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", KindAuto, "file kind (auto|document|actions)")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	switch opts.Kind {
	case KindAuto, KindDocument, KindActions:
	default:
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("unknown kind %q (want auto, document or actions)", opts.Kind), nil)
	}

	v, err := schema.New()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to load schema", err)
	}

	result := ValidateResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		data, err := readInput(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidInput, "failed to read "+path, err)
		}
		fv := validateFile(v, path, opts.Kind, data)
		if !fv.Valid {
			result.Valid = false
		}
		f.VerboseLog("%s: kind=%s valid=%t", path, fv.Kind, fv.Valid)
		result.Files = append(result.Files, fv)
	}

	if err := f.Render(result, func(w io.Writer) {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", fv.Path, fv.Kind)
				continue
			}
			fmt.Fprintf(w, "✗ %s (%s)\n", fv.Path, fv.Kind)
			for _, e := range fv.Errors {
				fmt.Fprintf(w, "    %s\n", e)
			}
		}
	}); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateFile(v *schema.Validator, path, kind string, data []byte) FileValidation {
	if kind == KindAuto {
		kind = detectKind(data)
	}
	fv := FileValidation{Path: path, Kind: kind, Errors: []string{}}

	if kind == KindActions {
		actions, err := parseActions(v, data)
		if err != nil {
			fv.Errors = errorList(err)
			return fv
		}
		fv.Valid, fv.Actions = true, len(actions)
		return fv
	}

	cfg, err := parseDocument(v, data)
	if err != nil {
		fv.Errors = errorList(err)
		return fv
	}
	fv.Valid, fv.Hash = true, ruleflow.MustHash(cfg)
	return fv
}
