package codegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// Language is the Artifact language tag of generated source.
const Language = "python"

const indentUnit = "    "

// ErrInvalidClassName is returned when the document's class name is not a
// Python identifier.
var ErrInvalidClassName = errors.New("class name is not a valid identifier")

// PythonGenerator compiles a Configuration to a single Python module.
// It implements session.Generator.
type PythonGenerator struct {
	header bool
	logger *slog.Logger
}

// Option configures a PythonGenerator.
type Option func(*PythonGenerator)

// WithHeader toggles the provenance comment block at the top of the file.
func WithHeader(on bool) Option {
	return func(g *PythonGenerator) {
		g.header = on
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *PythonGenerator) {
		g.logger = l
	}
}

// NewPythonGenerator creates a generator with the header enabled.
func NewPythonGenerator(opts ...Option) *PythonGenerator {
	g := &PythonGenerator{
		header: true,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate compiles cfg. Documents that break structural invariants are
// rejected before any source is produced.
func (g *PythonGenerator) Generate(ctx context.Context, cfg *ruleflow.Configuration) (*ruleflow.Artifact, error) {
	if cfg == nil {
		return nil, fmt.Errorf("generate: nil configuration")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ruleflow.Validate(cfg); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	className := cfg.Metadata.ClassName
	if className == "" {
		className = ruleflow.DefaultClassName
	}
	if !isIdentifier(className) {
		return nil, fmt.Errorf("generate: %q: %w", className, ErrInvalidClassName)
	}

	hash := ruleflow.MustHash(cfg)
	w := &writer{}
	if g.header {
		g.writeHeader(w, cfg, hash)
	}
	writePrelude(w, cfg)
	writeClass(w, className, cfg.Packages)

	art := &ruleflow.Artifact{
		Filename:   moduleName(className) + ".py",
		Language:   Language,
		Source:     w.String(),
		ConfigHash: hash,
	}
	g.logger.Debug("source generated", "file", art.Filename, "packages", len(cfg.Packages), "bytes", len(art.Source))
	return art, nil
}

func (g *PythonGenerator) writeHeader(w *writer, cfg *ruleflow.Configuration, hash string) {
	w.line(0, "# Generated by ruleflow. Do not edit.")
	w.line(0, "# app_id: %s", cfg.Metadata.AppID)
	w.line(0, "# runtime_id: %s", cfg.Metadata.RuntimeID)
	w.line(0, "# config_hash: %s", hash)
	w.blank()
}

// writePrelude emits imports, constants and helper functions verbatim, in
// that order, each group followed by a blank line.
func writePrelude(w *writer, cfg *ruleflow.Configuration) {
	for _, group := range [][]string{cfg.Imports, cfg.Constants, cfg.HelperFunctions} {
		wrote := false
		for _, chunk := range group {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			w.block(0, chunk)
			wrote = true
		}
		if wrote {
			w.blank()
		}
	}
}

func writeClass(w *writer, className string, packages []ruleflow.Package) {
	methods := packageMethods(packages)

	w.line(0, "class %s:", className)
	w.line(1, "def run(self, data):")
	if len(packages) == 0 {
		w.line(2, "pass")
	}
	for i, p := range packages {
		if p.Condition != nil && strings.TrimSpace(*p.Condition) != "" {
			w.line(2, "if %s:", strings.TrimSpace(*p.Condition))
			w.line(3, "self.%s(data)", methods[i])
			continue
		}
		w.line(2, "self.%s(data)", methods[i])
	}

	for i, p := range packages {
		w.blank()
		w.line(1, "def %s(self, data):", methods[i])
		w.line(2, "# package %q, execution order %d", p.Name, p.ExecutionOrder)
		if len(p.Rules) == 0 {
			w.line(2, "pass")
		}
		for _, r := range p.Rules {
			writeRule(w, r)
		}
	}
}

func writeRule(w *writer, r ruleflow.Rule) {
	w.line(2, "# rule %q", r.Name)
	code := ruleflow.RegenerateCode(r)
	if strings.TrimSpace(code) == "" {
		code = "pass"
	}
	if r.Condition != nil && strings.TrimSpace(*r.Condition) != "" {
		w.line(2, "if %s:", strings.TrimSpace(*r.Condition))
		w.block(3, code)
		return
	}
	w.block(2, code)
}

// packageMethods names one method per package: "_p<order>_<slug>".
// The order prefix keeps names unique even when package names collide.
func packageMethods(packages []ruleflow.Package) []string {
	names := make([]string, len(packages))
	for i, p := range packages {
		slug := ruleflow.Slug(p.Name)
		if slug == "" {
			names[i] = fmt.Sprintf("_p%d", i)
			continue
		}
		names[i] = fmt.Sprintf("_p%d_%s", i, slug)
	}
	return names
}

// moduleName converts a CamelCase class name to a snake_case module name.
func moduleName(className string) string {
	var b strings.Builder
	for i, r := range className {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
