package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Raw bool // print the stored JSON instead of an outline
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <app-id> <runtime-id>",
		Short: "Print a stored document",
		Long: `Print the stored document of an application and runtime.

Text output is an outline of packages and rules in execution order; --raw
prints the document as JSON. With --format json the document is the data
of the response.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print the document JSON")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, appID, runtimeID string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer ws.Close()

	doc, err := ws.store.Load(ctx, appID, runtimeID)
	if err != nil {
		return failFor(f, "failed to load document", err)
	}

	if opts.Raw && opts.Format != "json" {
		data, err := ruleflow.MarshalConfiguration(doc)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode document", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return f.Render(doc, func(w io.Writer) {
		writeOutline(w, doc)
	})
}

// writeOutline prints packages and rules in execution order.
func writeOutline(w io.Writer, doc *ruleflow.Configuration) {
	fmt.Fprintf(w, "%s  %s/%s  hash %s\n", doc.Metadata.ClassName, doc.Metadata.AppID, doc.Metadata.RuntimeID, shortHash(ruleflow.MustHash(doc)))
	for _, p := range doc.Packages {
		line := fmt.Sprintf("%3d  %s", p.ExecutionOrder, p.Name)
		switch {
		case p.Locked():
			line += "  [locked]"
		case p.Condition != nil:
			line += "  if " + *p.Condition
		}
		fmt.Fprintln(w, line)
		for _, r := range p.Rules {
			rule := "       - " + r.Name
			if r.Condition != nil {
				rule += "  if " + *r.Condition
			}
			fmt.Fprintln(w, rule)
		}
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ws, err := openWorkspace(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer ws.Close()

	refs, err := ws.store.List(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list documents", err)
	}
	return f.Render(refs, func(w io.Writer) {
		writeRefs(w, refs)
	})
}

func writeRefs(w io.Writer, refs []store.DocumentRef) {
	if len(refs) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}
	for _, r := range refs {
		fmt.Fprintf(w, "%-20s %-12s %-20s %s  %s\n", r.AppID, r.RuntimeID, r.ClassName, shortHash(r.Hash), r.UpdatedAt)
	}
}
