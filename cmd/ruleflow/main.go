// Command ruleflow edits, versions and generates rule-engine configurations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/ruleflow/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ruleflow:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
