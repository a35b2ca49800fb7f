package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ruleflow", cmd.Use)
	assert.Contains(t, cmd.Long, "RULEFLOW_")
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"init", "show", "list", "apply", "undo", "redo",
		"history", "replay", "validate", "generate", "test",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"db", "class-name", "max-versions", "strict"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag --%s", name)
	}
}

func TestStepCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"undo", "redo"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		steps := sub.Flags().Lookup("steps")
		require.NotNil(t, steps, name)
		assert.Equal(t, "n", steps.Shorthand)
		assert.Equal(t, "1", steps.DefValue)
	}
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	out := sub.Flags().Lookup("out")
	require.NotNil(t, out)
	assert.Equal(t, "o", out.Shorthand)
	assert.NotNil(t, sub.Flags().Lookup("no-header"))
}

func TestValidateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)

	kind := sub.Flags().Lookup("kind")
	require.NotNil(t, kind)
	assert.Equal(t, KindAuto, kind.DefValue)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid format", []string{"list", "--format", "yaml"}},
		{"max versions out of range", []string{"list", "--max-versions", "0"}},
		{"bad class name", []string{"list", "--class-name", "not a class"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--db", dbPath(t))
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestResolve_EnvironmentAndOverrides(t *testing.T) {
	t.Setenv("RULEFLOW_CLASS_NAME", "EnvEngine")
	t.Setenv("RULEFLOW_DB", dbPath(t))

	opts := &RootOptions{}
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	require.NoError(t, sub.ParseFlags([]string{"--max-versions", "7", "-v"}))
	opts.Verbose = true
	opts.Format = "text"
	opts.MaxVersions = 7

	require.NoError(t, opts.resolve(sub))
	assert.Equal(t, "EnvEngine", opts.Config.ClassName)
	assert.Equal(t, 7, opts.Config.MaxVersions)
	assert.Equal(t, "debug", opts.Config.LogLevel)
	require.NotNil(t, opts.Logger)
}
