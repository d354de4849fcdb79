package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/soudan.yaml", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/soudan.yaml", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantFile string
		wantYes  bool
	}{
		{name: "run", args: []string{"run"}, wantCmd: CommandRun},
		{name: "import with file", args: []string{"import", "questions.xlsx"}, wantCmd: CommandImport, wantFile: "questions.xlsx"},
		{name: "export with file", args: []string{"export", "out.csv"}, wantCmd: CommandExport, wantFile: "out.csv"},
		{name: "import without file", args: []string{"import"}, wantErr: "requires a file path"},
		{name: "purge with yes", args: []string{"purge", "--yes"}, wantCmd: CommandPurge, wantYes: true},
		{name: "yes before purge", args: []string{"--yes", "purge"}, wantCmd: CommandPurge, wantYes: true},
		{name: "yes on other command", args: []string{"status", "--yes"}, wantErr: "only valid with purge"},
		{name: "extra arg after status", args: []string{"status", "extra"}, wantErr: "unexpected argument"},
		{name: "two files", args: []string{"import", "a.csv", "b.csv"}, wantErr: "unexpected argument"},
		{name: "unknown command", args: []string{"restart"}, wantErr: "unknown command"},
		{name: "unknown flag", args: []string{"--force"}, wantErr: "unknown flag"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantFile, parsed.File)
			require.Equal(t, tc.wantYes, parsed.Yes)
		})
	}
}
