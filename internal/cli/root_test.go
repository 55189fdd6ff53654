package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args against the in-memory store.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LITURGY_STORE", "memory")
	t.Setenv("LITURGY_GATEWAY", "log")

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeResponse(t *testing.T, raw string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), raw)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "liturgy", cmd.Use)
	assert.Contains(t, cmd.Long, "LITURGY_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "migrate", "easter", "season", "plan", "program", "notify", "feed"}

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
}

func TestPlanCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	planCmd, _, err := cmd.Find([]string{"plan"})
	require.NoError(t, err)

	typeFlag := planCmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "Holy Communion", typeFlag.DefValue)

	assert.NotNil(t, planCmd.Flags().Lookup("assign"))
}

func TestProgramCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	programCmd, _, err := cmd.Find([]string{"program"})
	require.NoError(t, err)

	asFlag := programCmd.Flags().Lookup("as")
	require.NotNil(t, asFlag)
	assert.Equal(t, "text", asFlag.DefValue)

	outputFlag := programCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestInvalidFormatIsCommandError(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "easter", "2025")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEasterCommand(t *testing.T) {
	tests := []struct {
		year string
		want string
	}{
		{"2024", "Easter 2024: 2024-03-31\n"},
		{"2025", "Easter 2025: 2025-04-20\n"},
	}
	for _, tt := range tests {
		t.Run(tt.year, func(t *testing.T) {
			out, err := execute(t, "easter", tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEasterCommandJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "easter", "2025")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2025-04-20", data["easter"])
	assert.Equal(t, "2025-03-05", data["ash_wednesday"])
	assert.Equal(t, "2025-06-08", data["pentecost"])
}

func TestEasterCommandRejectsYear(t *testing.T) {
	for _, year := range []string{"1200", "abc"} {
		t.Run(year, func(t *testing.T) {
			out, err := execute(t, "easter", year)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, ErrCodeInvalidInput)
		})
	}
}

func TestSeasonCommand(t *testing.T) {
	out, err := execute(t, "--format", "json", "season", "2025-12-25")
	require.NoError(t, err)

	data, ok := decodeResponse(t, out).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Christmas", data["season"])
	assert.Equal(t, "White", data["color"])
}

func TestSeasonCommandRejectsDate(t *testing.T) {
	_, err := execute(t, "season", "25/12/2025")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanCommandCreatesServices(t *testing.T) {
	out, err := execute(t, "--format", "json", "plan",
		"--pattern", "Sunday at 10:30",
		"--from", "2025-03-01",
		"--until", "2025-03-31",
	)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   PlanResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Len(t, resp.Data.Created, 5)

	dates := make([]string, 0, len(resp.Data.Created))
	for _, s := range resp.Data.Created {
		dates = append(dates, s.Date)
		assert.Equal(t, "10:30", s.Time)
		assert.Equal(t, "Holy Communion", s.ServiceType)
		assert.NotEmpty(t, s.ID)
	}
	assert.Equal(t, []string{"2025-03-02", "2025-03-09", "2025-03-16", "2025-03-23", "2025-03-30"}, dates)
	assert.Equal(t, "Epiphany", resp.Data.Created[0].Season)
	assert.Equal(t, "Lent", resp.Data.Created[1].Season)
	assert.Equal(t, "Purple", resp.Data.Created[1].Color)
}

func TestPlanCommandRejectsPattern(t *testing.T) {
	out, err := execute(t, "--format", "json", "plan",
		"--pattern", "whenever",
		"--from", "2025-03-01",
		"--until", "2025-03-31",
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "pattern")
}

func TestPlanCommandRejectsAssignment(t *testing.T) {
	_, err := execute(t, "plan",
		"--pattern", "Sunday at 10:30",
		"--from", "2025-03-01",
		"--until", "2025-03-31",
		"--assign", "reading",
	)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestProgramCommandRejectsEncoding(t *testing.T) {
	for _, args := range [][]string{
		{"program", "svc-1", "--as", "docx"},
		{"program", "svc-1", "--as", "pdf"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err), args)
	}
}

func TestProgramCommandUnknownService(t *testing.T) {
	out, err := execute(t, "--format", "json", "program", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)
}

func TestNotifyCommandArguments(t *testing.T) {
	for _, args := range [][]string{
		{"notify"},
		{"notify", "svc-1", "--upcoming"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err), args)
	}
}

func TestNotifyUpcomingWithEmptyStore(t *testing.T) {
	out, err := execute(t, "--format", "json", "notify", "--upcoming")
	require.NoError(t, err)

	data, ok := decodeResponse(t, out).Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 0, data["services"])
	assert.EqualValues(t, 0, data["sent"])
}

func TestFeedCommandWritesCalendar(t *testing.T) {
	out, err := execute(t, "feed", "--name", "St Mary")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "X-WR-CALNAME:St Mary")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestMigrateCommandRequiresSQLite(t *testing.T) {
	_, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMigrateCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "liturgy.db")

	run := func(args ...string) MigrationResult {
		t.Helper()
		t.Setenv("LITURGY_STORE", "sqlite")
		t.Setenv("LITURGY_SQLITE_DSN", dsn)
		cmd := NewRootCommand()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--format", "json"}, args...))
		require.NoError(t, cmd.ExecuteContext(context.Background()))

		var resp struct {
			Data MigrationResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
		return resp.Data
	}

	before := run("migrate", "--status")
	assert.Empty(t, before.Applied)
	assert.Equal(t, []string{"001", "002", "003"}, before.Pending)

	after := run("migrate")
	assert.Equal(t, "003", after.CurrentVersion)
	assert.Equal(t, []string{"001", "002", "003"}, after.Applied)
	assert.Empty(t, after.Pending)
}
