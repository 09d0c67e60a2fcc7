package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/config"
	"github.com/conneroisu/abacus/internal/server"
	"github.com/conneroisu/abacus/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// resetFlags puts every flag of c and its children back to its default so
// that global commands can be executed more than once per process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// startService runs the reference service in memory and points the client
// commands at it.
func startService(t *testing.T) store.Store {
	t.Helper()
	st := store.NewMemoryStore()
	cfg := &config.Config{Server: config.ServerConfig{
		Host:         "127.0.0.1",
		Environment:  config.EnvDevelopment,
		HistoryLimit: 30,
	}}
	srv, err := server.New(cfg, st)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router().Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Hub().Shutdown(context.Background())
	})

	t.Setenv("ABACUS_CLIENT_BASE_URL", ts.URL)
	t.Setenv("ABACUS_CLIENT_PREFS_PATH", filepath.Join(t.TempDir(), "prefs.yml"))
	t.Setenv("ABACUS_LOG_LEVEL", "error")
	return st
}

func TestEvalCommand(t *testing.T) {
	startService(t)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{"precedence", []string{"eval", "12+3*4"}, "24\n", ""},
		{"collapsed operators", []string{"eval", "3+*4"}, "12\n", ""},
		{"split arguments", []string{"eval", "1", "+", "2"}, "3\n", ""},
		{"scientific", []string{"eval", "--mode", "scientific", "sqrt(16)"}, "4\n", ""},
		{"divide by zero", []string{"eval", "5/0"}, "", "Divide by zero"},
		{"invalid", []string{"eval", "2+"}, "", "Invalid expression"},
		{"bad mode", []string{"eval", "--mode", "quantum", "1"}, "", "unknown mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestEvalVerbose(t *testing.T) {
	startService(t)

	out, err := execute(t, "", "eval", "-v", "6/3")
	require.NoError(t, err)
	assert.Contains(t, out, "[Standard] 2")
	assert.Contains(t, out, "= 2   (OK)")
}

func TestEvalServiceDown(t *testing.T) {
	t.Setenv("ABACUS_CLIENT_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("ABACUS_CLIENT_PREFS_PATH", filepath.Join(t.TempDir(), "prefs.yml"))
	t.Setenv("ABACUS_LOG_LEVEL", "error")

	_, err := execute(t, "", "eval", "1+1")
	require.Error(t, err)
	assert.Equal(t, "Invalid", err.Error())
}

func TestHistoryCommand(t *testing.T) {
	st := startService(t)
	ctx := context.Background()

	out, err := execute(t, "", "history")
	require.NoError(t, err)
	assert.Equal(t, "No history yet\n", out)

	_, err = st.Add(ctx, "2*3", "6", "standard")
	require.NoError(t, err)
	_, err = st.Add(ctx, "1-1", "0", "scientific")
	require.NoError(t, err)

	out, err = execute(t, "", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "EXPRESSION")
	assert.Contains(t, lines[1], "1−1")
	assert.Contains(t, lines[2], "2×3")

	out, err = execute(t, "", "history", "--output", "json")
	require.NoError(t, err)
	var items []api.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "1-1", items[0].Expression)

	out, err = execute(t, "", "history", "-o", "yaml")
	require.NoError(t, err)
	var fromYAML []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Len(t, fromYAML, 2)

	_, err = execute(t, "", "history", "--output", "xml")
	assert.Error(t, err)

	out, err = execute(t, "", "history", "clear")
	require.NoError(t, err)
	assert.Equal(t, "History cleared\n", out)

	left, err := st.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestStatsCommand(t *testing.T) {
	st := startService(t)

	out, err := execute(t, "", "stats")
	require.NoError(t, err)
	assert.Equal(t, "Total: 0\nLast:  —\n", out)

	entry, err := st.Add(context.Background(), "1+1", "2", "standard")
	require.NoError(t, err)

	out, err = execute(t, "", "stats", "-o", "json")
	require.NoError(t, err)
	var stats api.StatsSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.Total)
	require.NotNil(t, stats.Last)
	assert.Equal(t, entry.CreatedAt, *stats.Last)
}

func TestModeCommand(t *testing.T) {
	startService(t)

	out, err := execute(t, "", "mode")
	require.NoError(t, err)
	assert.Equal(t, "Standard\n", out)

	out, err = execute(t, "", "mode", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "Scientific mode ON\n", out)

	out, err = execute(t, "", "mode")
	require.NoError(t, err)
	assert.Equal(t, "Scientific\n", out)

	data, err := os.ReadFile(os.Getenv("ABACUS_CLIENT_PREFS_PATH"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "scientific")

	out, err = execute(t, "", "mode", "standard")
	require.NoError(t, err)
	assert.Equal(t, "Standard mode ON\n", out)

	_, err = execute(t, "", "mode", "hex")
	assert.Error(t, err)
}

func TestKeysCommand(t *testing.T) {
	startService(t)

	input := strings.Join([]string{
		"1", "2", "+", "*", "3", "Enter",
		"-",
		"Escape",
		"sin",
		":toggle",
		"sin",
		":history",
		":load 0",
		":load 9",
		":bogus",
		":quit",
		"7",
	}, "\n")

	out, err := execute(t, input, "keys")
	require.NoError(t, err)

	assert.Contains(t, out, "[Standard] 12×3")
	assert.Contains(t, out, "= 36   (OK)")
	assert.Contains(t, out, "[Standard] 36−")
	assert.Contains(t, out, "error: unknown key: sin")
	assert.Contains(t, out, "Scientific mode ON")
	assert.Contains(t, out, "[Scientific] sin(")
	assert.Contains(t, out, "Mode: standard")
	assert.Contains(t, out, "(Loaded)")
	assert.Contains(t, out, "error: unknown command: :bogus")
	assert.NotContains(t, out, "[Scientific] 12×37")
}

func TestHealthCommand(t *testing.T) {
	startService(t)

	out, err := execute(t, "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")

	t.Setenv("ABACUS_CLIENT_BASE_URL", "http://127.0.0.1:1")
	_, err = execute(t, "", "health", "--timeout", "1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is unhealthy")
}

func TestKeysListsKeys(t *testing.T) {
	startService(t)

	out, err := execute(t, ":keys\n:toggle\n:keys\n", "keys")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "sqrt"), out)
	assert.Equal(t, 2, strings.Count(out, "Backspace"), out)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version", "--output", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "go_version")

	out, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: ")
	assert.Contains(t, out, "Go: ")
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"table", OutputTable, false},
		{"JSON", OutputJSON, false},
		{" yaml ", OutputYAML, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f OutputFormat
			err := f.Set(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}
