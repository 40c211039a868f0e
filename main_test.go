package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonsieve/internal/config"
	"github.com/mcncl/jsonsieve/internal/errors"
)

const profilesJSON = `{
	"success": true,
	"profiles": [{
		"profile_id": "p1",
		"members": {
			"4b2a8c5e1f3d4c6b9a7e2d1f0c3b5a69": {"coins": 5, "quests": {"x": 1}, "collection": {"WHEAT": 10}},
			"00000000000000000000000000000000": {"coins": 9, "collection": {"WHEAT": 3}}
		}
	}]
}`

const selectedUUID = "4b2a8c5e-1f3d-4c6b-9a7e-2d1f0c3b5a69"

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runWith resets CLI, applies setup and runs with stdout captured.
func runWith(t *testing.T, cfg *config.Config, setup func()) (string, error) {
	t.Helper()
	originalCLI := CLI
	t.Cleanup(func() { CLI = originalCLI })

	CLI.Input = "-"
	CLI.Output = ""
	if setup != nil {
		setup()
	}

	var out bytes.Buffer
	err := run(&Context{Config: cfg, Stdout: &out, Stdin: strings.NewReader("")})
	return out.String(), err
}

func TestRun_PathsFromFile(t *testing.T) {
	input := writeInput(t, "profiles.json", profilesJSON)

	cfg := config.NewConfig()
	cfg.Selector = "4b2a8c5e1f3d4c6b9a7e2d1f0c3b5a69"
	cfg.Blacklist = []string{"quests"}
	cfg.Rules = []config.RuleConfig{{Trigger: "members"}}

	out, err := runWith(t, cfg, func() { CLI.Input = input })
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "$.success "))
	assert.Contains(t, out, `= "p1"`)
	assert.Contains(t, out, `$.profiles[0].members.4b2a8c5e1f3d4c6b9a7e2d1f0c3b5a69.coins`)
	assert.NotContains(t, out, "quests")
	assert.NotContains(t, out, "00000000000000000000000000000000")
}

func TestRun_PresetWithUUIDSelector(t *testing.T) {
	cfg, err := config.LoadConfigWithCLI("", config.CLIOverrides{
		Selector:       selectedUUID,
		SelectorFormat: "uuid",
		Preset:         "skyblock-profiles",
	})
	require.NoError(t, err)

	out, err := runWith(t, cfg, func() { CLI.Input = writeInput(t, "p.json", profilesJSON) })
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var paths []string
	for _, l := range lines {
		paths = append(paths, strings.TrimSpace(strings.SplitN(l, "=", 2)[0]))
	}

	assert.Equal(t, []string{
		"$.success",
		"$.profiles[0].profile_id",
		"$.profiles[0].members.4b2a8c5e1f3d4c6b9a7e2d1f0c3b5a69.coins",
		"$.profiles[0].members.4b2a8c5e1f3d4c6b9a7e2d1f0c3b5a69.collection.WHEAT",
		"$.profiles[0].members.00000000000000000000000000000000.collection.WHEAT",
	}, paths)
}

func TestRun_SummaryWithDigest(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Output.Format = "summary"
	cfg.Output.Digest = true

	first, err := runWith(t, cfg, func() { CLI.Input = writeInput(t, "a.json", profilesJSON) })
	require.NoError(t, err)
	assert.Contains(t, first, "objects:")
	assert.Contains(t, first, "digest:")

	second, err := runWith(t, cfg, func() { CLI.Input = writeInput(t, "b.json", profilesJSON) })
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_PathsWithDigest(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Output.Digest = true

	out, err := runWith(t, cfg, func() { CLI.Input = writeInput(t, "a.json", `{"a":1}`) })
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "$.a = 1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "# digest "))
}

func TestRun_Stdin(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()
	CLI.Input = "-"
	CLI.Output = ""

	var out bytes.Buffer
	err := run(&Context{Config: config.NewConfig(), Stdin: strings.NewReader(`[1,"two"]`), Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, "$[0] = 1\n$[1] = \"two\"\n", out.String())
}

func TestRun_GzipInput(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"k":"v"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := runWith(t, config.NewConfig(), func() { CLI.Input = writeInput(t, "doc.json.gz", buf.String()) })
	require.NoError(t, err)
	assert.Equal(t, "$.k = \"v\"\n", out)
}

func TestRun_SelectorFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, profilesJSON)
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.Rules = []config.RuleConfig{{Trigger: "members"}}

	out, err := runWith(t, cfg, func() {
		CLI.Input = srv.URL + "/v2/skyblock/profiles?uuid=00000000000000000000000000000000"
	})
	require.NoError(t, err)
	assert.Contains(t, out, "00000000000000000000000000000000.coins")
	assert.NotContains(t, out, "4b2a8c5e1f3d4c6b9a7e2d1f0c3b5a69")
}

func TestRun_WithOutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.txt")

	out, err := runWith(t, config.NewConfig(), func() {
		CLI.Input = writeInput(t, "in.json", `{"id": 1, "email": "test@example.com"}`)
		CLI.Output = outPath
	})
	require.NoError(t, err)
	assert.Empty(t, out)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "$.id    = 1\n$.email = \"test@example.com\"\n", string(content))
}

func TestRun_FailureWritesNothing(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.txt")

	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{name: "truncated", input: `{"a": [1, 2`, check: errors.IsUnexpectedEOF},
		{name: "malformed", input: `{"a": 1,}`, check: errors.IsMalformed},
		{name: "empty", input: ``, check: errors.IsUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runWith(t, config.NewConfig(), func() {
				CLI.Input = writeInput(t, "in.json", tt.input)
				CLI.Output = outPath
			})
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected classification: %v", err)

			_, statErr := os.Stat(outPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Rules = []config.RuleConfig{{Trigger: "members"}}

	_, err := runWith(t, cfg, func() { CLI.Input = writeInput(t, "in.json", `{}`) })
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoSelector)
	assert.Equal(t, 1, strings.Count(err.Error(), errors.ErrNoSelector.Error()), "cause repeated: %v", err)
	assert.Equal(t, "Configuration error: No selector provided. Use -s or set selector in the config file.",
		errors.UserFriendlyError(err))

	_, err = runWith(t, config.NewConfig(), func() { CLI.Input = filepath.Join(t.TempDir(), "missing.json") })
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}

func TestWriteOutput_FileError(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Output = filepath.Join(t.TempDir(), "missing-dir", "out.txt")
	err := writeOutput(&Context{Logger: newLogger(&bytes.Buffer{}, false)}, "x")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrorTypeOutput, appErr.Type)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}
