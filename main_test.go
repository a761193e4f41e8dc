package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytcomments/internal/config"
)

func TestBuildRequest_FlagsOverrideInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "INPUT.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"videoUrls":["https://youtu.be/abc"],"maxComments":50,"useProxy":true}`), 0o644))

	cmd := newRootCmd(config.Load())
	require.NoError(t, cmd.ParseFlags([]string{"-i", input, "-n", "5", "--use-proxy=false", "--canonical-urls"}))

	req, err := buildRequest(cmd, []string{"https://www.youtube.com/watch?v=def"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=abc",
		"https://www.youtube.com/watch?v=def",
	}, req.VideoURLs)
	require.NotNil(t, req.MaxComments)
	assert.Equal(t, 5, *req.MaxComments)
	assert.False(t, req.UseProxy)
}

func TestBuildRequest_InputOnly(t *testing.T) {
	input := filepath.Join(t.TempDir(), "input.yaml")
	require.NoError(t, os.WriteFile(input, []byte("videoUrls:\n  - https://example.com/watch?v=abc\nmaxComments: 2\n"), 0o644))

	cmd := newRootCmd(config.Load())
	require.NoError(t, cmd.ParseFlags([]string{"--input", input}))

	req, err := buildRequest(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/watch?v=abc"}, req.VideoURLs)
	assert.Equal(t, 2, *req.MaxComments)
	assert.True(t, req.UseProxy)
}

func TestRun_ReplayToCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "comments.csv")
	cmd := newRootCmd(config.Load())
	cmd.SetArgs([]string{
		"--from-html", filepath.Join("internal", "htmldriver", "testdata", "watch.html"),
		"--scroll-delay", "1ms",
		"--log-level", "error",
		"-o", out,
		"https://www.youtube.com/watch?v=abc",
	})
	require.NoError(t, cmd.Execute())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"videoUrl", "username", "timestamp", "comment"}, rows[0])
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=abc", "@alice", "2 days ago", "First!"}, rows[1])
}

func TestRun_EmptyInputSucceeds(t *testing.T) {
	out := filepath.Join(t.TempDir(), "comments.jsonl")
	cmd := newRootCmd(config.Load())
	cmd.SetArgs([]string{"--log-level", "error", "-o", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, data)
}
