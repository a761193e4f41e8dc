package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Browser.Stealth)
	assert.Equal(t, "youtube", cfg.Scraper.Site)
	assert.Equal(t, 60*time.Second, cfg.Scraper.NavTimeout)
	assert.Equal(t, 15*time.Second, cfg.Scraper.CommentsTimeout)
	assert.Equal(t, 2*time.Second, cfg.Scraper.ScrollDelay)
	assert.Equal(t, "ytcomments:comments", cfg.Output.RedisKey)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("YTC_HEADLESS", "false")
	t.Setenv("YTC_SCROLL_DELAY", "3500ms")
	t.Setenv("YTC_BLOCKED_RESOURCES", "Image, Font,,Media")
	t.Setenv("YTC_NAV_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 3500*time.Millisecond, cfg.Scraper.ScrollDelay)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResources)
	assert.Equal(t, 60*time.Second, cfg.Scraper.NavTimeout)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("YTC_SITE=fromfile\nYTC_LOG_LEVEL=debug\n"), 0o644))

	// Existing variables win over the file.
	t.Setenv("YTC_LOG_LEVEL", "warn")
	t.Setenv("YTC_SITE", "")
	require.NoError(t, os.Unsetenv("YTC_SITE"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "fromfile", os.Getenv("YTC_SITE"))
	assert.Equal(t, "warn", os.Getenv("YTC_LOG_LEVEL"))
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadInput_JSON(t *testing.T) {
	path := writeTemp(t, "INPUT.json", `{
  "videoUrls": ["https://example.com/watch?v=abc", "  "],
  "maxComments": 2,
  "useProxy": false
}`)
	in, err := LoadInput(path)
	require.NoError(t, err)

	req, err := in.Request()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/watch?v=abc", "  "}, req.VideoURLs)
	require.NotNil(t, req.MaxComments)
	assert.Equal(t, 2, *req.MaxComments)
	assert.False(t, req.UseProxy)
}

func TestLoadInput_YAMLDefaults(t *testing.T) {
	path := writeTemp(t, "input.yaml", "videoUrls:\n  - https://example.com/watch?v=abc\n")
	in, err := LoadInput(path)
	require.NoError(t, err)

	req, err := in.Request()
	require.NoError(t, err)
	assert.Nil(t, req.MaxComments)
	assert.True(t, req.UseProxy)
}

func TestLoadInput_YAMLBlockListOfURLs(t *testing.T) {
	path := writeTemp(t, "input.yaml", `videoUrls:
  - https://www.youtube.com/watch?v=abc&t=1:30
  - http://localhost:8080/watch?v=def
  - https://youtu.be/ghi?si=x:y
maxComments: 10
useProxy: false
`)
	in, err := LoadInput(path)
	require.NoError(t, err)

	req, err := in.Request()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=abc&t=1:30",
		"http://localhost:8080/watch?v=def",
		"https://youtu.be/ghi?si=x:y",
	}, req.VideoURLs)
	require.NotNil(t, req.MaxComments)
	assert.Equal(t, 10, *req.MaxComments)
	assert.False(t, req.UseProxy)
}

func TestLoadInput_Empty(t *testing.T) {
	in, err := LoadInput("")
	require.NoError(t, err)
	req, err := in.Request()
	require.NoError(t, err)
	assert.Empty(t, req.VideoURLs)
	assert.True(t, req.UseProxy)
}

func TestInput_ZeroAndNegativeMax(t *testing.T) {
	zero, neg := 0, -1

	req, err := (&Input{MaxComments: &zero}).Request()
	require.NoError(t, err)
	assert.Nil(t, req.MaxComments)

	_, err = (&Input{MaxComments: &neg}).Request()
	assert.Error(t, err)
}

func TestLoadInput_Invalid(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "videoUrls: [unclosed\n")
	_, err := LoadInput(path)
	assert.Error(t, err)

	_, err = LoadInput(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
