package htmldriver

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytcomments/internal/scraper"
	"ytcomments/internal/sites/youtube"
)

type collect []scraper.Comment

func (c *collect) Append(_ context.Context, cm scraper.Comment) error {
	*c = append(*c, cm)
	return nil
}

func newScraper(t *testing.T, d *Driver, sink scraper.Sink) *scraper.CommentScraper {
	t.Helper()
	s, err := scraper.NewCommentScraper(
		scraper.Options{Site: youtube.Site.Name, ScrollDelay: time.Millisecond},
		d.Launcher(),
		sink,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, err)
	return s
}

func TestReplaySnapshot(t *testing.T) {
	url := "https://www.youtube.com/watch?v=abc"
	d := File(filepath.Join("testdata", "watch.html"))
	var got collect

	summary, err := newScraper(t, d, &got).Run(context.Background(), scraper.Request{VideoURLs: []string{url}})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, scraper.Comment{VideoURL: url, Username: "@alice", Timestamp: "2 days ago", Comment: "First!"}, got[0])
	assert.Equal(t, "1 day ago (edited)", got[1].Timestamp)
	assert.Equal(t, "@dave", got[2].Username)
	assert.Equal(t, 3, summary.Emitted[url])
	assert.True(t, d.Closed())
}

func TestReplaySnapshot_MaxComments(t *testing.T) {
	url := "https://www.youtube.com/watch?v=abc"
	d := File(filepath.Join("testdata", "watch.html"))
	var got collect
	limit := 1

	_, err := newScraper(t, d, &got).Run(context.Background(), scraper.Request{VideoURLs: []string{url}, MaxComments: &limit})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "@alice", got[0].Username)
}

func TestPages_MissingContainer(t *testing.T) {
	d := Pages(map[string]string{
		"https://a": `<html><body><p>comments are turned off</p></body></html>`,
		"https://b": `<html><body><div id="comments"><div id="contents">
			<ytd-comment-thread-renderer>
				<a id="author-text">x</a>
				<span id="published-time-text"><a>now</a></span>
				<span id="content-text">hi</span>
			</ytd-comment-thread-renderer></div></div></body></html>`,
	})
	var got collect

	summary, err := newScraper(t, d, &got).Run(context.Background(), scraper.Request{
		VideoURLs: []string{"https://a", "https://missing", "https://b"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a", "https://b"}, d.Navigated())
	require.Len(t, got, 1)
	assert.Equal(t, "https://b", got[0].VideoURL)
	require.Len(t, summary.Failures, 2)
	assert.Equal(t, scraper.KindCommentsMissing, summary.Failures[0].Kind)
	assert.Equal(t, scraper.KindNavigation, summary.Failures[1].Kind)
}

func TestDriver_InvalidSelector(t *testing.T) {
	d := Pages(map[string]string{"u": "<html></html>"})
	require.NoError(t, d.Navigate(context.Background(), "u", time.Second))

	_, err := d.QueryAll(context.Background(), "div[")
	assert.ErrorContains(t, err, "invalid selector")
}

func TestDriver_QueryBeforeNavigate(t *testing.T) {
	d := Pages(nil)
	_, err := d.QueryAll(context.Background(), "div")
	assert.Error(t, err)
}

func TestDriver_Attributes(t *testing.T) {
	d := Pages(map[string]string{"u": `<div id="comment" class="x"></div><div class="x"></div>`})
	require.NoError(t, d.Navigate(context.Background(), "u", time.Second))

	els, err := d.QueryAll(context.Background(), ".x")
	require.NoError(t, err)
	require.Len(t, els, 2)

	id, ok, err := els[0].Attribute(context.Background(), "id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "comment", id)

	_, ok, err = els[1].Attribute(context.Background(), "id")
	require.NoError(t, err)
	assert.False(t, ok)

	child, err := els[0].QueryOne(context.Background(), "span")
	require.NoError(t, err)
	assert.Nil(t, child)
}
