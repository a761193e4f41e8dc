package youtube

import (
	"fmt"
	"net/url"
	"strings"

	"ytcomments/internal/scraper"
)

func init() {
	scraper.Register(Site)
}

// Site is the selector profile of a YouTube watch page.
var Site = scraper.Site{
	Name:        "youtube",
	Container:   "#comments",
	ScrollItem:  "#comment",
	IDAttribute: "id",
	Thread:      "#contents > ytd-comment-thread-renderer",
	Username:    []string{"#author-text"},
	Timestamp: []string{
		"yt-formatted-string.published-time-text a",
		"#published-time-text a",
	},
	Text: []string{"#content-text"},
}

// VideoID extracts the video id from watch, short-link, embed and shorts URLs.
func VideoID(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}

	var id string
	switch {
	case strings.Contains(parsed.Host, "youtu.be"):
		id = strings.TrimPrefix(parsed.Path, "/")
	case strings.HasPrefix(parsed.Path, "/embed/"):
		id = strings.TrimPrefix(parsed.Path, "/embed/")
	case strings.HasPrefix(parsed.Path, "/shorts/"):
		id = strings.TrimPrefix(parsed.Path, "/shorts/")
	case strings.Contains(parsed.Host, "youtube.com"):
		id = parsed.Query().Get("v")
	}
	id = strings.Split(id, "/")[0]
	if id == "" {
		return "", fmt.Errorf("could not extract video ID from URL: %s", rawURL)
	}
	return id, nil
}

// WatchURL rewrites short-link, embed and shorts URLs to the watch page,
// which is the only layout that renders the comments section. Other URLs
// are returned unchanged.
func WatchURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !isYouTubeHost(parsed.Host) {
		return rawURL
	}
	if parsed.Path == "/watch" {
		return rawURL
	}
	id, err := VideoID(rawURL)
	if err != nil {
		return rawURL
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

func isYouTubeHost(host string) bool {
	return strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be")
}
