package scraper

import (
	"sort"
	"strings"
)

// Site is the selector profile of a comment page.
type Site struct {
	Name string

	// Container must appear before the page counts as loaded.
	Container string

	// ScrollItem nodes are counted while scrolling; IDAttribute keys them.
	ScrollItem  string
	IDAttribute string

	// Thread nodes are walked in document order during extraction. The
	// field selectors are resolved inside each thread; the first selector
	// of each list that matches wins.
	Thread    string
	Username  []string
	Timestamp []string
	Text      []string
}

var registry = map[string]Site{}

func Register(s Site) {
	registry[strings.ToLower(s.Name)] = s
}

func Get(name string) (Site, bool) {
	s, ok := registry[strings.ToLower(name)]
	return s, ok
}

// Names returns the registered site names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
