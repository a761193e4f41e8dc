package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ytcomments/internal/scraper"
)

// Input is the run input file. JSON is valid YAML, so an actor-style
// INPUT.json loads as well as a YAML file.
type Input struct {
	VideoURLs   []string `yaml:"videoUrls"`
	MaxComments *int     `yaml:"maxComments"`
	UseProxy    *bool    `yaml:"useProxy"`
}

// LoadInput reads an input file. An empty path yields an empty Input.
func LoadInput(path string) (*Input, error) {
	in := &Input{}
	if path == "" {
		return in, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	if err := yaml.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}
	return in, nil
}

// Request converts the input to a scraper.Request. useProxy defaults to
// true and a maxComments of 0 means no cap.
func (in *Input) Request() (scraper.Request, error) {
	req := scraper.Request{
		VideoURLs: append([]string(nil), in.VideoURLs...),
		UseProxy:  true,
	}
	if in.UseProxy != nil {
		req.UseProxy = *in.UseProxy
	}
	if in.MaxComments != nil {
		n := *in.MaxComments
		if n < 0 {
			return scraper.Request{}, fmt.Errorf("maxComments must be positive, got %d", n)
		}
		if n > 0 {
			req.MaxComments = &n
		}
	}
	return req, nil
}
