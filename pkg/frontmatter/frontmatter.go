// Package frontmatter reads and writes the YAML header on exported markdown
// documents.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?(.*)`)

// Frontmatter is the metadata written above an exported document.
type Frontmatter struct {
	ID       string `yaml:"id,omitempty"`
	Title    string `yaml:"title"`
	Path     string `yaml:"path,omitempty"`
	Created  string `yaml:"created,omitempty"`
	Modified string `yaml:"modified,omitempty"`
}

// Parse extracts frontmatter from content and returns the parsed data and body
func Parse(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		// No frontmatter found
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return &fm, strings.TrimPrefix(matches[2], "\n"), nil
}

// Build renders fm as a YAML block between --- fences.
func Build(fm *Frontmatter) (string, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(data) + "---", nil
}

// BuildContent combines frontmatter and body content into a complete document
func BuildContent(fm *Frontmatter, bodyContent string) (string, error) {
	header, err := Build(fm)
	if err != nil {
		return "", err
	}

	// Ensure proper spacing between frontmatter and body
	if !strings.HasPrefix(bodyContent, "\n") {
		return header + "\n\n" + bodyContent, nil
	}
	return header + "\n" + bodyContent, nil
}

// FormatTimestamp formats a time.Time into the standard frontmatter timestamp format
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatMillis formats milliseconds since the epoch as a frontmatter timestamp.
func FormatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return FormatTimestamp(time.UnixMilli(ms))
}

// ParseTimestamp parses a frontmatter timestamp string into time.Time
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}
