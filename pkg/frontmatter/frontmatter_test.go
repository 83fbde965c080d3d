package frontmatter

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   *Frontmatter
		wantBody string
		wantErr  bool
	}{
		{
			name: "valid frontmatter",
			content: `---
id: 3f1c
title: Test Note
path: Docs/Test Note.md
created: 2023-01-01 10:00:00
modified: 2023-01-02 11:00:00
---

# Test Content

This is the body.`,
			wantFM: &Frontmatter{
				ID:       "3f1c",
				Title:    "Test Note",
				Path:     "Docs/Test Note.md",
				Created:  "2023-01-01 10:00:00",
				Modified: "2023-01-02 11:00:00",
			},
			wantBody: "# Test Content\n\nThis is the body.",
		},
		{
			name:     "no frontmatter",
			content:  "# Just a title\n\nSome content.",
			wantFM:   nil,
			wantBody: "# Just a title\n\nSome content.",
		},
		{
			name: "invalid yaml",
			content: `---
title: [invalid
---

Body`,
			wantFM: nil,
			wantBody: `---
title: [invalid
---

Body`,
			wantErr: true,
		},
		{
			name:     "title only",
			content:  "---\ntitle: Minimal\n---\nBody",
			wantFM:   &Frontmatter{Title: "Minimal"},
			wantBody: "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := Parse(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(fm, tt.wantFM) {
				t.Errorf("Parse() fm = %+v, want %+v", fm, tt.wantFM)
			}
			if body != tt.wantBody {
				t.Errorf("Parse() body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestBuildContentRoundTrip(t *testing.T) {
	fm := &Frontmatter{
		ID:       "abc",
		Title:    "Notes: draft #1",
		Created:  "2024-03-01 09:00:00",
		Modified: "2024-03-02 10:30:00",
	}

	content, err := BuildContent(fm, "# Heading\n\nBody\n")
	if err != nil {
		t.Fatalf("BuildContent() error = %v", err)
	}
	if !strings.HasPrefix(content, "---\n") {
		t.Errorf("content should start with a fence, got %q", content)
	}

	parsed, body, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(parsed, fm) {
		t.Errorf("round trip fm = %+v, want %+v", parsed, fm)
	}
	if body != "# Heading\n\nBody\n" {
		t.Errorf("round trip body = %q", body)
	}
}

func TestBuildOmitsEmptyFields(t *testing.T) {
	header, err := Build(&Frontmatter{Title: "Only"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if header != "---\ntitle: Only\n---" {
		t.Errorf("Build() = %q", header)
	}
}

func TestTimestamps(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
	formatted := FormatTimestamp(ts)
	if formatted != "2024-05-06 07:08:09" {
		t.Errorf("FormatTimestamp() = %s", formatted)
	}

	parsed, err := ParseTimestamp(formatted)
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if parsed.Format("2006-01-02 15:04:05") != formatted {
		t.Errorf("ParseTimestamp() = %v", parsed)
	}

	if FormatMillis(0) != "" {
		t.Error("FormatMillis(0) should be empty")
	}
	if FormatMillis(ts.UnixMilli()) != formatted {
		t.Errorf("FormatMillis() = %s", FormatMillis(ts.UnixMilli()))
	}
}
