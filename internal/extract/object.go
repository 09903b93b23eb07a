// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract parses loosely structured model replies into typed
// values. Models fence their output, wrap it in prose, or drop fields;
// extraction is best-effort with explicit partial-success semantics
// rather than an all-or-nothing decode.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

// ErrExtractionFailed marks a reply from which no structured object
// could be recovered. Callers fall back to the document's existing
// metadata rather than abort the batch.
var ErrExtractionFailed = errors.New("no structured object in reply")

// fencedBlock matches a code fence tagged as a data-interchange format.
var fencedBlock = regexp.MustCompile("(?s)```(json|yaml|yml)[ \t]*\n(.*?)\n[ \t]*```")

// Object recovers a structured object from a model reply. It prefers a
// fenced code block tagged json or yaml; failing that, the first
// balanced brace-delimited substring is parsed as JSON.
func Object(text string) (map[string]any, error) {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		obj, err := parseBlock(m[1], m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: fenced %s block: %v", ErrExtractionFailed, m[1], err)
		}
		return obj, nil
	}

	if raw, ok := balancedBraces(text); ok {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("%w: brace-delimited candidate: %v", ErrExtractionFailed, err)
		}
		return obj, nil
	}

	return nil, ErrExtractionFailed
}

// parseBlock decodes a fenced block by its tag.
func parseBlock(tag, body string) (map[string]any, error) {
	obj := map[string]any{}
	if tag == "json" {
		if err := json.Unmarshal([]byte(body), &obj); err != nil {
			return nil, err
		}
		return obj, nil
	}
	if err := yaml.Unmarshal([]byte(body), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// balancedBraces returns the first balanced {...} substring, tracking
// JSON string and escape state so braces inside values do not miscount.
func balancedBraces(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = inString
		case '"':
			if start >= 0 {
				inString = !inString
			}
		case '{':
			if inString {
				continue
			}
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if inString || start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Metadata decodes an extracted object into the frontmatter fields the
// generate pass produces. Unknown keys are ignored; the merge layer
// decides what survives.
func Metadata(text string) (*types.Frontmatter, error) {
	obj, err := Object(text)
	if err != nil {
		return nil, err
	}
	return &types.Frontmatter{
		Title:   asString(obj["title"]),
		Bolt:    asString(obj["bolt"]),
		Themes:  asStringSlice(obj["themes"]),
		Imagery: asStringSlice(obj["imagery"]),
	}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
