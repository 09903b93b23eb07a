// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rewrite reassembles an annotated sermon document: merged
// frontmatter, the regenerated section, then everything the human wrote,
// byte-for-byte. Rewriting is idempotent: applying the same inputs a
// second time yields byte-identical output.
package rewrite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

// ErrMalformedDocument marks a frontmatter block that cannot be parsed
// as a key-value structure at all. Missing individual keys are fine;
// only total structural failure is fatal, and only for that document.
var ErrMalformedDocument = errors.New("malformed frontmatter block")

const fence = "---\n"

// Split separates a document into frontmatter and body. A document
// without a leading fence has an empty frontmatter and is all body.
func Split(raw string) (*types.Frontmatter, string, error) {
	if !strings.HasPrefix(raw, fence) {
		return &types.Frontmatter{}, raw, nil
	}

	rest := raw[len(fence):]
	if strings.HasPrefix(rest, fence) {
		// Empty header block.
		return &types.Frontmatter{}, rest[len(fence):], nil
	}

	idx := strings.Index(rest, "\n"+fence)
	if idx < 0 {
		return nil, "", fmt.Errorf("%w: unterminated fence", ErrMalformedDocument)
	}
	header := rest[:idx+1]
	body := rest[idx+1+len(fence):]

	// Structural check first: the header must at least be a mapping.
	var asMap map[string]any
	if err := yaml.Unmarshal([]byte(header), &asMap); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var fm types.Frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &fm, body, nil
}

// Rewrite rebuilds the document as header + regenerated section +
// remaining body. Any existing copy of the section is removed in its
// entirety, so at most one instance survives. An empty sectionBody
// leaves the body untouched (header-only rewrite).
func Rewrite(raw string, fm *types.Frontmatter, sectionHeading, sectionBody string) (string, error) {
	_, body, err := Split(raw)
	if err != nil {
		return "", err
	}

	header, err := renderFrontmatter(fm)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if header != "" {
		b.WriteString(fence)
		b.WriteString(header)
		b.WriteString(fence)
	}

	if sectionBody != "" {
		body = removeSection(body, sectionHeading)
		b.WriteString("\n")
		b.WriteString(sectionHeading)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(sectionBody))
		b.WriteString("\n")
	}

	// Seam normalization: collapse leading blank lines so repeated
	// rewrites converge to a fixed point.
	body = strings.TrimLeft(body, "\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// sectionLine matches one rendered score line. Everything the rewriter
// ever emits under the marker heading has this shape, so the removal
// span below can be bounded by it exactly.
var sectionLine = regexp.MustCompile(`^- \*\*[a-z_]+\*\*: `)

// removeSection deletes the marker heading line together with the
// rendered score list beneath it. The span ends where the rendered list
// ends, never at the next heading, so human text that starts with prose
// rather than a heading survives repeated rewrites untouched.
func removeSection(body, sectionHeading string) string {
	lines := strings.Split(body, "\n")
	var kept []string

	for i := 0; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") != sectionHeading {
			kept = append(kept, lines[i])
			continue
		}
		// Consume the score lines and the blank lines between them.
		// A blank line is part of the span only when more score lines
		// follow it; the blank separating the section from human text
		// is kept.
		for i+1 < len(lines) {
			next := lines[i+1]
			if sectionLine.MatchString(next) {
				i++
				continue
			}
			if strings.TrimSpace(next) == "" && scoreLineFollows(lines, i+2) {
				i++
				continue
			}
			break
		}
	}

	return strings.Join(kept, "\n")
}

// scoreLineFollows reports whether the next non-blank line at or after
// index i is a rendered score line.
func scoreLineFollows(lines []string, i int) bool {
	for ; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return sectionLine.MatchString(lines[i])
		}
	}
	return false
}

// renderFrontmatter serializes the header with a stable key order:
// named fields in declaration order, then human-authored extras in
// yaml's sorted-map order.
func renderFrontmatter(fm *types.Frontmatter) (string, error) {
	if fm == nil {
		return "", nil
	}
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	out := string(data)
	if out == "{}\n" {
		return "", nil
	}
	return out, nil
}
