// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines freshly extracted metadata with a document's
// existing frontmatter. A human who hand-edited a title or theme list
// must not have that edit clobbered by a regenerate pass, but
// re-scoring is authoritative each run.
package merge

import "github.com/pdiddy/sermon-engine/pkg/types"

// Merge is a pure function over its inputs: scalar narrative fields
// (title, bolt) keep the existing value when non-empty and are filled
// from extracted otherwise; list fields (themes, imagery) keep the
// existing list whole when non-empty with no element-wise union; the radar
// is shallow-merged with extracted winning per category; human-authored
// extra keys always survive untouched. Justifications are not part of
// the frontmatter and never pass through here.
func Merge(existing, extracted *types.Frontmatter) *types.Frontmatter {
	if existing == nil {
		existing = &types.Frontmatter{}
	}
	if extracted == nil {
		extracted = &types.Frontmatter{}
	}

	out := existing.Clone()

	if out.Title == "" {
		out.Title = extracted.Title
	}
	if out.Bolt == "" {
		out.Bolt = extracted.Bolt
	}
	if len(out.Themes) == 0 {
		out.Themes = append([]string(nil), extracted.Themes...)
	}
	if len(out.Imagery) == 0 {
		out.Imagery = append([]string(nil), extracted.Imagery...)
	}

	if len(extracted.Radar) > 0 {
		if out.Radar == nil {
			out.Radar = make(map[string]float64, len(extracted.Radar))
		}
		for cat, score := range extracted.Radar {
			out.Radar[cat] = score
		}
	}

	return out
}
