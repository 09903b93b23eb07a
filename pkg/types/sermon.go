// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the sermon-engine pipeline.
package types

// Categories is the fixed, ordered set of radar evaluation categories.
// Every evaluation carries exactly these nine keys after finalization.
var Categories = []string{
	"exegetical_fidelity",
	"theological_depth",
	"structural_clarity",
	"rhetorical_energy",
	"imagery_richness",
	"pastoral_sensitivity",
	"liturgical_harmony",
	"contemporary_relevance",
	"gospel_clarity",
}

// NoEvaluation is the sentinel justification recorded for a category the
// model omitted or scored with an unusable value.
const NoEvaluation = "no evaluation provided"

const (
	// MinScore and MaxScore bound a valid radar score.
	MinScore = 0.0
	MaxScore = 10.0
)

// Frontmatter is the structured YAML header of a sermon manuscript.
// Fields the pipeline owns are named; everything a human added by hand
// (speaker, date, series, scripture, ...) is preserved in Extra.
type Frontmatter struct {
	// Title is the sermon title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Bolt is the sermon's single sustained theological claim.
	Bolt string `json:"bolt,omitempty" yaml:"bolt,omitempty"`

	// Themes lists the sermon's major themes.
	Themes []string `json:"themes,omitempty" yaml:"themes,omitempty"`

	// Imagery lists recurring images and metaphors.
	Imagery []string `json:"imagery,omitempty" yaml:"imagery,omitempty"`

	// Radar maps each evaluation category to its score in [0,10].
	Radar map[string]float64 `json:"radar,omitempty" yaml:"radar,omitempty"`

	// Extra holds all remaining header keys verbatim.
	Extra map[string]any `json:"-" yaml:",inline"`
}

// Clone returns a deep copy of the frontmatter.
func (f *Frontmatter) Clone() *Frontmatter {
	c := &Frontmatter{
		Title: f.Title,
		Bolt:  f.Bolt,
	}
	if f.Themes != nil {
		c.Themes = append([]string(nil), f.Themes...)
	}
	if f.Imagery != nil {
		c.Imagery = append([]string(nil), f.Imagery...)
	}
	if f.Radar != nil {
		c.Radar = make(map[string]float64, len(f.Radar))
		for k, v := range f.Radar {
			c.Radar[k] = v
		}
	}
	if f.Extra != nil {
		c.Extra = make(map[string]any, len(f.Extra))
		for k, v := range f.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// CategoryEval is one category's extracted evaluation. A nil Score means
// the model omitted the category or returned an unusable value; that is
// distinct from an explicit zero.
type CategoryEval struct {
	Score         *float64
	Justification string
}

// Evaluation maps category names to their extracted evaluation. Before
// Finalize it may be partial; afterwards it carries all nine categories.
type Evaluation map[string]CategoryEval

// Finalize returns a copy with every category present: missing or unset
// scores become 0 with the NoEvaluation justification, and present scores
// keep their parsed values. The input is not modified.
func (e Evaluation) Finalize() Evaluation {
	out := make(Evaluation, len(Categories))
	for _, cat := range Categories {
		ce := e[cat]
		if ce.Score == nil {
			zero := 0.0
			ce.Score = &zero
			ce.Justification = NoEvaluation
		}
		if ce.Justification == "" {
			ce.Justification = NoEvaluation
		}
		out[cat] = ce
	}
	return out
}

// Radar returns the score map for a finalized evaluation. Categories with
// a nil score are skipped, so call Finalize first for a complete map.
func (e Evaluation) Radar() map[string]float64 {
	radar := make(map[string]float64, len(e))
	for cat, ce := range e {
		if ce.Score != nil {
			radar[cat] = *ce.Score
		}
	}
	return radar
}
