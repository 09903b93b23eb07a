// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

// metadataPromptTmpl asks the model for the frontmatter fields of the
// generate pass. The reply must be a single fenced JSON object.
var metadataPromptTmpl = template.Must(template.New("metadata").Parse(`You are a homiletics editor preparing a sermon manuscript for archiving. Read the manuscript below and produce its catalog metadata.

Fields:
- title: the sermon title, taken from the manuscript if stated, otherwise a faithful short title
- bolt: the sermon's single sustained theological claim, stated in one sentence
- themes: three to six major themes as short lowercase phrases
- imagery: the recurring images and metaphors, as short lowercase phrases

Respond with exactly one JSON object inside a fenced code block tagged json. Do not add commentary outside the fence.

Example response:
` + "```json" + `
{"title": "The Long Walk Home", "bolt": "Grace meets us while we are still a long way off.", "themes": ["repentance", "grace", "homecoming"], "imagery": ["the far country", "the father's road"]}
` + "```" + `

Manuscript:
{{.Manuscript}}
`))

// radarPromptTmpl asks the model to score the manuscript on the nine
// radar categories in the labeled line format the extractor parses.
var radarPromptTmpl = template.Must(template.New("radar").Parse(`You are an experienced homiletics reviewer. Evaluate the sermon manuscript below on each category, scoring 0 to 10.

Categories:
- exegetical_fidelity: faithfulness to the preached text's meaning in context
- theological_depth: substance and coherence of the doctrinal content
- structural_clarity: discernible movement and arrangement
- rhetorical_energy: command of language, pacing, and emphasis
- imagery_richness: vividness and consistency of images and metaphors
- pastoral_sensitivity: care for the hearers' real situations
- liturgical_harmony: fit with the service's season, readings, and rites
- contemporary_relevance: connection to the hearers' present world
- gospel_clarity: whether the good news is actually announced

For every category output exactly two entries in this format:

SCORE <category>: <number>
JUSTIFICATION <category>: <two or three sentences supporting the score>

Output nothing else.

Manuscript:
{{.Manuscript}}
`))

// renderPrompt executes a prompt template over one manuscript.
func renderPrompt(tmpl *template.Template, manuscript string) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, struct{ Manuscript string }{Manuscript: manuscript})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderRadarSection renders the generated section body: one line per
// category in canonical order. Justification whitespace is collapsed so
// each category stays on a single list line.
func renderRadarSection(eval types.Evaluation) string {
	var b strings.Builder
	for _, cat := range types.Categories {
		ce := eval[cat]
		score := 0.0
		if ce.Score != nil {
			score = *ce.Score
		}
		b.WriteString("- **")
		b.WriteString(cat)
		b.WriteString("**: ")
		b.WriteString(strconv.FormatFloat(score, 'g', -1, 64))
		b.WriteString("/10 - ")
		b.WriteString(strings.Join(strings.Fields(ce.Justification), " "))
		b.WriteString("\n")
	}
	return b.String()
}
