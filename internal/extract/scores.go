// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

// labelLine matches a SCORE or JUSTIFICATION label at the start of a line.
var labelLine = regexp.MustCompile(`^\s*(SCORE|JUSTIFICATION)\s+([a-z_]+)\s*:\s*(.*)$`)

// Scores parses the labeled evaluation format:
//
//	SCORE <category>: <number>
//	JUSTIFICATION <category>: <text until the next label or end of text>
//
// It never fails; whatever was parseable is returned. A category whose
// score line is missing, non-numeric, or out of [0,10] is left unset
// (nil, distinct from an explicit zero) and noted in the returned
// warnings. Defaulting unset categories is Evaluation.Finalize's job, a
// separate step, so callers can tell "model omitted this" from "model
// scored zero".
func Scores(text string) (types.Evaluation, []string) {
	eval := make(types.Evaluation, len(types.Categories))
	var warnings []string

	known := make(map[string]bool, len(types.Categories))
	for _, cat := range types.Categories {
		known[cat] = true
	}

	// Current justification accumulator: continuation lines attach to
	// the most recent JUSTIFICATION label.
	var justCat string
	var justLines []string

	flush := func() {
		if justCat == "" {
			return
		}
		ce := eval[justCat]
		ce.Justification = strings.TrimSpace(strings.Join(justLines, "\n"))
		eval[justCat] = ce
		justCat = ""
		justLines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		m := labelLine.FindStringSubmatch(line)
		if m == nil {
			if justCat != "" {
				justLines = append(justLines, line)
			}
			continue
		}

		flush()
		label, cat, rest := m[1], m[2], m[3]
		if !known[cat] {
			warnings = append(warnings, fmt.Sprintf("unknown category %q", cat))
			continue
		}

		switch label {
		case "SCORE":
			score, err := parseScore(rest)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", cat, err))
				continue
			}
			ce := eval[cat]
			ce.Score = &score
			eval[cat] = ce
		case "JUSTIFICATION":
			justCat = cat
			if rest != "" {
				justLines = append(justLines, rest)
			}
		}
	}
	flush()

	return eval, warnings
}

// parseScore parses and validates one score value. Out-of-range and
// non-finite values are rejected so they stay unset rather than leak
// into the radar.
func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", strings.TrimSpace(s))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("score %v is not finite", v)
	}
	if v < types.MinScore || v > types.MaxScore {
		return 0, fmt.Errorf("score %v out of range [%v,%v]", v, types.MinScore, types.MaxScore)
	}
	return v, nil
}
