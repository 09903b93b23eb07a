package rewrite

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/sermon-engine/pkg/types"
)

const heading = "## Sermon Radar"

func fm(title string, radar map[string]float64) *types.Frontmatter {
	return &types.Frontmatter{
		Title: title,
		Radar: radar,
		Extra: map[string]any{"speaker": "Rev. Okafor"},
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantBody  string
		wantErr   bool
	}{
		{
			name:      "frontmatter and body",
			raw:       "---\ntitle: Jubilee\n---\n\n## Opening\ntext\n",
			wantTitle: "Jubilee",
			wantBody:  "\n## Opening\ntext\n",
		},
		{
			name:     "no frontmatter",
			raw:      "## Opening\ntext\n",
			wantBody: "## Opening\ntext\n",
		},
		{
			name:     "empty header block",
			raw:      "---\n---\nbody\n",
			wantBody: "body\n",
		},
		{
			name:    "unterminated fence",
			raw:     "---\ntitle: Jubilee\n",
			wantErr: true,
		},
		{
			name:    "header is not a mapping",
			raw:     "---\n- just\n- a list\n---\nbody\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, body, err := Split(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedDocument) {
					t.Fatalf("Split() error = %v, want ErrMalformedDocument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestSplitMissingKeysAreFine(t *testing.T) {
	got, _, err := Split("---\nspeaker: Rev. Okafor\n---\nbody\n")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if got.Title != "" || got.Extra["speaker"] != "Rev. Okafor" {
		t.Errorf("frontmatter = %+v", got)
	}
}

func TestRewriteIdempotent(t *testing.T) {
	raw := "---\ntitle: Jubilee\nspeaker: Rev. Okafor\n---\n\n## Opening\n\nThe year of release.\n\n## Closing\n\nGo in peace.\n"
	header := fm("Jubilee", map[string]float64{"gospel_clarity": 8})
	section := "- **gospel_clarity**: 8/10 - Clearly announced.\n"

	once, err := Rewrite(raw, header, heading, section)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	twice, err := Rewrite(once, header, heading, section)
	if err != nil {
		t.Fatalf("second Rewrite() error = %v", err)
	}

	if once != twice {
		t.Fatalf("rewrite is not a fixed point:\nfirst:\n%q\nsecond:\n%q", once, twice)
	}
}

func TestRewriteSectionUnique(t *testing.T) {
	// Document already carrying a stale generated section mid-body.
	stale := "- **gospel_clarity**: 3/10 - Stale verdict.\n"
	fresh := "- **gospel_clarity**: 8/10 - Fresh verdict.\n"
	raw := "---\ntitle: Jubilee\n---\n\n## Opening\n\ntext\n\n" + heading + "\n\n" + stale + "\n## Closing\n\nmore\n"

	out, err := Rewrite(raw, fm("Jubilee", nil), heading, fresh)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	if got := strings.Count(out, heading); got != 1 {
		t.Errorf("section appears %d times, want 1:\n%s", got, out)
	}
	if strings.Contains(out, "Stale verdict.") {
		t.Error("stale section content survived the rewrite")
	}
	if !strings.Contains(out, "Fresh verdict.") {
		t.Error("fresh section content missing")
	}
	for _, keep := range []string{"## Opening", "## Closing", "text", "more"} {
		if !strings.Contains(out, keep) {
			t.Errorf("human content %q lost", keep)
		}
	}
}

func TestRewriteKeepsLeadingProse(t *testing.T) {
	// Human text that starts with prose rather than a heading sits right
	// after the generated section; the second rewrite must not swallow it.
	prose := "A word before we begin: hold your questions."
	raw := "---\ntitle: Jubilee\n---\n\n" + prose + "\n\n## Opening\n\nThe year of release.\n"
	header := fm("Jubilee", map[string]float64{"gospel_clarity": 8})
	section := "- **gospel_clarity**: 8/10 - Clearly announced.\n"

	once, err := Rewrite(raw, header, heading, section)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	twice, err := Rewrite(once, header, heading, section)
	if err != nil {
		t.Fatalf("second Rewrite() error = %v", err)
	}

	if !strings.Contains(once, prose) {
		t.Fatalf("leading prose lost on first rewrite:\n%s", once)
	}
	if !strings.Contains(twice, prose) {
		t.Fatalf("leading prose lost on second rewrite:\n%s", twice)
	}
	if once != twice {
		t.Fatalf("rewrite is not a fixed point:\nfirst:\n%q\nsecond:\n%q", once, twice)
	}
}

func TestRewriteKeepsHumanListAfterSection(t *testing.T) {
	// A human bullet list directly below the generated section must not
	// be mistaken for score lines.
	raw := "---\ntitle: Jubilee\n---\n\n" + heading + "\n\n- **gospel_clarity**: 8/10 - Old.\n\n- remember the offering\n- thank the choir\n"

	out, err := Rewrite(raw, fm("Jubilee", nil), heading, "- **gospel_clarity**: 9/10 - New.\n")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	if strings.Contains(out, "Old.") {
		t.Error("stale score line survived")
	}
	for _, keep := range []string{"- remember the offering", "- thank the choir"} {
		if !strings.Contains(out, keep) {
			t.Errorf("human list item %q lost", keep)
		}
	}
}

func TestRewriteHeaderOnly(t *testing.T) {
	raw := "---\ntitle: Old\n---\n\n" + heading + "\n\n- kept radar\n\n## Body\n\ntext\n"

	out, err := Rewrite(raw, fm("New", nil), heading, "")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if !strings.Contains(out, "title: New") {
		t.Error("header not replaced")
	}
	if !strings.Contains(out, "- kept radar") {
		t.Error("header-only rewrite must not disturb the existing section")
	}
}

func TestRewriteStableKeyOrder(t *testing.T) {
	header := &types.Frontmatter{
		Title: "Jubilee",
		Bolt:  "Release is proclaimed.",
		Extra: map[string]any{"zeta": 1, "alpha": 2},
	}

	out, err := Rewrite("body with no frontmatter\n", header, heading, "")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	title := strings.Index(out, "title:")
	bolt := strings.Index(out, "bolt:")
	alpha := strings.Index(out, "alpha:")
	zeta := strings.Index(out, "zeta:")
	if !(title < bolt && bolt < alpha && alpha < zeta) {
		t.Errorf("key order unstable:\n%s", out)
	}
	if !strings.Contains(out, "body with no frontmatter") {
		t.Error("body lost when frontmatter was added")
	}
}

func TestRewriteMalformedDocument(t *testing.T) {
	_, err := Rewrite("---\n{{nope\n---\nbody\n", fm("T", nil), heading, "x")
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("error = %v, want ErrMalformedDocument", err)
	}
}
