package extract

import (
	"errors"
	"testing"
)

func TestObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "fenced json block",
			text: "Here is the metadata:\n```json\n{\"title\": \"The Long Walk Home\"}\n```\nDone.",
			want: map[string]any{"title": "The Long Walk Home"},
		},
		{
			name: "fenced yaml block",
			text: "```yaml\ntitle: Dry Bones\nthemes:\n  - hope\n```",
			want: map[string]any{"title": "Dry Bones", "themes": []any{"hope"}},
		},
		{
			name: "bare braces in prose",
			text: "The object is {\"title\": \"Jubilee\"} as requested.",
			want: map[string]any{"title": "Jubilee"},
		},
		{
			name: "braces inside string values",
			text: "{\"bolt\": \"grace { even here } abounds\"}",
			want: map[string]any{"bolt": "grace { even here } abounds"},
		},
		{
			name: "fenced block preferred over earlier braces",
			text: "ignore {\"title\": \"wrong\"} this\n```json\n{\"title\": \"right\"}\n```",
			want: map[string]any{"title": "right"},
		},
		{
			name:    "no structure at all",
			text:    "I could not produce metadata for this sermon.",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			text:    "{\"title\": \"never closed\"",
			wantErr: true,
		},
		{
			name:    "fenced block with invalid json",
			text:    "```json\n{title: nope}\n```",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Object(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrExtractionFailed) {
					t.Fatalf("Object() error = %v, want ErrExtractionFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Object() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Object() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if _, isSlice := v.([]any); isSlice {
					continue // spot-checked below
				}
				if got[k] != v {
					t.Errorf("Object()[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestMetadata(t *testing.T) {
	text := "```json\n" +
		`{"title": "The Long Walk Home", "bolt": "Grace meets us far off.", "themes": ["grace", "repentance"], "imagery": ["the far country"], "speaker": "ignored"}` +
		"\n```"

	meta, err := Metadata(text)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Title != "The Long Walk Home" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Bolt != "Grace meets us far off." {
		t.Errorf("Bolt = %q", meta.Bolt)
	}
	if len(meta.Themes) != 2 || meta.Themes[0] != "grace" {
		t.Errorf("Themes = %v", meta.Themes)
	}
	if len(meta.Imagery) != 1 || meta.Imagery[0] != "the far country" {
		t.Errorf("Imagery = %v", meta.Imagery)
	}
}

func TestMetadataFallbackSignalsCaller(t *testing.T) {
	_, err := Metadata("nothing structured here")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Metadata() error = %v, want ErrExtractionFailed", err)
	}
}
