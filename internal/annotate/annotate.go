// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate drives the per-document annotation pipeline: read a
// manuscript, invoke a model, extract the reply, merge the result into
// the frontmatter, and rewrite the document in place. Each document is
// a pure pipeline over its own data; no state crosses documents.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/pdiddy/sermon-engine/internal/batch"
	"github.com/pdiddy/sermon-engine/internal/docstore"
	"github.com/pdiddy/sermon-engine/internal/extract"
	"github.com/pdiddy/sermon-engine/internal/invoke"
	"github.com/pdiddy/sermon-engine/internal/merge"
	"github.com/pdiddy/sermon-engine/internal/provider"
	"github.com/pdiddy/sermon-engine/internal/rewrite"
	"github.com/pdiddy/sermon-engine/pkg/types"
)

const (
	defaultSectionHeading = "## Sermon Radar"
	defaultMaxTokens      = 4096
)

// Pipeline composes the annotation stages over one document store and
// one provider registry. Construct it once at startup and pass it by
// reference; it holds no per-document state.
type Pipeline struct {
	store    *docstore.Store
	registry *provider.Registry
	cfg      types.AnnotateConfig
	logger   *slog.Logger
}

// New builds a pipeline, filling unset config fields with defaults.
func New(store *docstore.Store, registry *provider.Registry, cfg types.AnnotateConfig, logger *slog.Logger) *Pipeline {
	if cfg.SectionHeading == "" {
		cfg.SectionHeading = defaultSectionHeading
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, registry: registry, cfg: cfg, logger: logger}
}

// invoker resolves the configured provider behind a retrying invoker.
func (p *Pipeline) invoker() (*invoke.Invoker, error) {
	client, err := p.registry.Get(p.cfg.Provider)
	if err != nil {
		return nil, err
	}
	return invoke.New(client, p.cfg.Retry, p.logger), nil
}

// ask sends one manuscript prompt and returns the reply text.
func (p *Pipeline) ask(ctx context.Context, model, prompt string) (string, error) {
	inv, err := p.invoker()
	if err != nil {
		return "", err
	}
	reply, err := inv.Invoke(ctx, provider.Request{
		Provider:    p.cfg.Provider,
		Model:       model,
		Messages:    []provider.Message{{Role: "user", Content: prompt}},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// withFallback runs op with the primary model, then once more with the
// fallback model if one is configured. Single-level escalation only;
// the retry ladder lives inside the invoker.
func (p *Pipeline) withFallback(id string, op func(model string) error) error {
	err := op(p.cfg.Model)
	if err == nil || p.cfg.FallbackModel == "" {
		return err
	}
	p.logger.Warn("falling back to secondary model",
		"document", id, "model", p.cfg.FallbackModel, "cause", err.Error())
	if fbErr := op(p.cfg.FallbackModel); fbErr != nil {
		return fmt.Errorf("primary: %w; fallback %s: %v", err, p.cfg.FallbackModel, fbErr)
	}
	return nil
}

// GenerateMetadata annotates one document's frontmatter with generated
// title, bolt, themes, and imagery. Hand-edited fields win on merge.
func (p *Pipeline) GenerateMetadata(ctx context.Context, id string) error {
	return p.withFallback(id, func(model string) error {
		return p.generate(ctx, id, model)
	})
}

func (p *Pipeline) generate(ctx context.Context, id, model string) error {
	raw, err := p.store.Read(id)
	if err != nil {
		return err
	}
	existing, body, err := rewrite.Split(raw)
	if err != nil {
		return err
	}

	prompt, err := renderPrompt(metadataPromptTmpl, body)
	if err != nil {
		return fmt.Errorf("rendering prompt: %w", err)
	}
	text, err := p.ask(ctx, model, prompt)
	if err != nil {
		return err
	}

	meta, err := extract.Metadata(text)
	if err != nil {
		if !errors.Is(err, extract.ErrExtractionFailed) {
			return err
		}
		// Keep the document's pre-existing metadata rather than fail
		// the batch over an unparseable reply.
		p.logger.Warn("metadata extraction failed, keeping existing frontmatter",
			"document", id, "cause", err.Error())
		meta = &types.Frontmatter{}
	}

	merged := merge.Merge(existing, meta)
	out, err := rewrite.Rewrite(raw, merged, p.cfg.SectionHeading, "")
	if err != nil {
		return err
	}
	return p.store.Write(id, out)
}

// Analyze scores one document on the nine radar categories, writing the
// scores into the frontmatter and the justifications into the generated
// radar section. Re-running replaces the previous radar wholesale.
func (p *Pipeline) Analyze(ctx context.Context, id string) error {
	return p.withFallback(id, func(model string) error {
		return p.analyze(ctx, id, model)
	})
}

func (p *Pipeline) analyze(ctx context.Context, id, model string) error {
	raw, err := p.store.Read(id)
	if err != nil {
		return err
	}
	existing, body, err := rewrite.Split(raw)
	if err != nil {
		return err
	}

	eval, err := p.evaluate(ctx, id, model, body)
	if err != nil {
		return err
	}

	merged := merge.Merge(existing, &types.Frontmatter{Radar: eval.Radar()})
	out, err := rewrite.Rewrite(raw, merged, p.cfg.SectionHeading, renderRadarSection(eval))
	if err != nil {
		return err
	}
	return p.store.Write(id, out)
}

// evaluate runs the radar prompt and returns a finalized evaluation:
// all nine categories present, omissions defaulted to zero with the
// sentinel justification.
func (p *Pipeline) evaluate(ctx context.Context, id, model, body string) (types.Evaluation, error) {
	prompt, err := renderPrompt(radarPromptTmpl, body)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	text, err := p.ask(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	eval, warnings := extract.Scores(text)
	for _, w := range warnings {
		p.logger.Warn("score extraction", "document", id, "model", model, "detail", w)
	}
	return eval.Finalize(), nil
}

// Compare evaluates one document with each model and prints the scores
// side by side. Nothing is written back.
func (p *Pipeline) Compare(ctx context.Context, id string, models []string, w io.Writer) error {
	raw, err := p.store.Read(id)
	if err != nil {
		return err
	}
	_, body, err := rewrite.Split(raw)
	if err != nil {
		return err
	}

	evals := make([]types.Evaluation, len(models))
	for i, model := range models {
		eval, err := p.evaluate(ctx, id, model, body)
		if err != nil {
			return fmt.Errorf("evaluating with %s: %w", model, err)
		}
		evals[i] = eval
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprint(tw, "category")
	for _, model := range models {
		fmt.Fprintf(tw, "\t%s", model)
	}
	fmt.Fprintln(tw)
	for _, cat := range types.Categories {
		fmt.Fprint(tw, cat)
		for _, eval := range evals {
			fmt.Fprintf(tw, "\t%.1f", *eval[cat].Score)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// GenerateAll runs metadata generation over every listed document.
func (p *Pipeline) GenerateAll(ctx context.Context, ids []string, w io.Writer) batch.Summary {
	return p.runAll(ctx, ids, w, "generating", p.GenerateMetadata)
}

// AnalyzeAll runs radar analysis over every listed document.
func (p *Pipeline) AnalyzeAll(ctx context.Context, ids []string, w io.Writer) batch.Summary {
	return p.runAll(ctx, ids, w, "analyzing", p.Analyze)
}

func (p *Pipeline) runAll(ctx context.Context, ids []string, w io.Writer, verb string, op func(context.Context, string) error) batch.Summary {
	results := batch.Run(ctx, ids, func(ctx context.Context, id string) error {
		fmt.Fprintf(w, "%s %s\n", verb, id)
		if err := op(ctx, id); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			return err
		}
		return nil
	}, batch.Options{
		Concurrency:     p.cfg.Batch.Concurrency,
		InterGroupDelay: p.cfg.Batch.InterGroupDelay,
	})
	return batch.Summarize(results, w)
}
