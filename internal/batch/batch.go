// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch sequences per-document work across a corpus. Documents
// run concurrently within fixed-size groups; groups run sequentially
// with a courtesy delay toward provider rate limits. One document's
// failure never aborts the batch.
package batch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options is the concurrency contract for one run.
type Options struct {
	// Concurrency is the group size (default 3).
	Concurrency int

	// InterGroupDelay is the pause between groups (default 2s).
	InterGroupDelay time.Duration
}

// Result is one document's outcome, positionally aligned with the input.
type Result struct {
	ID  string
	Err error
}

// Op is the per-document operation.
type Op func(ctx context.Context, id string) error

// Run executes op over ids in concurrent groups. Each document's error
// is captured in its slot; cancellation is honored between groups, not
// mid-group. The returned slice always has len(ids) entries.
func Run(ctx context.Context, ids []string, op Op, opts Options) []Result {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.InterGroupDelay <= 0 {
		opts.InterGroupDelay = 2 * time.Second
	}

	results := make([]Result, len(ids))
	for i, id := range ids {
		results[i].ID = id
	}

	for start := 0; start < len(ids); start += opts.Concurrency {
		if start > 0 {
			select {
			case <-ctx.Done():
				for i := start; i < len(ids); i++ {
					results[i].Err = ctx.Err()
				}
				return results
			case <-time.After(opts.InterGroupDelay):
			}
		}

		end := min(start+opts.Concurrency, len(ids))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i].Err = op(ctx, ids[i])
				return nil
			})
		}
		// Ops report through their result slot; the group itself never
		// carries an error.
		_ = g.Wait()
	}

	return results
}

// Summary aggregates a run's outcomes.
type Summary struct {
	Succeeded int
	Failed    int
}

// HasFailures reports whether any document failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Summarize counts outcomes and prints the failure list to w.
func Summarize(results []Result, w io.Writer) Summary {
	var s Summary
	var failures []string
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			failures = append(failures, fmt.Sprintf("  %s: %v", r.ID, r.Err))
			continue
		}
		s.Succeeded++
	}

	fmt.Fprintf(w, "%d succeeded, %d failed\n", s.Succeeded, s.Failed)
	if len(failures) > 0 {
		fmt.Fprintln(w, strings.Join(failures, "\n"))
	}
	return s
}
