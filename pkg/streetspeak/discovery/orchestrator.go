// Package discovery drives the two-stage slang discovery run: candidate
// extraction, batched LLM verification, and promotion into the slang store.
package discovery

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/pkg/streetspeak/candidates"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/shorts"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
)

// Defaults for batching and pacing.
const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = 3 * time.Second
)

// Extractor produces ranked candidates from a comment corpus.
type Extractor interface {
	Extract(comments []shorts.Comment, knownTerms []string) []candidates.Candidate
}

// Verifier confirms a batch of candidates via the external LLM.
type Verifier interface {
	Verify(ctx context.Context, batch []candidates.Candidate) ([]slangstore.Term, error)
}

// Orchestrator runs discovery over a comment corpus. The design assumes at
// most one run active at a time; the slang store is the only shared mutable
// state and is mutated here exclusively.
type Orchestrator struct {
	extractor Extractor
	verifier  Verifier
	store     *slangstore.Store
	log       logrus.FieldLogger

	BatchSize  int
	BatchDelay time.Duration

	// sleep is swappable so tests can skip real delays.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates an orchestrator with default batching and pacing.
func New(extractor Extractor, verifier Verifier, store *slangstore.Store, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		extractor:  extractor,
		verifier:   verifier,
		store:      store,
		log:        log,
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		sleep:      sleepCtx,
	}
}

// Run extracts candidates against the current store contents, verifies them
// in sequential batches, and persists every newly confirmed term. The store
// is persisted after each batch so partial progress survives a mid-run
// failure. A failed batch is logged and skipped; subsequent batches still
// execute. Returns the terms confirmed during this run.
func (o *Orchestrator) Run(ctx context.Context, comments []shorts.Comment) ([]slangstore.Term, error) {
	if len(comments) == 0 {
		return nil, nil
	}

	cands := o.extractor.Extract(comments, o.store.AllTerms())
	if len(cands) == 0 {
		o.log.Debug("no discovery candidates above threshold")
		return nil, nil
	}
	o.log.WithField("candidates", len(cands)).Info("running slang discovery")

	batchSize := o.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var confirmed []slangstore.Term
	for start := 0; start < len(cands); start += batchSize {
		if err := ctx.Err(); err != nil {
			return confirmed, err
		}
		if start > 0 && o.BatchDelay > 0 {
			o.sleep(ctx, o.BatchDelay)
		}

		end := start + batchSize
		if end > len(cands) {
			end = len(cands)
		}

		terms, err := o.verifier.Verify(ctx, cands[start:end])
		if err != nil {
			o.log.WithError(err).WithField("batch", start/batchSize).
				Warn("verification batch failed, continuing")
			continue
		}

		added := false
		for _, term := range terms {
			if o.store.Has(term.Term) {
				continue
			}
			if err := o.store.Add(term); err != nil {
				o.log.WithError(err).WithField("term", term.Term).
					Warn("rejected confirmed term")
				continue
			}
			confirmed = append(confirmed, term)
			added = true
		}

		// Persist after every batch, not only at the end.
		if added {
			if err := o.store.Persist(); err != nil {
				o.log.WithError(err).Warn("slang store persist failed, in-memory state kept")
			}
		}
	}

	if len(confirmed) > 0 {
		o.log.WithField("new_terms", len(confirmed)).Info("discovery run complete")
	}
	return confirmed, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
