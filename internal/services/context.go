// Package services – context aggregation.
//
// After the user's message is recorded, the pipeline gathers everything
// the synthesizer can draw on: ranked retrieval results, a heuristic
// profile extraction, and the conversation history. The three fetches
// run concurrently; each is bounded by its own timeout and degrades to
// empty on failure, so a slow or broken capability costs the turn some
// richness but never the turn itself.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/search"
)

// turnContext is the aggregated raw material for one synthesis pass.
type turnContext struct {
	Extracted domain.ExtractedProfile
	Delta     map[string]any
	Results   []search.Result
	History   []domain.Message
}

// aggregateContext fans out retrieval, extraction, and history loading.
// It never returns an error: every leg that fails or times out simply
// contributes nothing.
func (s *TurnService) aggregateContext(ctx context.Context, user *domain.User, conversationID, message string) turnContext {
	var (
		out turnContext
		g   errgroup.Group
	)

	g.Go(func() error {
		rctx, cancel := context.WithTimeout(ctx, s.capabilityTimeout())
		defer cancel()
		results, err := s.Retrieval.Search(rctx, message, s.topK())
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("retrieval degraded")
			return nil
		}
		out.Results = normalizeResults(results)
		return nil
	})

	g.Go(func() error {
		ectx, cancel := context.WithTimeout(ctx, s.capabilityTimeout())
		defer cancel()
		profile, err := s.Extractor.Extract(ectx, message)
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("extraction degraded")
			return nil
		}
		out.Extracted = profile
		return nil
	})

	g.Go(func() error {
		history, err := s.Store.ListMessages(ctx, conversationID, s.historyLimit())
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("history load degraded")
			return nil
		}
		out.History = history
		return nil
	})

	_ = g.Wait()

	out.Delta = out.Extracted.DeltaAgainst(user)
	return out
}

// mergeProfile persists the staged delta onto the user row. The delta
// holds fields whose extracted value is non-empty and differs from the
// stored one, so empty extractions never clear a field while fresher
// values overwrite. A failed write keeps the old profile and the turn
// continues.
func (s *TurnService) mergeProfile(ctx context.Context, user *domain.User, delta map[string]any) (*domain.User, bool) {
	if len(delta) == 0 {
		return user, false
	}
	updated, err := s.Store.UpdateUser(ctx, user.ID, delta)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("profile merge degraded")
		return user, false
	}
	return updated, true
}

func (s *TurnService) capabilityTimeout() time.Duration {
	if s.CapabilityTimeout > 0 {
		return s.CapabilityTimeout
	}
	return 3 * time.Second
}

func (s *TurnService) topK() int {
	if s.TopK > 0 {
		return s.TopK
	}
	return 5
}

func (s *TurnService) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return 20
}

// normalizeResults coerces metadata values into JSON-friendly shapes;
// raw byte slices from upstream loaders become plain strings.
func normalizeResults(results []search.Result) []search.Result {
	for i := range results {
		if results[i].Metadata == nil {
			continue
		}
		for k, v := range results[i].Metadata {
			if b, ok := v.([]byte); ok {
				results[i].Metadata[k] = string(b)
			}
		}
	}
	return results
}
