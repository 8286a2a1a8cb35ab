// Package services – response synthesis.
//
// Synthesis is tiered and deterministic: earlier tiers handle narrow,
// recognizable inputs (greetings, fragments) so that retrieval and the
// generative fallback only see substantive questions. Each tier either
// claims the turn and produces the reply, or declines and the next tier
// runs. The final tier always produces something, so synthesis as a
// whole cannot come back empty.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/search"
)

const (
	clarifyReply = "Could you tell me a bit more about what you're looking for? " +
		"For example a neighborhood, a budget, or the kind of space you need."

	noCapabilityReply = "I can help you find apartments and offices, explain lease terms, " +
		"and arrange viewings. What are you looking for?"

	maxSnippetRunes = 240

	// maxListedResults caps how many results a summary reply spells out;
	// the full ranked set still travels in the outcome payload.
	maxListedResults = 3
)

var greetingSet = map[string]struct{}{
	"hello": {}, "hi": {}, "hey": {}, "hiya": {}, "howdy": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
	"hi there": {}, "hello there": {}, "greetings": {},
}

// synthesize picks the reply for one turn and reports which tier claimed
// it. The tiers run in order: greeting, clarification for fragments,
// profile acknowledgment, retrieval summary, generative fallback.
func (s *TurnService) synthesize(ctx context.Context, user *domain.User, message string, tc turnContext) (reply, branch string) {
	if reply := greetingReply(user, message); reply != "" {
		return reply, BranchGreeting
	}

	if utf8.RuneCountInString(strings.TrimSpace(message)) < s.minSubstantiveRunes() {
		return clarifyReply, BranchClarify
	}

	if reply := profileSignalReply(user, tc.Extracted); reply != "" {
		return reply, BranchProfileSignal
	}

	if reply := retrievalReply(tc.Results); reply != "" {
		return reply, BranchRetrieval
	}

	if reply := s.generativeReply(ctx, message, tc.History); reply != "" {
		return reply, BranchGenerative
	}

	return noCapabilityReply, BranchFallback
}

func (s *TurnService) minSubstantiveRunes() int {
	if s.MinSubstantiveRunes > 0 {
		return s.MinSubstantiveRunes
	}
	return 5
}

// greetingReply claims pure salutations. Trailing punctuation is ignored
// so "hello!" and "hey." greet back like their bare forms.
func greetingReply(user *domain.User, message string) string {
	m := strings.ToLower(strings.TrimSpace(message))
	m = strings.TrimRight(m, "!.?, ")
	if _, ok := greetingSet[m]; !ok {
		return ""
	}
	if name := displayName(user); name != "" {
		return fmt.Sprintf("Hello %s! How can I help you with your property search today?", name)
	}
	return "Hello! How can I help you with your property search today?"
}

// profileSignalReply claims turns whose message carried concrete
// requirements (budget, space, lease terms) or a collaboration signal.
// It acknowledges what was captured so the user can correct it.
func profileSignalReply(user *domain.User, p domain.ExtractedProfile) string {
	noted := make([]string, 0, 4)
	if p.Budget != "" {
		noted = append(noted, "a budget of "+p.Budget)
	}
	if p.PropertyType != "" {
		noted = append(noted, "a "+p.PropertyType)
	}
	if p.LocationPreference != "" {
		noted = append(noted, "the "+p.LocationPreference+" area")
	}
	if len(p.LeaseTerms) > 0 {
		noted = append(noted, strings.Join(p.LeaseTerms, ", "))
	}

	hasCollab := len(p.CollaborationStatus) > 0
	if len(noted) == 0 && !hasCollab {
		return ""
	}

	var b strings.Builder
	if name := firstName(p.Name, user); name != "" {
		fmt.Fprintf(&b, "Thanks, %s! ", name)
	} else {
		b.WriteString("Thanks! ")
	}

	if len(noted) > 0 {
		b.WriteString("I've noted " + joinNatural(noted) + ". ")
	}

	switch {
	case containsString(p.CollaborationStatus, "viewing_requested"):
		b.WriteString("I'll line up some viewings that fit. ")
	case containsString(p.CollaborationStatus, "application_ready"):
		b.WriteString("I'll get the application paperwork ready. ")
	case containsString(p.CollaborationStatus, "contact_requested"):
		b.WriteString("One of our agents will reach out shortly. ")
	case containsString(p.CollaborationStatus, "negotiation_ready"):
		b.WriteString("I'll flag this for our leasing team to discuss terms. ")
	}

	b.WriteString("I'll use this to match you with suitable listings.")
	return b.String()
}

// retrievalReply summarizes ranked results, listings before documents.
// At most maxListedResults items are spelled out per reply.
func retrievalReply(results []search.Result) string {
	if len(results) == 0 {
		return ""
	}

	properties := make([]search.Result, 0, len(results))
	documents := make([]search.Result, 0, len(results))
	for _, r := range results {
		if r.IsProperty() {
			properties = append(properties, r)
		} else {
			documents = append(documents, r)
		}
	}

	var b strings.Builder
	if len(properties) > 0 {
		if len(properties) == 1 {
			b.WriteString("I found a listing that could fit:\n")
		} else {
			fmt.Fprintf(&b, "I found %d listings that could fit:\n", len(properties))
		}
		for _, r := range capResults(properties) {
			b.WriteString("- " + clipRunes(r.Snippet, maxSnippetRunes) + "\n")
		}
		b.WriteString("Would you like to arrange a viewing for any of these?")
		return b.String()
	}

	b.WriteString("Here's what I found:\n")
	for _, r := range capResults(documents) {
		b.WriteString("- " + clipRunes(r.Snippet, maxSnippetRunes) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func capResults(rs []search.Result) []search.Result {
	if len(rs) > maxListedResults {
		return rs[:maxListedResults]
	}
	return rs
}

// generativeReply consults the optional text generator. Any failure or
// empty output declines the tier.
func (s *TurnService) generativeReply(ctx context.Context, message string, history []domain.Message) string {
	gctx, cancel := context.WithTimeout(ctx, s.capabilityTimeout())
	defer cancel()

	out, err := s.Generator.Generate(gctx, buildPrompt(message, history))
	if err != nil {
		log.Warn().Err(err).Msg("generative reply degraded")
		return ""
	}
	return strings.TrimSpace(out)
}

// buildPrompt folds recent history into the generation prompt, newest
// last, capped to the last six exchanges.
func buildPrompt(message string, history []domain.Message) string {
	var b strings.Builder
	start := 0
	if len(history) > 12 {
		start = len(history) - 12
	}
	for _, m := range history[start:] {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "user: %s", message)
	return b.String()
}

// displayName returns the user's title-cased given name, if known.
func displayName(user *domain.User) string {
	if user == nil {
		return ""
	}
	return titleName(user.Name)
}

// firstName prefers the freshly extracted name over the stored one.
func firstName(extracted string, user *domain.User) string {
	if n := titleName(extracted); n != "" {
		return n
	}
	return displayName(user)
}

func titleName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	fields := strings.Fields(name)
	return cases.Title(language.English).String(fields[0])
}

// joinNatural joins items as "a", "a and b", or "a, b and c".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func clipRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max])) + "…"
}
