// Package extract implements the profile-extraction capability: it scans a
// single message for contact details and intent signals and returns a
// partial domain.ExtractedProfile. The package is deliberately heuristic
// (deterministic keyword and pattern matching) and sits behind the
// capability interface so a model-backed extractor can replace it without
// touching the pipeline.
//
// The extractor never fails on ordinary input: a message with no signal
// yields an all-empty profile and a nil error.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
)

// HeuristicExtractor derives profile fields from message text using regular
// expressions and a small keyword vocabulary. It is stateless and safe for
// concurrent use.
type HeuristicExtractor struct{}

// New returns a ready-to-use HeuristicExtractor.
func New() *HeuristicExtractor { return &HeuristicExtractor{} }

var (
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)

	// "I'm Sarah", "I am Sarah", "my name is Sarah", "this is Sarah".
	// The lead-in is case-insensitive but the captured name must be
	// capitalized, so "I'm looking for..." captures nothing.
	nameRE = regexp.MustCompile(`\b(?i:i'?\s?a?m|my name is|this is)\s+([A-Z][a-zA-Z'\-]+)`)

	// "from Acme", "I work at Acme Corp"
	companyRE = regexp.MustCompile(`\b(?i:work(?:ing)? (?:at|for)|from)\s+([A-Z][\w&.\-]*(?:\s+[A-Z][\w&.\-]*)*)`)

	// "$2,000", "budget of 2000", "2000 per month"
	budgetRE = regexp.MustCompile(`(?i)(?:\$\s?([\d,]+(?:\.\d+)?)|budget(?:\s+(?:of|is|around|about))?\s+\$?([\d,]+)|([\d,]+)\s*(?:/|per\s+)(?:month|mo)\b)`)

	// "2 bedroom", "3-bed", "two bedroom"
	bedroomRE = regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|five)[\s\-]*(?:bed(?:room)?s?)\b`)
)

// keyword → canonical property type, checked in declaration order.
var propertyTypes = []struct{ kw, val string }{
	{"apartment", "apartment"},
	{"condo", "condo"},
	{"studio", "studio"},
	{"townhouse", "townhouse"},
	{"house", "house"},
	{"home", "house"},
	{"office", "commercial"},
	{"commercial", "commercial"},
}

var locationHints = []string{"downtown", "suburban", "suburb", "city center", "city centre", "waterfront", "uptown"}

// lease-term vocabulary; matched phrases are recorded verbatim.
var leaseTermHints = []string{
	"month-to-month", "month to month", "short term", "short-term",
	"long term", "long-term", "6 month lease", "12 month lease",
	"furnished", "unfurnished", "pet friendly", "pets allowed", "lease renewal",
}

// collaboration-status vocabulary → canonical signal.
var collaborationHints = []struct {
	signal string
	kws    []string
}{
	{"viewing_requested", []string{"viewing", "view the", "tour", "visit the", "see the property", "open house", "schedule a showing"}},
	{"contact_requested", []string{"contact", "call me", "reach out", "get in touch", "speak to", "talk to the agent"}},
	{"application_ready", []string{"apply", "application", "paperwork", "sign the lease", "ready to rent"}},
	{"negotiation_ready", []string{"offer", "negotiate", "counteroffer", "make a deal", "lower the price"}},
}

// Extract scans text for profile signals. The returned profile is partial:
// absent signals leave their fields zero. The error is always nil; the
// signature matches the capability contract so model-backed implementations
// can report transport failures.
func (e *HeuristicExtractor) Extract(ctx context.Context, text string) (domain.ExtractedProfile, error) {
	var p domain.ExtractedProfile
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return p, nil
	}
	lower := strings.ToLower(trimmed)

	if m := emailRE.FindString(trimmed); m != "" {
		p.Email = strings.ToLower(m)
	}
	if m := phoneRE.FindString(trimmed); m != "" && !strings.Contains(m, "@") {
		p.Phone = strings.TrimSpace(m)
	}
	if m := nameRE.FindStringSubmatch(trimmed); m != nil {
		p.Name = m[1]
	}
	if m := companyRE.FindStringSubmatch(trimmed); m != nil {
		p.Company = strings.TrimSpace(m[1])
	}
	if m := budgetRE.FindStringSubmatch(trimmed); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				p.Budget = "$" + strings.ReplaceAll(g, ",", "")
				break
			}
		}
	}

	for _, pt := range propertyTypes {
		if strings.Contains(lower, pt.kw) {
			p.PropertyType = pt.val
			break
		}
	}
	if m := bedroomRE.FindStringSubmatch(lower); m != nil {
		term := m[1] + " bedroom"
		p.LeaseTerms = append(p.LeaseTerms, term)
		if p.PropertyType == "" {
			p.PropertyType = "apartment"
		}
	}

	for _, loc := range locationHints {
		if strings.Contains(lower, loc) {
			p.LocationPreference = loc
			break
		}
	}
	for _, term := range leaseTermHints {
		if strings.Contains(lower, term) {
			p.LeaseTerms = appendUnique(p.LeaseTerms, term)
		}
	}
	for _, c := range collaborationHints {
		for _, kw := range c.kws {
			if strings.Contains(lower, kw) {
				p.CollaborationStatus = appendUnique(p.CollaborationStatus, c.signal)
				break
			}
		}
	}

	switch {
	case containsAny(lower, "asap", "urgent", "immediately", "right away", "this week"):
		p.Urgency = "high"
	case containsAny(lower, "no rush", "no hurry", "eventually", "next year", "just browsing"):
		p.Urgency = "low"
	case containsAny(lower, "next month", "soon", "in a few weeks"):
		p.Urgency = "medium"
	}
	switch {
	case containsAny(lower, "this month", "this week", "asap", "immediately"):
		p.Timeline = "immediate"
	case containsAny(lower, "next month", "in a month", "few weeks"):
		p.Timeline = "1-2 months"
	case containsAny(lower, "next year", "six months", "6 months"):
		p.Timeline = "6+ months"
	}

	return p, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
