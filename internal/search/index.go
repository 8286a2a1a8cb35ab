// Package search provides a simple, deterministic, concurrency-safe in-memory
// retrieval index over property listings and free-form documents. It is
// intentionally small and dependency-free, but engineered with production-grade
// ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Structured metadata carried per item so callers can distinguish
//     property listings from generic documents
//
// Scoring uses Jaccard similarity between the query token set and each
// item's token set: score = |Q ∩ I| / |Q ∪ I|.
package search

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Item kinds.
const (
	KindProperty = "property"
	KindDocument = "document"
)

// Result is one ranked retrieval item. Property items carry a structured
// Metadata bag (price, bedrooms, amenities, ...); document items only have
// snippet text. Metadata values are strings or []string after normalization.
type Result struct {
	Snippet  string         `json:"content"`
	Score    float64        `json:"score"`
	Kind     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IsProperty reports whether the result is a structured listing.
func (r Result) IsProperty() bool { return r.Kind == KindProperty }

// Index is the minimal interface implemented by all retrieval indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minSnippetRunes int
	stopwords       map[string]struct{}
	maxDocs         int
}

func defaultConfig() config {
	return config{
		minSnippetRunes: 20,
		stopwords:       nil,
		maxDocs:         0,
	}
}

func WithMinSnippetRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minSnippetRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	text   string
	kind   string
	meta   map[string]any
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndexFromFile builds an Index from a data file, dispatching on the
// extension: ".csv" is read as structured listings (one property per row),
// anything else is treated as Markdown/plain text split into paragraphs.
func NewIndexFromFile(path string, opts ...Option) (Index, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return NewIndexFromListingsCSV(path, opts...)
	}
	return NewIndexFromMarkdown(path, opts...)
}

// NewIndexFromMarkdown builds an Index of generic document items by reading
// the Markdown at path, flattening tables into standalone facts, and
// delegating to NewIndexFromReader.
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	b, err := FlattenMarkdown(path)
	if err != nil {
		return &index{cfg: defaultConfig(), docs: nil}, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader builds an Index from UTF-8 text provided by r.
// The reader is fully consumed; paragraphs are split on blank lines and
// indexed as generic documents.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	all, err := io.ReadAll(r)
	if err != nil {
		return &index{cfg: cfg, docs: nil}, err
	}
	paras := splitParasFromBytes(all)
	return buildIndex(paras, nil, cfg), nil
}

// NewIndexFromStrings builds an Index of generic documents directly from a
// slice of paragraphs.
func NewIndexFromStrings(paragraphs []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(paragraphs, nil, cfg)
}

// Listing is one structured property record to be indexed.
type Listing struct {
	Text string
	Meta map[string]any
}

// NewIndexFromListings builds an Index of property items from pre-parsed
// listings.
func NewIndexFromListings(listings []Listing, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	texts := make([]string, len(listings))
	metas := make([]map[string]any, len(listings))
	for i, l := range listings {
		texts[i] = l.Text
		metas[i] = l.Meta
	}
	return buildIndex(texts, metas, cfg)
}

// NewIndexFromListingsCSV reads a CSV of property listings (header row
// required) and indexes each row as one property item. All cells are joined
// into the snippet text ("column: value, ..."), and well-known columns
// (price, bedrooms, bathrooms, sqft, address, amenities) populate the
// metadata bag. The amenities cell is split on ';'.
func NewIndexFromListingsCSV(path string, opts ...Option) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return &index{cfg: defaultConfig(), docs: nil}, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err != nil {
		return &index{cfg: defaultConfig(), docs: nil}, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var listings []Listing
	for {
		row, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &index{cfg: defaultConfig(), docs: nil}, err
		}
		var parts []string
		meta := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			col, val := header[i], strings.TrimSpace(cell)
			if val == "" || col == "" || col == "id" {
				continue
			}
			parts = append(parts, col+": "+val)
			if col == "amenities" {
				meta[col] = splitList(val)
				continue
			}
			meta[col] = val
		}
		if len(parts) == 0 {
			continue
		}
		listings = append(listings, Listing{Text: strings.Join(parts, ", "), Meta: meta})
	}
	return NewIndexFromListings(listings, opts...), nil
}

func buildIndex(texts []string, metas []map[string]any, cfg config) *index {
	docs := make([]doc, 0, len(texts))
	count := 0
	for i, raw := range texts {
		t := strings.TrimSpace(normalizeWhitespace(raw))
		if t == "" {
			continue
		}
		if cfg.minSnippetRunes > 0 && utf8.RuneCountInString(t) < cfg.minSnippetRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		d := doc{text: t, kind: KindDocument, tokens: toks, tLen: len(toks)}
		if metas != nil && metas[i] != nil {
			d.kind = KindProperty
			d.meta = metas[i]
		}
		docs = append(docs, d)
		count++
		if cfg.maxDocs > 0 && count >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k best-matching items by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		d        doc
		score    float64
		lenRunes int
	}

	buf := make([]scored, 0, minInt(k*4, len(i.docs)))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{d: d, score: score, lenRunes: utf8.RuneCountInString(d.text)})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].d.text < buf[b].d.text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{
			Snippet:  buf[j].d.text,
			Score:    buf[j].score,
			Kind:     buf[j].d.kind,
			Metadata: buf[j].d.meta,
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

func splitParasFromBytes(all []byte) []string {
	raw := string(all)
	chunks := paraSplitRE.Split(raw, -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
