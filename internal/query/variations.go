// Package query expands free-text location queries into alternate search strings.
package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// VariationSet is an ordered, case-insensitively deduplicated list of search strings.
// The first element is always the trimmed original query.
type VariationSet []string

// Options configures a Generator.
type Options struct {
	SuffixKeywords    []string
	CanonicalSuffixes []string
	RegionTokens      []string
	RegionContext     string
	MaxVariations     int
}

// DefaultOptions returns the Nigerian defaults.
func DefaultOptions() Options {
	return Options{
		SuffixKeywords:    []string{"estate", "area", "district", "zone", "community", "layout", "quarters"},
		CanonicalSuffixes: []string{"Housing Estate", "Residential Estate"},
		RegionTokens: []string{
			"nigeria", "lagos", "abuja", "fct", "port harcourt", "ibadan", "kano", "kaduna",
			"enugu", "benin city", "abeokuta", "jos", "ilorin", "owerri", "calabar", "uyo", "warri",
		},
		RegionContext: "Nigeria",
		MaxVariations: 8,
	}
}

// Generator produces query variations. It is safe for concurrent use.
type Generator struct {
	opts     Options
	keywords map[string]struct{}
	regions  []string
}

// NewGenerator creates a generator. A non-positive MaxVariations falls back to 8.
func NewGenerator(opts Options) *Generator {
	if opts.MaxVariations <= 0 {
		opts.MaxVariations = 8
	}
	g := &Generator{opts: opts, keywords: make(map[string]struct{}, len(opts.SuffixKeywords))}
	for _, k := range opts.SuffixKeywords {
		g.keywords[fold(k)] = struct{}{}
	}
	for _, r := range opts.RegionTokens {
		g.regions = append(g.regions, strings.Join(words(fold(r)), " "))
	}
	return g
}

// Generate expands q. An empty or blank query yields an empty set.
func (g *Generator) Generate(q string) VariationSet {
	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return VariationSet{}
	}

	b := newBuilder(g.opts.MaxVariations)
	b.add(q)

	base := g.stripKeyword(q)
	if base != "" {
		b.add(base)
		for _, suffix := range g.opts.CanonicalSuffixes {
			b.add(base + " " + suffix)
		}
	}

	if g.opts.RegionContext != "" && !g.mentionsRegion(q) {
		b.add(q + " " + g.opts.RegionContext)
		if base != "" {
			b.add(base + " " + g.opts.RegionContext)
		}
	}

	return b.out
}

// stripKeyword removes the last suffix keyword from q, returning "" when q has none
// or when nothing would remain.
func (g *Generator) stripKeyword(q string) string {
	fields := strings.Fields(q)
	for i := len(fields) - 1; i >= 0; i-- {
		w := fold(strings.TrimFunc(fields[i], notAlnum))
		if _, ok := g.keywords[w]; !ok {
			continue
		}
		rest := append(append([]string{}, fields[:i]...), fields[i+1:]...)
		return strings.TrimFunc(strings.Join(rest, " "), func(r rune) bool {
			return unicode.IsSpace(r) || r == ','
		})
	}
	return ""
}

func (g *Generator) mentionsRegion(q string) bool {
	padded := " " + strings.Join(words(fold(q)), " ") + " "
	for _, r := range g.regions {
		if r != "" && strings.Contains(padded, " "+r+" ") {
			return true
		}
	}
	return false
}

type builder struct {
	limit int
	seen  map[string]struct{}
	out   VariationSet
}

func newBuilder(limit int) *builder {
	return &builder{limit: limit, seen: make(map[string]struct{})}
}

func (b *builder) add(s string) {
	if len(b.out) >= b.limit {
		return
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	key := fold(s)
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}
	b.out = append(b.out, s)
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func words(s string) []string {
	return strings.FieldsFunc(s, notAlnum)
}

func notAlnum(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
