// Package recognition extracts media identity and progress from window
// titles using configurable regular expressions.
package recognition

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"

	"github.com/starford/fubuki/internal/models"
)

// Patterns are the raw regular expressions per category. Each must capture
// a "title" group; anime patterns may capture "episode", manga patterns
// "chapter", "volume" and "oneshot".
type Patterns struct {
	Anime []string `yaml:"anime" json:"anime"`
	Manga []string `yaml:"manga" json:"manga"`
}

// For returns the patterns registered for category.
func (p Patterns) For(category models.Category) []string {
	switch category {
	case models.CategoryAnime:
		return p.Anime
	case models.CategoryManga:
		return p.Manga
	}
	return nil
}

// Merge appends other's patterns after p's.
func (p Patterns) Merge(other Patterns) Patterns {
	return Patterns{
		Anime: append(append([]string(nil), p.Anime...), other.Anime...),
		Manga: append(append([]string(nil), p.Manga...), other.Manga...),
	}
}

// Set tests a string against many patterns in a single pass and reports the
// first pattern, in registration order, that matches.
type Set struct {
	patterns []string
	combined *regexp.Regexp
}

// NewSet compiles patterns into a Set. Every pattern must be a valid RE2
// expression.
func NewSet(patterns []string) (*Set, error) {
	alts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		re, err := syntax.Parse(p, syntax.Perl)
		if err != nil {
			return nil, fmt.Errorf("recognition: parse pattern %q: %w", p, err)
		}
		// Each alternative gets exactly one capture group so the matching
		// group index identifies the pattern. The non-greedy prefix anchors
		// every alternative at the start, which makes leftmost-first
		// alternation pick the lowest index that matches anywhere.
		alts = append(alts, `(?s:.*?)(`+stripCaptures(re).String()+`)`)
	}
	s := &Set{patterns: patterns}
	if len(alts) == 0 {
		return s, nil
	}
	combined, err := regexp.Compile(`\A(?:` + strings.Join(alts, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("recognition: compile pattern set: %w", err)
	}
	s.combined = combined
	return s, nil
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.patterns)
}

// Match returns the first pattern matching text.
func (s *Set) Match(text string) (string, bool) {
	if s == nil || s.combined == nil {
		return "", false
	}
	loc := s.combined.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", false
	}
	for i := range s.patterns {
		if loc[2*(i+1)] >= 0 {
			return s.patterns[i], true
		}
	}
	return "", false
}

func stripCaptures(re *syntax.Regexp) *syntax.Regexp {
	for i, sub := range re.Sub {
		re.Sub[i] = stripCaptures(sub)
	}
	if re.Op == syntax.OpCapture {
		return re.Sub[0]
	}
	return re
}

// Catalog holds the compiled pattern sets per category together with each
// pattern's own capturing regexp.
type Catalog struct {
	sets    map[models.Category]*Set
	regexes map[string]*regexp.Regexp
}

// Compile validates and compiles every pattern in p.
func Compile(p Patterns) (*Catalog, error) {
	c := &Catalog{
		sets:    make(map[models.Category]*Set, len(models.Categories)),
		regexes: make(map[string]*regexp.Regexp),
	}
	for _, category := range models.Categories {
		patterns := p.For(category)
		for _, pattern := range patterns {
			if _, ok := c.regexes[pattern]; ok {
				continue
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("recognition: compile %s pattern %q: %w", strings.ToLower(category.String()), pattern, err)
			}
			c.regexes[pattern] = re
		}
		set, err := NewSet(patterns)
		if err != nil {
			return nil, err
		}
		c.sets[category] = set
	}
	return c, nil
}

// Len returns the number of patterns registered for category.
func (c *Catalog) Len(category models.Category) int {
	return c.sets[category].Len()
}

// Captures matches title against category's patterns and returns the named
// groups of the first matching pattern. Groups that did not participate in
// the match are absent from the map.
func (c *Catalog) Captures(category models.Category, title string) (map[string]string, bool) {
	pattern, ok := c.sets[category].Match(title)
	if !ok {
		return nil, false
	}
	re := c.regexes[pattern]
	m := re.FindStringSubmatchIndex(title)
	if m == nil {
		return nil, false
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name == "" || m[2*i] < 0 {
			continue
		}
		groups[name] = title[m[2*i]:m[2*i+1]]
	}
	return groups, true
}
