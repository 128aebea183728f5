package operation

import (
	"strings"
)

// Classifier maps a tool identifier to an operation category.
// Implementations must be deterministic and total.
type Classifier interface {
	Classify(toolName string) Category
}

// Lexicon is an immutable, versioned keyword table used for classification.
// Build one with NewLexicon or DefaultLexicon; the zero value classifies
// everything as DefaultCategory.
type Lexicon struct {
	version  string
	keywords [][]string // indexed by Category.Rank()
}

// NewLexicon builds a lexicon from per-category keyword lists.
// Keywords are lower-cased, trimmed, and de-duplicated within a category.
// Entries for unknown categories are ignored. The input map is not retained.
func NewLexicon(version string, keywords map[Category][]string) *Lexicon {
	l := &Lexicon{
		version:  version,
		keywords: make([][]string, len(Order)),
	}
	for _, c := range Order {
		l.keywords[c.Rank()] = normalizeKeywords(nil, keywords[c])
	}
	return l
}

// Extend returns a new lexicon with extra keywords appended after the
// existing ones for each category. The receiver is not modified.
func (l *Lexicon) Extend(version string, extra map[Category][]string) *Lexicon {
	out := &Lexicon{
		version:  version,
		keywords: make([][]string, len(Order)),
	}
	for _, c := range Order {
		var base []string
		if l != nil && len(l.keywords) == len(Order) {
			base = append(base, l.keywords[c.Rank()]...)
		}
		out.keywords[c.Rank()] = normalizeKeywords(base, extra[c])
	}
	return out
}

func normalizeKeywords(dst []string, src []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, k := range dst {
		seen[k] = struct{}{}
	}
	for _, k := range src {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		dst = append(dst, k)
	}
	return dst
}

// Version returns the lexicon version label.
func (l *Lexicon) Version() string {
	if l == nil {
		return ""
	}
	return l.version
}

// Keywords returns a copy of the keyword list for a category.
func (l *Lexicon) Keywords(c Category) []string {
	if l == nil || !c.IsValid() || len(l.keywords) != len(Order) {
		return nil
	}
	return append([]string(nil), l.keywords[c.Rank()]...)
}

// Size returns the total number of keywords across all categories.
func (l *Lexicon) Size() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, kws := range l.keywords {
		n += len(kws)
	}
	return n
}

// Classify determines the operation category of a tool identifier.
// Matching is a case-insensitive substring search.
//
// Categories are checked from most to least sensitive
// (admin, delete, execute, write, read); the first category with a keyword
// contained in the identifier wins, so "archive_and_delete" is a delete and
// not a write. Identifiers matching nothing are DefaultCategory (write).
//
// Limitations:
//   - Substring matching means "undelete" also matches "delete"
//   - Tool descriptions and arguments are never inspected, only names
func (l *Lexicon) Classify(toolName string) Category {
	category, _ := l.Explain(toolName)
	return category
}

// Explain classifies a tool identifier and also returns the keyword that
// decided the category, or "" when the default was applied.
func (l *Lexicon) Explain(toolName string) (Category, string) {
	if l == nil {
		return DefaultCategory, ""
	}
	name := strings.ToLower(toolName)
	for i, kws := range l.keywords {
		for _, kw := range kws {
			if strings.Contains(name, kw) {
				return Order[i], kw
			}
		}
	}
	return DefaultCategory, ""
}

// Compile-time check that Lexicon implements Classifier.
var _ Classifier = (*Lexicon)(nil)
