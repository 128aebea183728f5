package policy

import (
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

// Table is the loaded, read-only collection of rules. It is safe for
// concurrent use; nothing mutates it after NewTable returns.
type Table struct {
	rules   []Rule
	version string
}

// NewTable builds a table from normalized rules. The slice is copied.
func NewTable(rules []Rule) *Table {
	copied := make([]Rule, len(rules))
	for i, r := range rules {
		r.Operations = append([]operation.Category(nil), r.Operations...)
		copied[i] = r
	}
	return &Table{
		rules:   copied,
		version: fingerprint(copied),
	}
}

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the rules in load order.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Version returns a fingerprint of the rule set. Two tables granting the
// same permissions to the same (service, operation) pairs share a version,
// regardless of which encoding or rule order produced them.
func (t *Table) Version() string {
	if t == nil {
		return fingerprint(nil)
	}
	return t.version
}

// Lookup returns the decision for a (service, operation) pair.
//
// Among matching rules the most specific wins: an exact service beats a
// glob pattern, which beats "*"; at equal service specificity a rule naming
// the operation beats a "*" operation rule. When equally specific rules
// disagree, deny wins. Without any match the decision is DefaultDecision.
func (t *Table) Lookup(service string, op operation.Category) Decision {
	if t == nil {
		return DefaultDecision
	}

	best := -1
	var bestRule *Rule
	for i := range t.rules {
		r := &t.rules[i]
		svcScore, ok := matchService(r.Service, service)
		if !ok || !r.appliesTo(op) {
			continue
		}
		score := svcScore * 2
		if !r.AllOperations {
			score++
		}
		switch {
		case score > best:
			best, bestRule = score, r
		case score == best && r.Permission == PermissionDeny && bestRule.Permission != PermissionDeny:
			bestRule = r
		}
	}

	if bestRule == nil {
		return DefaultDecision
	}
	return Decision{
		Permission: bestRule.Permission,
		Reason:     bestRule.Reason,
		Rule:       bestRule.String(),
		Matched:    true,
	}
}

// matchService reports whether pattern matches service and how specific
// the match is: 2 for an exact name, 1 for a glob, 0 for "*".
// Matching is case-insensitive.
func matchService(pattern, service string) (int, bool) {
	if pattern == WildcardService {
		return 0, true
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return 2, strings.EqualFold(pattern, service)
	}
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(service))
	return 1, err == nil && ok
}

// fingerprint hashes the expanded (service, operation, permission) triples
// in sorted order. Reasons are included so that reworded denials are
// visible as a new version.
func fingerprint(rules []Rule) string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		svc := strings.ToLower(r.Service)
		if r.AllOperations {
			lines = append(lines, svc+"\x00*\x00"+string(r.Permission)+"\x00"+r.Reason)
			continue
		}
		for _, op := range r.Operations {
			lines = append(lines, svc+"\x00"+string(op)+"\x00"+string(r.Permission)+"\x00"+r.Reason)
		}
	}
	sort.Strings(lines)
	lines = slices.Compact(lines)

	d := xxhash.New()
	for _, l := range lines {
		_, _ = d.WriteString(l)
		_, _ = d.WriteString("\n")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
