package policy

import (
	"testing"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

func mustFlat(t *testing.T, specs []RuleSpec) *Table {
	t.Helper()
	rules, err := NormalizeFlat(specs)
	if err != nil {
		t.Fatalf("NormalizeFlat: %v", err)
	}
	return NewTable(rules)
}

func TestTable_Lookup_DefaultAllow(t *testing.T) {
	table := NewTable(nil)

	d := table.Lookup("github", operation.CategoryRead)
	if !d.Allowed() {
		t.Errorf("empty table should allow, got %v", d.Permission)
	}
	if d.Matched {
		t.Error("default decision should not be marked as matched")
	}

	var nilTable *Table
	if !nilTable.Lookup("github", operation.CategoryDelete).Allowed() {
		t.Error("nil table should allow")
	}
}

func TestTable_Lookup(t *testing.T) {
	table := mustFlat(t, []RuleSpec{
		{Service: "filesystem", Operations: []string{"read"}, Permission: "deny", Reason: "no reads"},
		{Service: "github", Operations: []string{"delete", "admin"}, Permission: "deny"},
		{Service: "git*", Operations: []string{"write"}, Permission: "deny", Reason: "git family is read-only"},
		{Service: "gitlab", Operations: []string{"write"}, Permission: "allow"},
		{Service: "*", Operations: []string{"execute"}, Permission: "deny", Reason: "no execution anywhere"},
		{Service: "sandbox", Operations: []string{"*"}, Permission: "allow"},
	})

	tests := []struct {
		name       string
		service    string
		op         operation.Category
		want       Permission
		wantReason string
		wantMatch  bool
	}{
		{"exact deny", "filesystem", operation.CategoryRead, PermissionDeny, "no reads", true},
		{"other op of denied service", "filesystem", operation.CategoryWrite, PermissionAllow, "", false},
		{"listed op", "github", operation.CategoryAdmin, PermissionDeny, "", true},
		{"unlisted op", "github", operation.CategoryRead, PermissionAllow, "", false},
		{"glob match", "github", operation.CategoryWrite, PermissionDeny, "git family is read-only", true},
		{"exact beats glob", "gitlab", operation.CategoryWrite, PermissionAllow, "", true},
		{"wildcard service", "slack", operation.CategoryExecute, PermissionDeny, "no execution anywhere", true},
		{"service-specific star beats wildcard service", "sandbox", operation.CategoryExecute, PermissionAllow, "", true},
		{"case-insensitive service", "FileSystem", operation.CategoryRead, PermissionDeny, "no reads", true},
		{"unknown service", "unknown", operation.CategoryRead, PermissionAllow, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := table.Lookup(tt.service, tt.op)
			if d.Permission != tt.want {
				t.Errorf("Lookup(%q, %v) = %v, want %v", tt.service, tt.op, d.Permission, tt.want)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
			if d.Matched != tt.wantMatch {
				t.Errorf("Matched = %v, want %v", d.Matched, tt.wantMatch)
			}
		})
	}
}

func TestTable_Lookup_ExplicitOperationBeatsStar(t *testing.T) {
	table := mustFlat(t, []RuleSpec{
		{Service: "db", Operations: []string{"*"}, Permission: "deny"},
		{Service: "db", Operations: []string{"read"}, Permission: "allow"},
	})

	if !table.Lookup("db", operation.CategoryRead).Allowed() {
		t.Error("explicit read allow should beat db:* deny")
	}
	if table.Lookup("db", operation.CategoryWrite).Allowed() {
		t.Error("db:* deny should still cover write")
	}
}

func TestTable_Lookup_DenyWinsTies(t *testing.T) {
	for _, order := range [][]RuleSpec{
		{
			{Service: "s", Operations: []string{"write"}, Permission: "allow"},
			{Service: "s", Operations: []string{"write"}, Permission: "deny", Reason: "conflict"},
		},
		{
			{Service: "s", Operations: []string{"write"}, Permission: "deny", Reason: "conflict"},
			{Service: "s", Operations: []string{"write"}, Permission: "allow"},
		},
	} {
		d := mustFlat(t, order).Lookup("s", operation.CategoryWrite)
		if d.Allowed() || d.Reason != "conflict" {
			t.Errorf("conflicting rules should deny, got %+v", d)
		}
	}
}

func TestTable_Lookup_Idempotent(t *testing.T) {
	table := mustFlat(t, []RuleSpec{
		{Service: "filesystem", Operations: []string{"read", "delete"}, Permission: "deny"},
	})

	for _, op := range operation.Order {
		first := table.Lookup("filesystem", op)
		for i := 0; i < 10; i++ {
			if got := table.Lookup("filesystem", op); got != first {
				t.Fatalf("Lookup(filesystem, %v) changed: %+v then %+v", op, first, got)
			}
		}
	}
}

func TestTable_Version(t *testing.T) {
	a := mustFlat(t, []RuleSpec{
		{Service: "a", Operations: []string{"read"}, Permission: "deny"},
		{Service: "b", Operations: []string{"write", "delete"}, Permission: "deny"},
	})
	b := mustFlat(t, []RuleSpec{
		{Service: "b", Operations: []string{"delete"}, Permission: "deny"},
		{Service: "b", Operations: []string{"write"}, Permission: "deny"},
		{Service: "a", Operations: []string{"read"}, Permission: "deny"},
	})
	c := mustFlat(t, []RuleSpec{
		{Service: "a", Operations: []string{"read"}, Permission: "allow"},
	})

	if a.Version() != b.Version() {
		t.Errorf("equivalent tables have different versions: %s vs %s", a.Version(), b.Version())
	}
	if a.Version() == c.Version() {
		t.Error("different tables share a version")
	}
}

func TestTable_RulesReturnsCopy(t *testing.T) {
	table := mustFlat(t, []RuleSpec{
		{Service: "s", Operations: []string{"read"}, Permission: "deny"},
	})

	rules := table.Rules()
	rules[0].Permission = PermissionAllow
	rules[0].Operations[0] = operation.CategoryWrite

	if table.Lookup("s", operation.CategoryRead).Allowed() {
		t.Error("mutating Rules() result changed the table")
	}
}
