package policyfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
)

func writePolicy(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

const flatYAML = `
- service: filesystem
  operations: [read]
  permission: deny
  reason: read-only mount is off limits
- service: github
  operations: [delete, admin]
  permission: deny
- service: "*"
  operations: ["*"]
  permission: allow
`

const nestedYAML = `
filesystem:
  read: deny
github:
  delete: deny
  admin: deny
"*":
  "*": allow
`

func TestLoad_Encodings(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"flat yaml", "policy.yaml", flatYAML},
		{"wrapped flat yaml", "policy.yaml", "rules:\n" + indent(flatYAML)},
		{"nested yaml", "policy.yaml", nestedYAML},
		{"flat json", "policy.json", `[
	{"service": "filesystem", "operations": ["read"], "permission": "deny"},
	{"service": "github", "operations": ["delete", "admin"], "permission": "deny"},
	{"service": "*", "operations": ["*"], "permission": "allow"}
]`},
		{"nested json", "policy.json", `{
	"filesystem": {"read": "deny"},
	"github": {"delete": "deny", "admin": "deny"},
	"*": {"*": "allow"}
}`},
	}

	checks := []struct {
		service string
		op      operation.Category
		want    policy.Permission
	}{
		{"filesystem", operation.CategoryRead, policy.PermissionDeny},
		{"filesystem", operation.CategoryWrite, policy.PermissionAllow},
		{"github", operation.CategoryDelete, policy.PermissionDeny},
		{"github", operation.CategoryAdmin, policy.PermissionDeny},
		{"github", operation.CategoryRead, policy.PermissionAllow},
		{"slack", operation.CategoryExecute, policy.PermissionAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(writePolicy(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			for _, c := range checks {
				if got := table.Lookup(c.service, c.op).Permission; got != c.want {
					t.Errorf("Lookup(%s, %s) = %s, want %s", c.service, c.op, got, c.want)
				}
			}
		})
	}
}

func TestLoad_SameVersionAcrossEncodings(t *testing.T) {
	flat, err := Load(writePolicy(t, "flat.yaml", flatYAML))
	if err != nil {
		t.Fatalf("Load(flat) error = %v", err)
	}
	nested, err := Load(writePolicy(t, "nested.yaml", nestedYAML))
	if err != nil {
		t.Fatalf("Load(nested) error = %v", err)
	}
	// The flat file carries a reason the nested one cannot express.
	if flat.Version() == nested.Version() {
		t.Fatalf("versions should differ when reasons differ")
	}

	noReason := strings.Replace(flatYAML, "  reason: read-only mount is off limits\n", "", 1)
	flat2, err := Load(writePolicy(t, "flat2.yaml", noReason))
	if err != nil {
		t.Fatalf("Load(flat2) error = %v", err)
	}
	if flat2.Version() != nested.Version() {
		t.Errorf("Version() flat = %s, nested = %s, want equal", flat2.Version(), nested.Version())
	}
}

func TestLoad_CaseInsensitive(t *testing.T) {
	table, err := Load(writePolicy(t, "policy.yaml", "filesystem:\n  READ: Deny\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := table.Lookup("filesystem", operation.CategoryRead).Permission; got != policy.PermissionDeny {
		t.Errorf("Lookup() = %s, want deny", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{"empty file", "", "empty"},
		{"only comments", "# nothing here\n", "empty"},
		{"null document", "null\n", "empty"},
		{"empty mapping", "{}\n", "empty"},
		{"scalar", "allow\n", "list of rules or a map"},
		{"malformed yaml", "filesystem: [read\n", "parse"},
		{"unknown operation", "filesystem:\n  remove: deny\n", `unknown operation "remove"`},
		{"unknown permission", "filesystem:\n  read: maybe\n", "permission"},
		{"empty service", "- service: \"\"\n  operations: [read]\n  permission: deny\n", "service is required"},
		{"missing operations", "- service: github\n  permission: deny\n", "operations is required"},
		{"service not a map", "github: deny\n", "nested policy"},
		{"bad glob", "- service: \"git[\"\n  operations: [read]\n  permission: deny\n", "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePolicy(t, "policy.yaml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			var cfgErr *policy.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Load() error type = %T, want *policy.ConfigError", err)
			}
			if cfgErr.Source != path {
				t.Errorf("ConfigError.Source = %q, want %q", cfgErr.Source, path)
			}
			if !errors.Is(err, policy.ErrInvalidPolicy) {
				t.Error("errors.Is(err, ErrInvalidPolicy) = false")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Load() error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
	if !errors.Is(err, policy.ErrInvalidPolicy) {
		t.Errorf("Load() error = %v, want ErrInvalidPolicy", err)
	}
}

func TestParse_EmptyRuleListIsPermissive(t *testing.T) {
	rules, err := Parse([]byte("rules: []\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("Parse() = %d rules, want 0", len(rules))
	}
}

func indent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
