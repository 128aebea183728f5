package operation

import "testing"

func TestResolveService(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		toolName string
		want     string
	}{
		{"explicit wins", "filesystem", "list_directory", "filesystem"},
		{"explicit kept verbatim", "My Service", "github_list_repos", "My Service"},
		{"leading verb is not a service", "", "list_directory", UnknownService},
		{"prefixed identifier", "", "github_delete_repo", "github"},
		{"dot separator", "", "slack.post_message", "slack"},
		{"slash separator", "", "jira/create_issue", "jira"},
		{"no separator", "", "frobnicate", UnknownService},
		{"leading separator", "", "_hidden_tool", UnknownService},
		{"empty identifier", "", "", UnknownService},
		{"verb prefix case-insensitive", "", "Get_File", UnknownService},
		{"read verb", "", "read_file", UnknownService},
		{"keyword noun puppeteer", "", "puppeteer_navigate", "puppeteer"},
		{"keyword noun playwright", "", "playwright_click", "playwright"},
		{"keyword noun vault", "", "vault_read_secret", "vault"},
		{"keyword noun kubectl", "", "kubectl_apply", "kubectl"},
		{"keyword noun lambda", "", "lambda_invoke", "lambda"},
		{"keyword noun tenant", "", "tenant_list_users", "tenant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveService(tt.explicit, tt.toolName); got != tt.want {
				t.Errorf("ResolveService(%q, %q) = %q, want %q", tt.explicit, tt.toolName, got, tt.want)
			}
		})
	}
}

func TestLexicon_ResolveService_IgnoresKeywords(t *testing.T) {
	lex := NewLexicon("t", map[Category][]string{CategoryRead: {"github"}, CategoryExecute: {"puppeteer"}})

	tests := map[string]string{
		"github_list_repos":  "github",
		"puppeteer_navigate": "puppeteer",
		"list_directory":     UnknownService,
	}
	for tool, want := range tests {
		if got := lex.ResolveService("", tool); got != want {
			t.Errorf("ResolveService(%q) = %q, want %q", tool, got, want)
		}
	}
}
