package operation

// DefaultLexiconVersion identifies the built-in keyword table.
// Bump it whenever a keyword is added, removed or moved between categories.
const DefaultLexiconVersion = "2026.10.1"

// defaultKeywords is the built-in keyword table. Keywords are matched as
// lower-case substrings of the tool identifier, so short or generic words
// are anchored with an underscore to avoid matching inside unrelated words
// (e.g. "drop_" so that "select_dropdown" is not destructive).
var defaultKeywords = map[Category][]string{
	// Accounts, credentials, permissions and platform configuration.
	CategoryAdmin: {
		"admin", "sudo", "superuser", "root_", "chmod", "chown", "chgrp", "permission", "privilege",
		"grant", "revoke", "impersonat", "role", "policy", "policies", "_acl", "acl_", "credential",
		"password", "passwd", "secret", "apikey", "api_key", "access_token", "refresh_token", "rotate",
		"owner", "membership", "invite", "ban_user", "unban", "suspend", "quota", "billing", "configure",
		"set_config", "update_config", "firewall", "iam_", "_iam", "sso_", "_sso", "mfa_", "2fa",
		"audit_log", "shutdown", "reboot", "poweroff", "failover", "promote", "demote", "migrate",
		"provision", "webhook", "manage_", "_manage", "enable_", "disable_", "lock_account",
		"lock_branch", "unlock", "freeze", "org_settings", "repo_settings", "branch_protection",
		"elevate", "escalate", "setuid", "keychain", "vault", "certificate", "ssh_key", "deploy_key",
		"collaborator", "team_member", "user_management", "tenant",
	},
	// Destructive or irreversible operations.
	CategoryDelete: {
		"delete", "remove", "destroy", "drop_", "purge", "erase", "wipe", "truncate", "unlink", "rmdir",
		"prune", "evict", "expunge", "obliterate", "trash", "discard", "clear_", "_clear", "reset_",
		"flush", "uninstall", "terminate", "kill_", "_kill", "pkill", "detach", "deregister",
		"unregister", "unsubscribe", "unpublish", "retract", "cancel", "abort", "dispose", "shred",
		"nuke", "teardown", "tear_down", "decommission", "archive", "close_issue", "close_pull",
		"revert", "rollback", "undeploy", "dismiss", "unset", "unassign", "unstar", "unfollow",
		"unwatch", "withdraw", "void_", "redact", "scrub",
	},
	// Running code, commands, jobs and UI automation.
	CategoryExecute: {
		"execute", "exec", "run_", "_run", "shell", "bash", "zsh", "powershell", "cmd_", "_cmd",
		"command", "spawn", "invoke", "_eval", "evaluate", "launch", "start_", "restart", "trigger",
		"dispatch", "deploy", "compile", "install", "pip_", "npm_", "npx", "terminal", "subprocess",
		"cron", "task_run", "lambda", "function_call", "call_function", "sandbox", "kernel", "kubectl",
		"ssh_exec", "raw_sql", "applescript", "javascript", "python", "open_app", "click", "type_text",
		"navigate", "hover", "press_key", "browser_", "playwright", "puppeteer", "interpret", "rerun",
		"retry_job", "build_and", "make_target", "systemctl",
	},
	// Creating or changing state.
	CategoryWrite: {
		"write", "create", "update", "_edit", "modify", "patch", "_put", "put_object", "post_", "insert",
		"upsert", "append", "save", "restore", "upload", "send", "publish", "push", "merge", "rename",
		"move", "copy", "replace", "set_", "add_", "assign", "attach", "reply", "fork", "clone", "mkdir",
		"touch", "import", "sync_", "submit", "approve", "reject", "register", "subscribe", "star_",
		"follow", "like_", "react", "notify", "schedule_", "book_", "reserve", "transfer", "pay_",
		"place_order", "enqueue", "increment", "decrement", "toggle", "mark_", "apply", "generate",
		"draft", "annotate", "link_", "overwrite", "amend", "rebase", "cherry_pick", "resolve_thread",
		"request_review", "new_", "init_", "setup",
	},
	// Side-effect free lookups.
	CategoryRead: {
		"read", "get", "list", "fetch", "search", "find", "query", "lookup", "look_up", "show", "view",
		"describe", "inspect", "browse", "explore", "scan", "check", "status", "info", "details",
		"count", "stat", "head", "tail", "cat_", "_cat", "ls_", "_ls", "tree", "diff", "log", "history",
		"download", "export", "preview", "peek", "watch", "poll", "retrieve", "resolve", "summar",
		"analy", "report", "metrics", "health", "ping", "version", "whoami", "profile", "schema", "help",
		"echo", "compare", "validate", "verify", "grep", "open_file", "load", "print", "dump", "trace",
		"debug", "monitor", "observe", "sample", "select", "filter", "sort", "aggregate", "explain",
		"estimate", "calculate", "convert", "parse", "render", "translate", "format", "lint", "diagnos",
		"capabilit", "discover", "enumerate", "recent", "latest", "current", "exists", "has_", "is_",
		"snapshot", "screenshot", "readme", "content", "file_info", "metadata", "usage", "overview",
	},
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	return NewLexicon(DefaultLexiconVersion, defaultKeywords)
}
