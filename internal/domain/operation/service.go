package operation

import (
	"strings"
)

// UnknownService is returned by ResolveService when neither an explicit
// service nor a usable identifier prefix is available.
const UnknownService = "unknown"

// serviceSeparators are the characters that may end a service prefix in a
// tool identifier ("github_list_repos", "slack.post", "fs/read", "db:query").
const serviceSeparators = "_./:-"

var defaultLexicon = DefaultLexicon()

// leadingVerbs are action verbs that start unprefixed tool identifiers
// ("list_directory", "read_file"). A leading segment in this set is not a
// service. The set is deliberately separate from the classification
// keywords, which also hold nouns and product names ("vault", "kubectl")
// that are legitimate service prefixes.
var leadingVerbs = map[string]struct{}{
	"add": {}, "append": {}, "apply": {}, "archive": {}, "assign": {},
	"browse": {}, "call": {}, "cancel": {}, "check": {}, "clear": {},
	"clone": {}, "close": {}, "commit": {}, "compare": {}, "copy": {},
	"count": {}, "create": {}, "delete": {}, "deploy": {}, "describe": {},
	"destroy": {}, "diff": {}, "disable": {}, "download": {}, "drop": {},
	"edit": {}, "enable": {}, "erase": {}, "exec": {}, "execute": {},
	"export": {}, "fetch": {}, "find": {}, "get": {}, "grant": {},
	"import": {}, "insert": {}, "inspect": {}, "install": {}, "invoke": {},
	"kill": {}, "list": {}, "load": {}, "lookup": {}, "merge": {},
	"modify": {}, "move": {}, "open": {}, "patch": {}, "post": {},
	"purge": {}, "push": {}, "put": {}, "query": {}, "read": {},
	"remove": {}, "rename": {}, "replace": {}, "reset": {}, "restart": {},
	"revoke": {}, "run": {}, "save": {}, "search": {}, "send": {},
	"set": {}, "show": {}, "start": {}, "stop": {}, "submit": {},
	"sync": {}, "terminate": {}, "truncate": {}, "uninstall": {}, "update": {},
	"upload": {}, "upsert": {}, "validate": {}, "view": {}, "wipe": {},
	"write": {},
}

// ResolveService returns the service a tool call belongs to.
//
// The explicit service is returned verbatim when non-empty. Otherwise the
// identifier's leading segment (up to its first separator) is used. When the
// identifier has no separator, or its leading segment is a common action
// verb ("list" in "list_directory"), the identifier carries no service
// prefix and UnknownService is returned. Lexicon keywords do not take part:
// a keyword such as "vault" is still a valid service prefix.
//
// The fallback is degraded behavior: it yields a wrong service for any
// backend whose tool names happen to start with another word. New
// integrations should always configure an explicit service.
func (l *Lexicon) ResolveService(explicit, toolName string) string {
	if explicit != "" {
		return explicit
	}
	idx := strings.IndexAny(toolName, serviceSeparators)
	if idx <= 0 {
		return UnknownService
	}
	prefix := toolName[:idx]
	if _, ok := leadingVerbs[strings.ToLower(prefix)]; ok {
		return UnknownService
	}
	return prefix
}

// ResolveService resolves the service of a tool call using the built-in
// lexicon. See Lexicon.ResolveService.
func ResolveService(explicit, toolName string) string {
	return defaultLexicon.ResolveService(explicit, toolName)
}

