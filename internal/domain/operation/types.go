// Package operation classifies tool identifiers into coarse operation
// categories and resolves the service a tool call belongs to.
package operation

import (
	"fmt"
	"strings"
)

// Category is the unit of policy granularity for a tool call.
type Category string

const (
	// CategoryAdmin covers permission, credential and account management.
	// Examples: grant_role, rotate_api_key, update_branch_protection.
	CategoryAdmin Category = "admin"

	// CategoryDelete covers destructive operations.
	// Examples: delete_file, drop_table, purge_cache.
	CategoryDelete Category = "delete"

	// CategoryExecute covers running code, commands or automation.
	// Examples: execute_command, run_script, browser_navigate.
	CategoryExecute Category = "execute"

	// CategoryWrite covers operations that create or modify state.
	// Examples: write_file, create_issue, send_message.
	CategoryWrite Category = "write"

	// CategoryRead covers side-effect free lookups.
	// Examples: read_file, list_directory, search_code.
	CategoryRead Category = "read"
)

// Order lists every category from most to least sensitive.
// Classification walks categories in this order and the first match wins.
var Order = []Category{
	CategoryAdmin,
	CategoryDelete,
	CategoryExecute,
	CategoryWrite,
	CategoryRead,
}

// DefaultCategory is assigned when no keyword matches.
// Unclassifiable operations are treated as writes, not reads.
const DefaultCategory = CategoryWrite

// IsValid returns true if the category is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryAdmin, CategoryDelete, CategoryExecute, CategoryWrite, CategoryRead:
		return true
	default:
		return false
	}
}

// Rank returns the position of the category in Order (0 = most sensitive).
// Unknown categories rank after every known one.
func (c Category) Rank() int {
	for i, o := range Order {
		if o == c {
			return i
		}
	}
	return len(Order)
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a case-insensitive name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown operation category %q", s)
	}
	return c, nil
}
