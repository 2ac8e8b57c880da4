// Package sanitize provides sanitization for user-provided calendar
// content. Uses bluemonday to strip dangerous HTML (script tags, event
// handlers, javascript: URLs). Names and labels are reduced to plain
// text; descriptions keep safe formatting.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policies are singletons initialized once via sync.Once for
// thread-safe lazy initialization.
var (
	ugcPolicy    *bluemonday.Policy
	strictPolicy *bluemonday.Policy
	policyOnce   sync.Once
)

func initPolicies() {
	policyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		strictPolicy = bluemonday.StrictPolicy()
	})
}

// HTML sanitizes user-provided rich text (calendar and era
// descriptions) by stripping dangerous elements while preserving safe
// formatting tags.
//
// This MUST be called on all user-provided HTML before storing it in
// the database.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	initPolicies()
	return ugcPolicy.Sanitize(input)
}

// Name reduces a user-provided name or label (month names, moon names,
// era abbreviations, cycle entries) to trimmed plain text. Any markup
// is removed entirely.
func Name(input string) string {
	if input == "" {
		return ""
	}
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}
