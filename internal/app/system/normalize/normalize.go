// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an address so lookups and the unique index agree.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims surrounding space and collapses inner runs of whitespace.
func Name(s string) string { return strings.Join(strings.Fields(s), " ") }

func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func Status(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func Category(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// StudentKey is compared case-insensitively within a teacher's roster.
func StudentKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// QueryParam trims a query value and preserves its case.
func QueryParam(s string) string { return strings.TrimSpace(s) }
