// Package logger provides PII-safe helpers for log output. Submitter
// emails, names, and addresses must never land raw in logs; wrap them
// with these before handing them to log.Printf.
package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactName keeps the first rune of a personal name and masks the rest.
// Empty input stays empty.
func RedactName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	runes := []rune(trimmed)
	return string(runes[0]) + "***"
}

// RedactAddr masks the tail of an IP-style address.
// "203.0.113.54" → "203.0.113.***", "2001:db8::1" → "2001:db8:***".
// Addresses without a recognizable separator are fully masked.
func RedactAddr(addr string) string {
	if addr == "" {
		return ""
	}
	if i := strings.LastIndex(addr, "."); i >= 0 {
		return addr[:i+1] + "***"
	}
	if i := strings.Index(addr, ":"); i >= 0 {
		if j := strings.Index(addr[i+1:], ":"); j >= 0 {
			return addr[:i+1+j+1] + "***"
		}
		return addr[:i+1] + "***"
	}
	return "***"
}
