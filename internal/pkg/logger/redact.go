package logger

import "strings"

// RedactEmail masks the local part of an address so recipient and respondent
// emails can appear in logs without leaking PII. The first two characters
// survive when the local part is long enough, the domain always does:
// "john.doe@example.com" masks to "jo***@example.com", "ab@example.com" to
// "***@example.com". Input that is not a single well-formed address is
// masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
