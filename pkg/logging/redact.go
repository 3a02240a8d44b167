// redact.go — sensitive data masking for safe logging.
//
// Tokens and email addresses are never written to logs in cleartext. Call
// these before passing values to any log statement.
package logging

import "strings"

// RedactToken masks a bearer token for logging. The first 8 characters stay
// visible so failures can be correlated without exposing the credential.
func RedactToken(t string) string {
	if len(t) == 0 {
		return "[empty]"
	}
	if len(t) <= 8 {
		return t[:1] + "..."
	}
	return t[:8] + "..."
}

// RedactEmail masks an email address for logging. The domain stays visible;
// the local part is hidden.
func RedactEmail(e string) string {
	if len(e) == 0 {
		return "[empty]"
	}
	parts := strings.SplitN(e, "@", 2)
	if len(parts) != 2 {
		if len(parts[0]) > 1 {
			return parts[0][:1] + "..."
		}
		return "..."
	}
	return parts[0][:1] + "...@" + parts[1]
}
