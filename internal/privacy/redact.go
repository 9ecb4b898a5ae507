// Package privacy masks credentials in log lines before they are displayed.
package privacy

import (
	"regexp"
)

// Mask replaces every redacted value.
const Mask = "***"

var (
	// secretParamRegex matches key=value pairs in query strings and
	// key: value pairs in structured lines.
	secretParamRegex = regexp.MustCompile(`(?i)\b((?:password|passwd|pwd|token|access_token|api_?key|secret|session_?id)\s*[=:]\s*)("[^"]*"|[^\s&;,"]+)`)

	// bearerRegex matches HTTP authorization credentials.
	bearerRegex = regexp.MustCompile(`(?i)\b((?:bearer|basic)\s+)[A-Za-z0-9\-._~+/]+=*`)

	// userinfoRegex matches user:password@ in URLs.
	userinfoRegex = regexp.MustCompile(`(://[^/\s:@]+:)[^/\s@]+@`)
)

// Redact masks credentials in line. Everything else is kept byte for byte.
func Redact(line string) string {
	line = secretParamRegex.ReplaceAllString(line, "${1}"+Mask)
	line = bearerRegex.ReplaceAllString(line, "${1}"+Mask)
	line = userinfoRegex.ReplaceAllString(line, "${1}"+Mask+"@")
	return line
}
