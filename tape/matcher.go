package tape

import (
	"strings"
)

// MatchRule decides whether a live request and a recorded request refer to
// the same exchange. Methods compare case-insensitively, URLs compare
// case-sensitively, and the declared header subset (if any) must be equal on
// both sides. Bodies are never part of the key.
type MatchRule struct {
	// Headers lists header names that join the match key. Empty means the
	// key is method + URL only.
	Headers []string
}

// Matches reports whether live and recorded carry the same match key.
func (r MatchRule) Matches(live, recorded Request) bool {
	if !strings.EqualFold(live.Method, recorded.Method) {
		return false
	}
	if live.URL != recorded.URL {
		return false
	}
	for _, name := range r.Headers {
		if headerValue(live.Headers, name) != headerValue(recorded.Headers, name) {
			return false
		}
	}
	return true
}

// headerValue looks a name up case-insensitively; header names are not
// case-significant even though the tape stores them verbatim.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
