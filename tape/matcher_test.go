package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchRuleMethodAndURL(t *testing.T) {
	assert := assert.New(t)
	rule := MatchRule{}

	recorded := Request{Method: "GET", URL: "http://example.com/things"}

	assert.True(rule.Matches(Request{Method: "get", URL: "http://example.com/things"}, recorded),
		"method comparison is case-insensitive")
	assert.False(rule.Matches(Request{Method: "POST", URL: "http://example.com/things"}, recorded))
	assert.False(rule.Matches(Request{Method: "GET", URL: "http://example.com/Things"}, recorded),
		"URL comparison is case-sensitive")
	assert.False(rule.Matches(Request{Method: "GET", URL: "http://example.com/things?q=1"}, recorded))
}

func TestMatchRuleBodyIgnored(t *testing.T) {
	assert := assert.New(t)
	rule := MatchRule{}

	recorded := Request{Method: "POST", URL: "http://example.com/", Body: []byte("one")}
	live := Request{Method: "POST", URL: "http://example.com/", Body: []byte("two")}

	assert.True(rule.Matches(live, recorded))
}

func TestMatchRuleHeaderSubset(t *testing.T) {
	assert := assert.New(t)
	rule := MatchRule{Headers: []string{"Accept"}}

	recorded := Request{
		Method:  "GET",
		URL:     "http://example.com/",
		Headers: map[string]string{"Accept": "application/json", "X-Extra": "ignored"},
	}

	assert.True(rule.Matches(Request{
		Method:  "GET",
		URL:     "http://example.com/",
		Headers: map[string]string{"accept": "application/json"},
	}, recorded), "header names compare case-insensitively")

	assert.False(rule.Matches(Request{
		Method:  "GET",
		URL:     "http://example.com/",
		Headers: map[string]string{"Accept": "text/html"},
	}, recorded))

	assert.False(rule.Matches(Request{
		Method: "GET",
		URL:    "http://example.com/",
	}, recorded), "missing declared header does not match a recorded value")

	// Headers outside the declared subset never affect the key.
	assert.True(rule.Matches(Request{
		Method:  "GET",
		URL:     "http://example.com/",
		Headers: map[string]string{"Accept": "application/json", "X-Other": "different"},
	}, recorded))
}
