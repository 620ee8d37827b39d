// Package classify maps raw executor diagnostics to human-readable messages.
//
// Classification is a total, deterministic function of the input string:
// an ordered rule table is scanned top to bottom and the first matching
// rule wins. Text matching no rule passes through verbatim so that no
// diagnostic is ever hidden behind a failed lookup.
package classify

import (
	"regexp"
	"strings"

	"taskline/internal/event"
)

type rule struct {
	pattern *regexp.Regexp
	message string
	hint    event.ActionHintType
}

// rules is evaluated in declared order. Keep specific failures above the
// generic server-error catch-alls.
var rules = []rule{
	{
		pattern: regexp.MustCompile(`(?i)invalid (api |x-api-)?key|401|unauthorized|authentication[ _]error`),
		message: "Authentication failed — check your API key in settings.",
		hint:    event.HintOpenSettings,
	},
	{
		pattern: regexp.MustCompile(`(?i)403|forbidden|permission[ _](denied|error)`),
		message: "Permission denied — your credentials do not allow this.",
	},
	{
		pattern: regexp.MustCompile(`(?i)429|too many requests|rate[ _-]?limit`),
		message: "Rate limited — wait a moment and try again.",
	},
	{
		pattern: regexp.MustCompile(`(?i)quota exceeded|usage limit|monthly limit`),
		message: "Usage quota exceeded — check your plan limits.",
	},
	{
		pattern: regexp.MustCompile(`(?i)402|payment required|billing`),
		message: "Billing problem — check your payment settings.",
		hint:    event.HintOpenSettings,
	},
	{
		pattern: regexp.MustCompile(`(?i)credit balance|insufficient credit`),
		message: "Credit balance too low — top up your account to continue.",
		hint:    event.HintOpenSettings,
	},
	{
		pattern: regexp.MustCompile(`(?i)context[ _-]?(length|window)|token limit|maximum.*tokens|prompt is too long`),
		message: "The conversation no longer fits the model's context window.",
	},
	{
		pattern: regexp.MustCompile(`(?i)connection refused`),
		message: "Could not reach the server — connection refused.",
	},
	{
		pattern: regexp.MustCompile(`(?i)timed? ?out|deadline exceeded`),
		message: "The request timed out — the server took too long to respond.",
	},
	{
		pattern: regexp.MustCompile(`(?i)no such host|dns|name resolution`),
		message: "Could not resolve the server address — check your network.",
	},
	{
		pattern: regexp.MustCompile(`(?i)\btls\b|certificate|x509`),
		message: "Secure connection failed — certificate problem.",
	},
	{
		pattern: regexp.MustCompile(`(?i)529|overloaded`),
		message: "The service is overloaded — try again shortly.",
	},
	{
		pattern: regexp.MustCompile(`(?i)503|service unavailable`),
		message: "The service is temporarily unavailable — try again shortly.",
	},
	{
		pattern: regexp.MustCompile(`(?i)50[024]|internal server error|bad gateway`),
		message: "The server hit an internal problem — try again.",
	},
}

// Classify returns the human message for a raw diagnostic, or the raw text
// unchanged when it is empty or matches no rule.
func Classify(raw string) string {
	if raw == "" {
		return raw
	}
	for _, r := range rules {
		if r.pattern.MatchString(raw) {
			return r.message
		}
	}
	return raw
}

// Hint resolves the remediation hint for a diagnostic. An explicit hint
// carried by the event wins over the rule-table fallback; either way a
// missing label is filled in from the hint type.
func Hint(raw string, explicit *event.ActionHint) (event.ActionHint, bool) {
	if explicit != nil && explicit.Type != "" {
		hint := *explicit
		if hint.Label == "" {
			hint.Label = HintLabel(hint.Type)
		}
		return hint, true
	}
	if raw == "" {
		return event.ActionHint{}, false
	}
	for _, r := range rules {
		if r.pattern.MatchString(raw) {
			if r.hint == "" {
				return event.ActionHint{}, false
			}
			return event.ActionHint{Type: r.hint, Label: HintLabel(r.hint)}, true
		}
	}
	return event.ActionHint{}, false
}

// HintLabel returns the default affordance label for a hint type.
func HintLabel(t event.ActionHintType) string {
	switch t {
	case event.HintOpenSettings:
		return "open settings"
	case event.HintContinueTask:
		return "continue task"
	default:
		return string(t)
	}
}

// urlPattern matches bare http(s) URLs in diagnostic text.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// Link is one bare URL substring found in a diagnostic, with its byte
// offsets in the scanned text.
type Link struct {
	Start int
	End   int
	URL   string
}

// Linkify returns the bare URLs in text in order of appearance so each
// presenter can bind them without re-scanning. Trailing sentence
// punctuation and unbalanced closing parentheses are not treated as part
// of a URL.
func Linkify(text string) []Link {
	var links []Link
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		for end > start {
			c := text[end-1]
			if strings.IndexByte(".,;:!?", c) >= 0 {
				end--
				continue
			}
			if c == ')' && strings.Count(text[start:end], ")") > strings.Count(text[start:end], "(") {
				end--
				continue
			}
			break
		}
		links = append(links, Link{Start: start, End: end, URL: text[start:end]})
	}
	return links
}
