package dispatcher

import (
	"net/url"
	"strings"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/tidwall/gjson"
)

// CompletionRule identifies create responses whose resource is still being
// processed server side.
//
// A response to a create at CreatePath is pending when its body has a
// non-empty "id" and MarkerField is missing or null. The resource is then
// polled at FetchBase + "/" + id.
type CompletionRule struct {
	CreatePath  string
	MarkerField string
	// FetchBase defaults to CreatePath.
	FetchBase string
}

// DefaultCompletionRules covers asynchronous media uploads.
func DefaultCompletionRules() []CompletionRule {
	return []CompletionRule{{
		CreatePath:  constants.MediaCreatePath,
		MarkerField: constants.MediaCompletionField,
	}}
}

// matches reports whether the rule applies to actionPath, which may be a
// relative path or an absolute URL.
func (r CompletionRule) matches(actionPath string) bool {
	path := actionPath

	if parsed, err := url.Parse(actionPath); err == nil && parsed.Path != "" {
		path = parsed.Path
	}

	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(r.CreatePath, "/")
}

// fetchPath returns where to poll for the created resource, or false when
// body already carries the completion marker.
func (r CompletionRule) fetchPath(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}

	id := gjson.GetBytes(body, "id")
	if !id.Exists() || id.String() == "" {
		return "", false
	}

	marker := r.MarkerField
	if marker == "" {
		marker = constants.MediaCompletionField
	}

	if value := gjson.GetBytes(body, marker); value.Exists() && value.Type != gjson.Null {
		return "", false
	}

	base := r.FetchBase
	if base == "" {
		base = r.CreatePath
	}

	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(id.String()), true
}

// pendingFetchPath applies the first rule matching actionPath.
func pendingFetchPath(rules []CompletionRule, actionPath string, body []byte) (string, bool) {
	for _, rule := range rules {
		if rule.matches(actionPath) {
			return rule.fetchPath(body)
		}
	}

	return "", false
}
