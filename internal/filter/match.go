package filter

import (
	"regexp"
	"strings"
	"sync"
)

func lower(s string) string        { return strings.ToLower(s) }
func hasPrefix(s, p string) bool   { return strings.HasPrefix(s, p) }
func hasSuffix(s, p string) bool   { return strings.HasSuffix(s, p) }
func contains(s, sub string) bool  { return strings.Contains(s, sub) }

var (
	regexCacheMux sync.Mutex
	regexCache    = map[string]*regexp.Regexp{}
)

// regexMatches evaluates pattern against value, caching the compiled
// form. An invalid pattern never matches rather than panicking, since
// scorefiles are untrusted user input.
func regexMatches(value, pattern string, caseSensitive bool) bool {
	key := pattern
	if !caseSensitive {
		key = "(?i)" + pattern
	}
	regexCacheMux.Lock()
	re, ok := regexCache[key]
	if !ok {
		compiled, err := regexp.Compile(key)
		if err != nil {
			regexCache[key] = nil
		} else {
			regexCache[key] = compiled
		}
		re = regexCache[key]
	}
	regexCacheMux.Unlock()
	if re == nil {
		return false
	}
	return re.MatchString(value)
}
