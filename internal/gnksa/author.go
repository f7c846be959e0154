package gnksa

import "strings"

// GetShortAuthorName extracts a display name suitable for UI from a
// From: field. When the From: parse is ambiguous (no display name could
// be recovered), it falls back to the local-part of the address (the
// text before '@').
func GetShortAuthorName(from string) string {
	from = strings.TrimSpace(from)
	phrase, addr, err := splitFromForm(from)
	if err == Ok && phrase != "" {
		return unquotePhrase(phrase)
	}
	// Fall back to the local-part of whichever address we could parse,
	// or of the raw input if even that failed.
	target := addr
	if target == "" {
		target = from
	}
	if at := strings.IndexByte(target, '@'); at >= 0 {
		return target[:at]
	}
	return target
}

func unquotePhrase(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	if len(phrase) >= 2 && phrase[0] == '"' && phrase[len(phrase)-1] == '"' {
		return phrase[1 : len(phrase)-1]
	}
	return phrase
}
