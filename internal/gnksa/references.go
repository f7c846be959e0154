package gnksa

import "strings"

// DefaultReferencesCutoff is the default byte budget for a trimmed
// References: header.
const DefaultReferencesCutoff = 986

// MaxMessageIDLength is the maximum total length (including angle
// brackets) a Message-ID inside References may have before
// RemoveBrokenMessageIDs discards it.
const MaxMessageIDLength = 250

// ParseReferences splits a References header string into individual
// "<local@domain>" tokens, via whitespace splitting with angle brackets
// preserved.
func ParseReferences(refs string) []string {
	if refs == "" {
		return nil
	}
	fields := strings.Fields(refs)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// RemoveBrokenMessageIDs scans <...>-delimited Message-IDs and keeps only
// those with a non-empty local-part (postmaster rejected), non-empty
// domain, total length <= MaxMessageIDLength, and well-formed
// <local@domain> structure.
func RemoveBrokenMessageIDs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !isWellFormedReference(ref) {
			continue
		}
		out = append(out, ref)
	}
	return out
}

func isWellFormedReference(ref string) bool {
	if len(ref) > MaxMessageIDLength {
		return false
	}
	if !strings.HasPrefix(ref, "<") || !strings.HasSuffix(ref, ">") || len(ref) < 3 {
		return false
	}
	addr := ref[1 : len(ref)-1]
	at := strings.IndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	local := addr[:at]
	domain := addr[at+1:]
	if local == "" || domain == "" {
		return false
	}
	if strings.EqualFold(local, "postmaster") {
		return false
	}
	return true
}

// TrimReferences filters out malformed Message-IDs (via
// RemoveBrokenMessageIDs), then drops entries from the middle --
// preserving the first (thread root) and the most recent entries -- until
// the joined, space-separated total is at most cutoff bytes.
func TrimReferences(refs []string, cutoff int) []string {
	clean := RemoveBrokenMessageIDs(refs)
	if joinedLen(clean) <= cutoff {
		return clean
	}
	if len(clean) <= 1 {
		return clean
	}

	kept := append([]string(nil), clean...)
	// Drop from just after the first entry, one at a time, until we fit.
	for joinedLen(kept) > cutoff && len(kept) > 2 {
		kept = append(kept[:1], kept[2:]...)
	}
	// If only the root and the most recent remain and it's still over
	// budget, there's nothing more droppable without violating "keep
	// the first and the most recent."
	return kept
}

func joinedLen(refs []string) int {
	if len(refs) == 0 {
		return 0
	}
	n := len(refs) - 1 // separating spaces
	for _, r := range refs {
		n += len(r)
	}
	return n
}

// GenerateReferences concatenates priorRefs and ownMID (space-separated)
// and applies TrimReferences with the default cutoff.
func GenerateReferences(priorRefs []string, ownMID string) []string {
	all := append(append([]string(nil), priorRefs...), ownMID)
	return TrimReferences(all, DefaultReferencesCutoff)
}
