package article

import (
	"regexp"
	"time"

	"github.com/anthropic-test/panengine/internal/quark"
)

// PartState is the derived completeness state of a (possibly multipart)
// Article.
type PartState int

const (
	// Single is a non-multipart article, or one downgraded to single by
	// the reply-leader heuristic below.
	Single PartState = iota
	// Incomplete means at least one part slot has not yet been
	// downloaded.
	Incomplete
	// Complete means every part slot in Parts is filled.
	Complete
)

// Article is the compact in-memory representation of a Usenet article's
// metadata, parts and cross-reference set.
//
// Invariants: MessageID is non-empty and unique within a group;
// Parts.Found() <= Parts.Total; a binary article has Parts.Total >= 1.
type Article struct {
	MessageID  quark.Quark
	Author     quark.Quark
	Subject    quark.Quark
	TimePosted time.Time
	Lines      uint32
	Score      int32
	IsBinary   bool
	Xref       Xref
	Parts      Parts
}

// replyLeader matches a case-insensitive "Re: " prefix.
var replyLeader = regexp.MustCompile(`(?i)^re:\s*`)

// partCountPattern matches an explicit "(n/m)" style part marker, which
// is evidence the subject genuinely names a multipart binary rather than
// being a short conversational reply that happens to share a subject
// line with one.
var partCountPattern = regexp.MustCompile(`\(\s*\d+\s*/\s*\d+\s*\)`)

// shortSubjectThreshold is the length, in runes, below which a reply
// subject with no explicit part-count marker is treated as a follow-up
// conversation rather than a continuation of the binary post itself.
const shortSubjectThreshold = 40

// PartState computes the derived PartState for this article:
// non-binary articles and those with no parts tracked are Single; any
// unfilled slot is Incomplete; otherwise Complete. A reply leader
// ("Re: ", case-insensitive) on a short multipart subject with no
// explicit part-count marker downgrades the result to Single -- this is
// the heuristic for follow-up conversations quoting a binary post's
// subject line rather than being a continuation part of it.
func (a *Article) PartState() PartState {
	if !a.IsBinary {
		return Single
	}
	if a.Parts.Len() == 0 {
		return Single
	}

	subj := a.Subject.String()
	if replyLeader.MatchString(subj) {
		stripped := replyLeader.ReplaceAllString(subj, "")
		if len([]rune(stripped)) < shortSubjectThreshold && !partCountPattern.MatchString(stripped) {
			return Single
		}
	}

	for i := 0; i < a.Parts.Len(); i++ {
		if len(a.Parts.At(i).Packed) == 0 {
			return Incomplete
		}
	}
	if a.Parts.Found() < int(a.Parts.Total) {
		return Incomplete
	}
	return Complete
}

// IsValid reports whether the article satisfies its structural
// invariants. It does not check store-level uniqueness (that is the
// ArticleStore's responsibility).
func (a *Article) IsValid() bool {
	if a.MessageID.Empty() {
		return false
	}
	if a.Parts.Found() > int(a.Parts.Total) {
		return false
	}
	if a.IsBinary && a.Parts.Total < 1 {
		return false
	}
	return true
}
