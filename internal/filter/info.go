// Package filter implements the predicate algebra over articles: a
// tagged-union tree of leaf tests and And/Or aggregates that
// HeaderFilter compiles into SQL and that Scorefile builds from a
// slrn-style grammar.
package filter

// Kind discriminates the Info tagged union.
type Kind int

const (
	KindAggregateAnd Kind = iota
	KindAggregateOr
	KindIsBinary
	KindIsCached
	KindIsPostedByMe
	KindIsRead
	KindIsUnread
	KindByteCountGe
	KindLineCountGe
	KindCrosspostCountGe
	KindDaysOldGe
	KindScoreGe
	KindText
)

// MatchKind discriminates a TextMatch's comparison mode.
type MatchKind int

const (
	MatchContains MatchKind = iota
	MatchIs
	MatchBeginsWith
	MatchEndsWith
	MatchRegex
)

// fixedHeaders is the set of headers HeaderFilter can test without
// reading the cached body.
var fixedHeaders = map[string]bool{
	"Subject":     true,
	"From":        true,
	"Message-ID":  true,
	"Newsgroups":  true,
	"References":  true,
	"Xref":        true,
}

// TextMatch is a single string-comparison test.
type TextMatch struct {
	Kind          MatchKind
	CaseSensitive bool
	Negate        bool
	Text          string
}

// Matches reports whether value satisfies m, honoring Negate.
func (m TextMatch) Matches(value string) bool {
	v, t := value, m.Text
	if !m.CaseSensitive {
		v = lower(v)
		t = lower(t)
	}
	var ok bool
	switch m.Kind {
	case MatchIs:
		ok = v == t
	case MatchBeginsWith:
		ok = hasPrefix(v, t)
	case MatchEndsWith:
		ok = hasSuffix(v, t)
	case MatchRegex:
		ok = regexMatches(value, m.Text, m.CaseSensitive)
	default: // MatchContains
		ok = contains(v, t)
	}
	if m.Negate {
		return !ok
	}
	return ok
}

// Info is one node of the predicate tree. Only the fields relevant to
// Kind are meaningful; see NewXxx constructors below.
type Info struct {
	Kind     Kind
	Negate   bool     // overall negate, meaningful on aggregates and leaves alike
	Children []*Info  // AggregateAnd / AggregateOr
	N        int64    // ByteCountGe / LineCountGe / CrosspostCountGe / DaysOldGe / ScoreGe
	Header   string   // Text
	Match    TextMatch // Text
}

// NeedsBody reports whether evaluating this node (recursively) requires
// the cached article body: true only for Text predicates on a header
// outside the fixed set (IsCached/IsBinary leaves report false).
func (in *Info) NeedsBody() bool {
	if in == nil {
		return false
	}
	switch in.Kind {
	case KindAggregateAnd, KindAggregateOr:
		for _, c := range in.Children {
			if c.NeedsBody() {
				return true
			}
		}
		return false
	case KindText:
		return !fixedHeaders[in.Header]
	default:
		return false
	}
}

// Normalize recursively flattens aggregates with exactly one child into
// that child.
func Normalize(in *Info) *Info {
	if in == nil {
		return nil
	}
	if in.Kind != KindAggregateAnd && in.Kind != KindAggregateOr {
		return in
	}
	children := make([]*Info, 0, len(in.Children))
	for _, c := range in.Children {
		children = append(children, Normalize(c))
	}
	if len(children) == 1 {
		child := children[0]
		if in.Negate {
			return negated(child)
		}
		return child
	}
	return &Info{Kind: in.Kind, Negate: in.Negate, Children: children}
}

// negated returns a copy of in with its top-level sense flipped.
func negated(in *Info) *Info {
	if in == nil {
		return nil
	}
	out := *in
	out.Negate = !in.Negate
	return &out
}

func AggregateAnd(negate bool, children ...*Info) *Info {
	return &Info{Kind: KindAggregateAnd, Negate: negate, Children: children}
}

func AggregateOr(negate bool, children ...*Info) *Info {
	return &Info{Kind: KindAggregateOr, Negate: negate, Children: children}
}

func ByteCountGe(n int64) *Info       { return &Info{Kind: KindByteCountGe, N: n} }
func LineCountGe(n int64) *Info       { return &Info{Kind: KindLineCountGe, N: n} }
func CrosspostCountGe(n int64) *Info  { return &Info{Kind: KindCrosspostCountGe, N: n} }
func DaysOldGe(n int64) *Info         { return &Info{Kind: KindDaysOldGe, N: n} }
func ScoreGe(n int64) *Info           { return &Info{Kind: KindScoreGe, N: n} }
func IsBinary() *Info                 { return &Info{Kind: KindIsBinary} }
func IsCached() *Info                 { return &Info{Kind: KindIsCached} }
func IsPostedByMe() *Info             { return &Info{Kind: KindIsPostedByMe} }
func IsRead() *Info                   { return &Info{Kind: KindIsRead} }
func IsUnread() *Info                 { return &Info{Kind: KindIsUnread} }

func Text(header string, match TextMatch) *Info {
	return &Info{Kind: KindText, Header: header, Match: match}
}

// Le expresses "at most n" as a negated Ge(n+1).
func Le(ge func(int64) *Info, n int64) *Info {
	leaf := ge(n + 1)
	leaf.Negate = true
	return leaf
}
