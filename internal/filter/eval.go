package filter

// ArticleView is the read-only surface a filter.Info tree evaluates
// against. internal/store's concrete article rows implement it so that
// internal/headerfilter's SQL compilation and this in-memory evaluator
// stay provably equivalent.
type ArticleView interface {
	ByteCount() int64
	LineCount() int64
	CrosspostCount() int64
	DaysOld() int64
	Score() int64
	IsBinary() bool
	IsCached() bool
	IsPostedByMe() bool
	IsRead() bool
	Header(name string) (string, bool)
}

// Eval recursively interprets in against a, the reference semantics
// that internal/headerfilter's compiled SQL must agree with.
func Eval(in *Info, a ArticleView) bool {
	if in == nil {
		return true
	}
	var result bool
	switch in.Kind {
	case KindAggregateAnd:
		result = true
		for _, c := range in.Children {
			if !Eval(c, a) {
				result = false
				break
			}
		}
	case KindAggregateOr:
		// An empty OR-aggregate evaluates to TRUE, matching the
		// empty-WHERE-fragment SQL the compiler emits for it.
		result = len(in.Children) == 0
		for _, c := range in.Children {
			if Eval(c, a) {
				result = true
				break
			}
		}
	case KindIsBinary:
		result = a.IsBinary()
	case KindIsCached:
		result = a.IsCached()
	case KindIsPostedByMe:
		result = a.IsPostedByMe()
	case KindIsRead:
		result = a.IsRead()
	case KindIsUnread:
		result = !a.IsRead()
	case KindByteCountGe:
		result = a.ByteCount() >= in.N
	case KindLineCountGe:
		result = a.LineCount() >= in.N
	case KindCrosspostCountGe:
		result = a.CrosspostCount() >= in.N
	case KindDaysOldGe:
		result = a.DaysOld() >= in.N
	case KindScoreGe:
		result = a.Score() >= in.N
	case KindText:
		value, _ := a.Header(in.Header)
		result = in.Match.Matches(value)
	}
	if in.Negate {
		return !result
	}
	return result
}
