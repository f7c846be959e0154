package filter

import "testing"

type fakeArticle struct {
	byteCount, lineCount, crosspostCount, daysOld, score int64
	isBinary, isCached, isPostedByMe, isRead              bool
	headers                                               map[string]string
}

func (f fakeArticle) ByteCount() int64      { return f.byteCount }
func (f fakeArticle) LineCount() int64      { return f.lineCount }
func (f fakeArticle) CrosspostCount() int64 { return f.crosspostCount }
func (f fakeArticle) DaysOld() int64        { return f.daysOld }
func (f fakeArticle) Score() int64          { return f.score }
func (f fakeArticle) IsBinary() bool        { return f.isBinary }
func (f fakeArticle) IsCached() bool        { return f.isCached }
func (f fakeArticle) IsPostedByMe() bool    { return f.isPostedByMe }
func (f fakeArticle) IsRead() bool          { return f.isRead }
func (f fakeArticle) Header(name string) (string, bool) {
	v, ok := f.headers[name]
	return v, ok
}

func TestEvalByteCountGe(t *testing.T) {
	a := fakeArticle{byteCount: 1000}
	if !Eval(ByteCountGe(1000), a) {
		t.Fatalf("expected 1000 >= 1000")
	}
	if Eval(ByteCountGe(1001), a) {
		t.Fatalf("expected 1000 < 1001 to fail")
	}
}

func TestEvalLeHelper(t *testing.T) {
	a := fakeArticle{byteCount: 500}
	if !Eval(Le(ByteCountGe, 500), a) {
		t.Fatalf("expected 500 <= 500")
	}
	a2 := fakeArticle{byteCount: 501}
	if Eval(Le(ByteCountGe, 500), a2) {
		t.Fatalf("expected 501 <= 500 to fail")
	}
}

func TestEvalAggregateAndOr(t *testing.T) {
	a := fakeArticle{isBinary: true, isCached: false}
	and := AggregateAnd(false, IsBinary(), IsCached())
	if Eval(and, a) {
		t.Fatalf("expected AND to fail when one child is false")
	}
	or := AggregateOr(false, IsBinary(), IsCached())
	if !Eval(or, a) {
		t.Fatalf("expected OR to succeed when one child is true")
	}
}

func TestEvalEmptyAggregates(t *testing.T) {
	a := fakeArticle{}
	if !Eval(AggregateOr(false), a) {
		t.Fatalf("expected empty OR-aggregate to evaluate TRUE")
	}
	if !Eval(AggregateAnd(false), a) {
		t.Fatalf("expected empty AND-aggregate to evaluate TRUE")
	}
}

func TestEvalNegate(t *testing.T) {
	a := fakeArticle{isRead: true}
	if Eval(&Info{Kind: KindIsRead, Negate: true}, a) {
		t.Fatalf("expected negated IsRead to fail on a read article")
	}
}

func TestEvalTextMatchKinds(t *testing.T) {
	a := fakeArticle{headers: map[string]string{"Subject": "Hello World"}}
	cases := []struct {
		m    TextMatch
		want bool
	}{
		{TextMatch{Kind: MatchIs, Text: "Hello World"}, true},
		{TextMatch{Kind: MatchContains, Text: "lo Wo"}, true},
		{TextMatch{Kind: MatchBeginsWith, Text: "Hello"}, true},
		{TextMatch{Kind: MatchEndsWith, Text: "World"}, true},
		{TextMatch{Kind: MatchRegex, Text: "^Hello.*d$"}, true},
		{TextMatch{Kind: MatchIs, Text: "hello world", CaseSensitive: true}, false},
		{TextMatch{Kind: MatchIs, Text: "hello world"}, true},
	}
	for i, c := range cases {
		if got := Eval(Text("Subject", c.m), a); got != c.want {
			t.Errorf("case %d: got %v want %v", i, got, c.want)
		}
	}
}

func TestNeedsBody(t *testing.T) {
	if (&Info{Kind: KindText, Header: "Subject"}).NeedsBody() {
		t.Fatalf("Subject is a fixed header, should not need body")
	}
	if !(&Info{Kind: KindText, Header: "X-Custom"}).NeedsBody() {
		t.Fatalf("non-fixed header should need body")
	}
	tree := AggregateAnd(false, Text("Subject", TextMatch{}), Text("X-Custom", TextMatch{}))
	if !tree.NeedsBody() {
		t.Fatalf("aggregate containing a body-needing child should need body")
	}
}

func TestNormalizeFlattensSingleChildAggregate(t *testing.T) {
	leaf := IsBinary()
	wrapped := AggregateAnd(false, leaf)
	got := Normalize(wrapped)
	if got.Kind != KindIsBinary {
		t.Fatalf("expected single-child aggregate flattened to its child, got kind %v", got.Kind)
	}
}

func TestNormalizeFlattenPropagatesNegate(t *testing.T) {
	leaf := IsBinary()
	wrapped := AggregateAnd(true, leaf)
	got := Normalize(wrapped)
	if got.Kind != KindIsBinary || !got.Negate {
		t.Fatalf("expected flattened child to carry aggregate's negate, got %+v", got)
	}
}

