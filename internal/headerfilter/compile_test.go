package headerfilter

import (
	"strings"
	"testing"

	"github.com/anthropic-test/panengine/internal/filter"
)

func TestCompileTextIs(t *testing.T) {
	expr, conds := Compile(filter.Text("Subject", filter.TextMatch{Kind: filter.MatchIs, Text: "hello"}))
	if !strings.Contains(expr, "article.subject") || !strings.Contains(expr, "= ?") {
		t.Fatalf("unexpected expr: %q", expr)
	}
	if len(conds) != 1 || conds[0].Args[0] != "hello" {
		t.Fatalf("unexpected conds: %+v", conds)
	}
}

func TestCompileTextContains(t *testing.T) {
	expr, _ := Compile(filter.Text("Subject", filter.TextMatch{Kind: filter.MatchContains, Text: "foo"}))
	if !strings.Contains(expr, "LIKE '%' || ? || '%'") {
		t.Fatalf("unexpected contains fragment: %q", expr)
	}
}

func TestCompileTextBeginsEnds(t *testing.T) {
	begins, _ := Compile(filter.Text("Subject", filter.TextMatch{Kind: filter.MatchBeginsWith, Text: "foo"}))
	if !strings.Contains(begins, "LIKE ? || '%'") {
		t.Fatalf("unexpected begins-with fragment: %q", begins)
	}
	ends, _ := Compile(filter.Text("Subject", filter.TextMatch{Kind: filter.MatchEndsWith, Text: "foo"}))
	if !strings.Contains(ends, "LIKE '%' || ?") {
		t.Fatalf("unexpected ends-with fragment: %q", ends)
	}
}

func TestCompileTextRegex(t *testing.T) {
	expr, _ := Compile(filter.Text("Subject", filter.TextMatch{Kind: filter.MatchRegex, Text: "^foo"}))
	if !strings.Contains(expr, "REGEXP ?") {
		t.Fatalf("unexpected regex fragment: %q", expr)
	}
}

func TestCompileNegateWraps(t *testing.T) {
	leaf := filter.Text("Subject", filter.TextMatch{Kind: filter.MatchIs, Text: "x"})
	leaf.Negate = true
	expr, _ := Compile(leaf)
	if !strings.HasPrefix(expr, "NOT (") {
		t.Fatalf("expected NOT(...) wrap, got %q", expr)
	}
}

func TestCompileByteCountGe(t *testing.T) {
	expr, conds := Compile(filter.ByteCountGe(500))
	want := "(SELECT SUM(size) FROM article_part WHERE article_id = article.id) >= ?"
	if expr != want {
		t.Fatalf("got %q want %q", expr, want)
	}
	if conds[0].Args[0] != int64(500) {
		t.Fatalf("unexpected args: %+v", conds[0].Args)
	}
}

func TestCompileCrosspostCountGe(t *testing.T) {
	expr, _ := Compile(filter.CrosspostCountGe(3))
	want := "(SELECT COUNT(*) FROM article_group WHERE article_id = article.id) >= ?"
	if expr != want {
		t.Fatalf("got %q want %q", expr, want)
	}
}

func TestCompileIsBinaryIsCachedShortCircuit(t *testing.T) {
	for _, in := range []*filter.Info{filter.IsBinary(), filter.IsCached()} {
		expr, _ := Compile(in)
		if expr != "article.cached = TRUE" {
			t.Fatalf("expected conservative short-circuit, got %q", expr)
		}
	}
}

func TestCompileTextNeedsBodyShortCircuits(t *testing.T) {
	expr, _ := Compile(filter.Text("X-Custom-Header", filter.TextMatch{Kind: filter.MatchIs, Text: "x"}))
	if expr != "article.cached = TRUE" {
		t.Fatalf("expected conservative short-circuit for non-fixed header, got %q", expr)
	}
}

func TestCompileAggregateOrEmpty(t *testing.T) {
	expr, conds := Compile(filter.AggregateOr(false))
	if expr != "TRUE" {
		t.Fatalf("expected TRUE for empty OR aggregate, got %q", expr)
	}
	if len(conds) != 0 {
		t.Fatalf("expected no conds for empty aggregate")
	}
}

func TestCompileAggregateAndEmpty(t *testing.T) {
	expr, _ := Compile(filter.AggregateAnd(false))
	if expr != "TRUE" {
		t.Fatalf("expected TRUE for empty AND aggregate, got %q", expr)
	}
}

func TestCompileAggregateCombinesChildrenAndOrdersArgs(t *testing.T) {
	tree := filter.AggregateAnd(false,
		filter.Text("Subject", filter.TextMatch{Kind: filter.MatchIs, Text: "a"}),
		filter.Text("From", filter.TextMatch{Kind: filter.MatchIs, Text: "b"}),
	)
	expr, conds := Compile(tree)
	if !strings.Contains(expr, " AND ") {
		t.Fatalf("expected AND-joined expression, got %q", expr)
	}
	if len(conds) != 2 || conds[0].Args[0] != "a" || conds[1].Args[0] != "b" {
		t.Fatalf("unexpected emission order: %+v", conds)
	}
}

func TestCompileCrosspostXrefPattern(t *testing.T) {
	expr, _ := Compile(filter.Text("Xref", filter.TextMatch{Kind: filter.MatchRegex, Text: `(.*:){3}`}))
	if !strings.Contains(expr, "COUNT(*)") || !strings.Contains(expr, ">= 3") {
		t.Fatalf("expected crosspost-count rewrite, got %q", expr)
	}
}

func TestCompileNewsgroupsExists(t *testing.T) {
	expr, conds := Compile(filter.Text("Newsgroups", filter.TextMatch{Kind: filter.MatchContains, Text: "alt.test"}))
	if !strings.Contains(expr, "EXISTS") || !strings.Contains(expr, `"group"`) {
		t.Fatalf("expected EXISTS/group join fragment, got %q", expr)
	}
	if conds[0].Args[0] != "alt.test" {
		t.Fatalf("unexpected args: %+v", conds[0].Args)
	}
}
