// Package headerfilter compiles internal/filter.Info predicate trees
// into parameterized SQL against the article store.
//
// The dominant idiom is hand-built parameterized SQL string assembly
// (JOIN fragment concatenation, bound parameters appended in emission
// order) rather than a query builder library -- the same shape is
// reused here for filter.Info -> SqlCond compilation.
package headerfilter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropic-test/panengine/internal/filter"
)

// SqlCond is one leaf's contribution to a compiled query: an optional
// JOIN fragment, the WHERE-clause text it contributes (already
// parameter-substituted with "?"), and the bind parameters for those
// placeholders in emission order.
type SqlCond struct {
	Join  string
	Where string
	Args  []any
}

var crosspostCountPattern = regexp.MustCompile(`^\(\.\*:\)\{(\d+)\}$`)

// Compile turns in into a combined boolean WHERE expression plus the
// ordered sequence of leaf SqlCond records whose Joins the caller must
// concatenate (duplicates tolerated) and whose Args must be bound in
// order.
func Compile(in *filter.Info) (expr string, conds []SqlCond) {
	if in == nil {
		return "TRUE", nil
	}
	expr, conds = compileNode(in)
	return expr, conds
}

func compileNode(in *filter.Info) (string, []SqlCond) {
	var expr string
	var conds []SqlCond

	switch in.Kind {
	case filter.KindAggregateAnd, filter.KindAggregateOr:
		if len(in.Children) == 0 {
			expr = "TRUE"
			break
		}
		op := " OR "
		if in.Kind == filter.KindAggregateAnd {
			op = " AND "
		}
		parts := make([]string, 0, len(in.Children))
		for _, c := range in.Children {
			ce, cc := compileNode(c)
			parts = append(parts, ce)
			conds = append(conds, cc...)
		}
		expr = "(" + strings.Join(parts, op) + ")"

	case filter.KindIsBinary, filter.KindIsCached:
		expr, conds = leaf("article.cached = TRUE", nil, "")

	case filter.KindIsPostedByMe:
		expr, conds = leaf("article.posted_by_me = TRUE", nil, "")

	case filter.KindIsRead:
		expr, conds = leaf("article.is_read = TRUE", nil, "")

	case filter.KindIsUnread:
		expr, conds = leaf("article.is_read = FALSE", nil, "")

	case filter.KindByteCountGe:
		expr, conds = leaf(
			"(SELECT SUM(size) FROM article_part WHERE article_id = article.id) >= ?",
			[]any{in.N}, "")

	case filter.KindLineCountGe:
		expr, conds = leaf("article.lines >= ?", []any{in.N}, "")

	case filter.KindCrosspostCountGe:
		expr, conds = leaf(
			"(SELECT COUNT(*) FROM article_group WHERE article_id = article.id) >= ?",
			[]any{in.N}, "")

	case filter.KindDaysOldGe:
		expr, conds = leaf(
			"(julianday('now') - julianday(article.posted_at)) >= ?",
			[]any{in.N}, "")

	case filter.KindScoreGe:
		expr, conds = leaf("article.score >= ?", []any{in.N}, "")

	case filter.KindText:
		if in.NeedsBody() {
			expr, conds = leaf("article.cached = TRUE", nil, "")
			break
		}
		expr, conds = compileText(in.Header, in.Match)
	}

	if in.Negate {
		expr = "NOT (" + expr + ")"
	}
	return expr, conds
}

func leaf(where string, args []any, join string) (string, []SqlCond) {
	return where, []SqlCond{{Join: join, Where: where, Args: args}}
}

// compileText implements the per-header SQL mapping.
func compileText(header string, m filter.TextMatch) (string, []SqlCond) {
	switch header {
	case "Newsgroups":
		where := "EXISTS (SELECT 1 FROM article_group ag JOIN \"group\" grp ON grp.id = ag.group_id WHERE ag.article_id = article.id AND " +
			columnMatchFragment("grp.name", m) + ")"
		args := columnMatchArgs(m)
		expr := where
		if m.Negate {
			expr = "NOT (" + expr + ")"
		}
		return expr, []SqlCond{{Where: where, Args: args}}

	case "Xref":
		return compileXref(m)

	default:
		col := columnFor(header)
		where := columnMatchFragment(col, m)
		args := columnMatchArgs(m)
		expr := where
		if m.Negate {
			expr = "NOT (" + expr + ")"
		}
		return expr, []SqlCond{{Where: where, Args: args}}
	}
}

// compileXref implements the three Xref sub-cases.
func compileXref(m filter.TextMatch) (string, []SqlCond) {
	if mt := crosspostCountPattern.FindStringSubmatch(m.Text); mt != nil {
		n := mt[1]
		leafExpr, conds := leaf(
			fmt.Sprintf("(SELECT COUNT(*) FROM article_group WHERE article_id = article.id) >= %s", n),
			nil, "")
		if m.Negate {
			leafExpr = "NOT (" + leafExpr + ")"
		}
		return leafExpr, conds
	}

	if m.Kind == filter.MatchContains {
		where := "EXISTS (SELECT 1 FROM article_group ag JOIN \"group\" grp ON grp.id = ag.group_id WHERE ag.article_id = article.id AND " +
			columnMatchFragment("grp.name", m) + ")"
		expr := where
		if m.Negate {
			expr = "NOT (" + expr + ")"
		}
		return expr, []SqlCond{{Where: where, Args: columnMatchArgs(m)}}
	}

	// Fall back to a correlated subquery reconstructing a
	// server-qualified Xref string, matched as free text.
	where := columnMatchFragment(
		"(SELECT group_concat(s.hostname || ' ' || grp.name || ':' || ag.article_num, ' ') "+
			"FROM article_group ag JOIN \"group\" grp ON grp.id = ag.group_id "+
			"JOIN server s ON s.id = ag.server_id WHERE ag.article_id = article.id)",
		m)
	expr := where
	if m.Negate {
		expr = "NOT (" + expr + ")"
	}
	return expr, []SqlCond{{Where: where, Args: columnMatchArgs(m)}}
}

func columnFor(header string) string {
	switch header {
	case "Subject":
		return "article.subject"
	case "From":
		return "article.from_header"
	case "Message-ID":
		return "article.message_id"
	case "References":
		return `article."references"`
	default:
		return fmt.Sprintf("article.%s", strings.ToLower(header))
	}
}

// columnMatchFragment renders the column-comparison fragment for a
// given TextMatch.Kind, applying COLLATE NOCASE for case-insensitive
// comparisons.
func columnMatchFragment(col string, m filter.TextMatch) string {
	c := col
	if !m.CaseSensitive {
		c = col + " COLLATE NOCASE"
	}
	switch m.Kind {
	case filter.MatchIs:
		return c + " = ?"
	case filter.MatchBeginsWith:
		return c + " LIKE ? || '%'"
	case filter.MatchEndsWith:
		return c + " LIKE '%' || ?"
	case filter.MatchRegex:
		return col + " REGEXP ?"
	default: // MatchContains
		return c + " LIKE '%' || ? || '%'"
	}
}

func columnMatchArgs(m filter.TextMatch) []any {
	return []any{m.Text}
}
