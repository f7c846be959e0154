// Package scorefile implements a slrn-compatible recursive-descent
// parser that turns a scorefile's sections and rules into
// internal/filter.Info predicate trees.
//
// Section borrows its name from the same named, orderable
// configuration-grouping role used elsewhere for database sections.
// The parser itself is hand-written recursive descent rather than
// built on a grammar library, since slrn's scorefile grammar is small
// and line-oriented enough that a parser generator would add more
// ceremony than it removes.
package scorefile

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropic-test/panengine/internal/filter"
)

// Rule is one scored predicate within a Section.
type Rule struct {
	OriginFile string
	BeginLine  int
	EndLine    int
	Name       string
	Predicate  *filter.Info
	Value      int32
	AssignFlag bool
	Expired    bool
}

// Section groups rules under a group-pattern selector.
type Section struct {
	Name   string
	Negate bool
	Groups []filter.TextMatch
	Rules  []Rule
}

// Matches reports whether groupName satisfies s's group-pattern
// selector: any of its group patterns matches the article's group,
// XOR negate.
func (s *Section) Matches(groupName string) bool {
	any := false
	for _, g := range s.Groups {
		if g.Matches(groupName) {
			any = true
			break
		}
	}
	return any != s.Negate
}

// globToRegex turns an slrn group-pattern glob into an anchored regex:
// "*" => ".*", "." literalized, "+" literalized.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '.':
			b.WriteString(`\.`)
		case '+':
			b.WriteString(`\+`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// ParseGroupPatternList parses a comma-separated, optionally
// "~"-negated, slrn group pattern list into the Groups/Negate pair of a
// Section.
func ParseGroupPatternList(list string) (groups []filter.TextMatch, negate bool) {
	list = strings.TrimSpace(list)
	if strings.HasPrefix(list, "~") {
		negate = true
		list = strings.TrimSpace(list[1:])
	}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		groups = append(groups, filter.TextMatch{
			Kind: filter.MatchRegex,
			Text: globToRegex(part),
		})
	}
	return groups, negate
}

// Parser holds the accumulated state of an in-progress scorefile parse,
// including parsed sections and an Include hook for the "include <path>"
// directive.
type Parser struct {
	Sections []*Section
	Include  func(path string) (string, error)

	curSection *Section
	stack      []*aggFrame
	meta       *ruleMeta
	origin     string
	lineNo     int
}

type aggFrame struct {
	kind     filter.Kind // KindAggregateAnd or KindAggregateOr
	negate   bool
	children []*filter.Info
}

type ruleMeta struct {
	beginLine  int
	name       string
	value      int32
	assignFlag bool
	expired    bool
	hasExpires bool
}

// NewParser returns a Parser with the default os.ReadFile-backed
// Include hook.
func NewParser() *Parser {
	p := &Parser{}
	p.Include = func(path string) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return p
}

// ParseFile reads and parses path (and any files it includes).
func (p *Parser) ParseFile(path string) error {
	content, err := p.Include(path)
	if err != nil {
		return fmt.Errorf("scorefile: reading %s: %w", path, err)
	}
	return p.Parse(path, content)
}

// Parse parses content, attributing diagnostics to originFile.
func (p *Parser) Parse(originFile, content string) error {
	prevOrigin, prevLine := p.origin, p.lineNo
	p.origin = originFile
	defer func() { p.origin, p.lineNo = prevOrigin, prevLine }()

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		p.lineNo++
		if err := p.parseLine(scanner.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", originFile, p.lineNo, err)
		}
	}
	return scanner.Err()
}

// Finish closes any still-open rule/section at end of input. Callers
// parsing a top-level file should call this once after the outermost
// Parse/ParseFile returns.
func (p *Parser) Finish() {
	p.finalizeRule()
	p.finalizeSection()
}

func (p *Parser) parseLine(raw string) error {
	line := strings.TrimRight(raw, "\r")
	trimmed := strings.TrimSpace(line)

	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "#") {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		p.finalizeRule()
		p.finalizeSection()
		groups, negate := ParseGroupPatternList(trimmed[1 : len(trimmed)-1])
		p.curSection = &Section{Groups: groups, Negate: negate}
		return nil
	}
	if strings.HasPrefix(trimmed, "include ") {
		path := strings.TrimSpace(trimmed[len("include "):])
		content, err := p.Include(path)
		if err != nil {
			return fmt.Errorf("include %s: %w", path, err)
		}
		return p.Parse(path, content)
	}
	if strings.HasPrefix(trimmed, "Score::") || strings.HasPrefix(trimmed, "Score:") {
		return p.openRule(trimmed)
	}
	if trimmed == "}" {
		return p.closeAggregate()
	}
	if trimmed == "{:" || trimmed == "{::" {
		p.openAggregate(strings.HasSuffix(trimmed, "::"))
		return nil
	}
	if strings.HasPrefix(trimmed, "Expires:") {
		return p.parseExpires(strings.TrimSpace(trimmed[len("Expires:"):]))
	}
	return p.parseHeaderTest(trimmed)
}

func (p *Parser) openRule(trimmed string) error {
	p.finalizeRule()
	if p.curSection == nil {
		p.curSection = &Section{}
	}

	isAnd := strings.HasPrefix(trimmed, "Score::")
	rest := strings.TrimPrefix(trimmed, "Score::")
	if !isAnd {
		rest = strings.TrimPrefix(trimmed, "Score:")
	}
	rest = strings.TrimSpace(rest)

	name := ""
	if idx := strings.Index(rest, "#"); idx >= 0 {
		name = strings.TrimSpace(rest[idx+1:])
		rest = strings.TrimSpace(rest[:idx])
	}

	assign := false
	if strings.HasPrefix(rest, "=") {
		assign = true
		rest = strings.TrimSpace(rest[1:])
	}
	value, err := strconv.ParseInt(rest, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid score value %q: %w", rest, err)
	}

	kind := filter.KindAggregateOr
	if isAnd {
		kind = filter.KindAggregateAnd
	}
	p.stack = []*aggFrame{{kind: kind}}
	p.meta = &ruleMeta{beginLine: p.lineNo, name: name, value: int32(value), assignFlag: assign}
	return nil
}

func (p *Parser) openAggregate(isAnd bool) {
	kind := filter.KindAggregateOr
	if isAnd {
		kind = filter.KindAggregateAnd
	}
	p.stack = append(p.stack, &aggFrame{kind: kind})
}

func (p *Parser) closeAggregate() error {
	if len(p.stack) < 2 {
		return fmt.Errorf("unmatched '}'")
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	node := &filter.Info{Kind: top.kind, Negate: top.negate, Children: top.children}
	parent := p.stack[len(p.stack)-1]
	parent.children = append(parent.children, node)
	return nil
}

func (p *Parser) parseExpires(value string) error {
	if p.meta == nil {
		return fmt.Errorf("Expires: outside a rule")
	}
	t, err := parseScorefileDate(value)
	if err != nil {
		return fmt.Errorf("invalid Expires date %q: %w", value, err)
	}
	p.meta.hasExpires = true
	p.meta.expired = t.Before(time.Now())
	return nil
}

func parseScorefileDate(value string) (time.Time, error) {
	layouts := []string{"01/02/2006", "02-01-2006"}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func (p *Parser) parseHeaderTest(trimmed string) error {
	if p.meta == nil {
		// Header tests outside any Score: line are meaningless; ignore,
		// matching slrn's tolerant behavior for stray lines.
		return nil
	}
	leaf, err := parseHeaderLeaf(trimmed)
	if err != nil {
		return err
	}
	top := p.stack[len(p.stack)-1]
	top.children = append(top.children, leaf)
	return nil
}

// parseHeaderLeaf parses one "[~]Header:<delim> value" line into a leaf
// filter.Info, applying the scorefile grammar's special-header
// substitutions.
func parseHeaderLeaf(trimmed string) (*filter.Info, error) {
	if idx := strings.Index(trimmed, "#"); idx >= 0 {
		trimmed = strings.TrimRight(trimmed[:idx], " \t")
	}

	negate := false
	if strings.HasPrefix(trimmed, "~") {
		negate = true
		trimmed = strings.TrimSpace(trimmed[1:])
	}

	header, delim, rest, ok := splitHeaderDelim(trimmed)
	if !ok {
		return nil, fmt.Errorf("malformed header test: %q", trimmed)
	}
	caseSensitive := delim == '='
	value := strings.TrimSpace(rest)

	var leaf *filter.Info
	switch strings.ToLower(header) {
	case "lines":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Lines: value %q: %w", value, err)
		}
		leaf = filter.LineCountGe(n + 1)
	case "bytes":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Bytes: value %q: %w", value, err)
		}
		leaf = filter.ByteCountGe(n + 1)
	case "age":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Age: value %q: %w", value, err)
		}
		leaf = filter.DaysOldGe(n + 1)
		leaf.Negate = true
	case "has-body":
		leaf = filter.IsCached()
		if value == "0" {
			leaf.Negate = true
		}
	default:
		leaf = filter.Text(header, filter.TextMatch{
			Kind:          filter.MatchRegex,
			CaseSensitive: caseSensitive,
			Text:          value,
		})
	}
	if negate {
		leaf.Negate = !leaf.Negate
	}
	return leaf, nil
}

// splitHeaderDelim splits "Header:<delim> value" into its header name,
// the delimiter rune (':' or '='), and the remainder.
func splitHeaderDelim(s string) (header string, delim byte, rest string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' || s[i] == '=' {
			return s[:i], s[i], s[i+1:], true
		}
	}
	return "", 0, "", false
}

func (p *Parser) finalizeRule() {
	if p.meta == nil {
		return
	}
	root := p.stack[0]
	predicate := filter.Normalize(&filter.Info{Kind: root.kind, Negate: root.negate, Children: root.children})
	rule := Rule{
		OriginFile: p.origin,
		BeginLine:  p.meta.beginLine,
		EndLine:    p.lineNo,
		Name:       p.meta.name,
		Predicate:  predicate,
		Value:      p.meta.value,
		AssignFlag: p.meta.assignFlag,
		Expired:    p.meta.expired,
	}
	if p.curSection == nil {
		p.curSection = &Section{}
	}
	p.curSection.Rules = append(p.curSection.Rules, rule)
	p.meta = nil
	p.stack = nil
}

func (p *Parser) finalizeSection() {
	if p.curSection == nil {
		return
	}
	p.Sections = append(p.Sections, p.curSection)
	p.curSection = nil
}
