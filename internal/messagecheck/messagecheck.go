// Package messagecheck implements the pre-post linting pass: a policy
// check run on an outgoing article before it reaches
// Socket.write_command, producing a tri-valued Goodness and a set of
// user-visible diagnostics.
//
// Standard library only (regexp, strings): the checks are pure text
// analysis over a body the caller already holds in memory, with no
// outgoing I/O of its own.
package messagecheck

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropic-test/panengine/internal/gnksa"
	"github.com/anthropic-test/panengine/internal/textutil"
)

// Goodness is the tri-valued outcome of a Check.
type Goodness int

const (
	Ok Goodness = iota
	Warn
	Refuse
)

func (g Goodness) String() string {
	switch g {
	case Warn:
		return "Warn"
	case Refuse:
		return "Refuse"
	default:
		return "Ok"
	}
}

// worse returns the more severe of g and other.
func (g Goodness) worse(other Goodness) Goodness {
	if other > g {
		return other
	}
	return g
}

const (
	maxLineLength    = 80
	maxSignatureLines = 4
	quotedRatioFloor  = 0.20
)

// Input is the subset of an outgoing article MessageCheck inspects.
type Input struct {
	Subject            string
	From               string
	Body               string
	IsHTML             bool
	BinPost            bool
	References         string
	Newsgroups         []string
	FollowupTo         string
	ToRecipients       []string
	GroupsOurServerHas map[string]bool
}

// Result is the outcome of Check: the worst Goodness observed across
// all rules, plus every diagnostic message that contributed to it.
type Result struct {
	Goodness Goodness
	Errors   []string
}

func (r *Result) add(g Goodness, msg string) {
	r.Goodness = r.Goodness.worse(g)
	r.Errors = append(r.Errors, msg)
}

var attributionLine = regexp.MustCompile(`(?i)^.*\bwrote:\s*$`)

// Check runs every policy rule against in and returns the accumulated
// Result.
func Check(in Input) Result {
	var r Result

	if strings.TrimSpace(in.Subject) == "" {
		r.add(Refuse, "Refuse: Subject is empty.")
	}

	if gnksa.CheckFrom(in.From, true) != gnksa.Ok {
		r.add(Warn, "Warning: From address failed strict validation.")
	}

	if in.IsHTML && !in.BinPost {
		r.add(Warn, "Warning: HTML body on Usenet.")
	}

	qs := textutil.DefaultQuoteSet()
	sigIdx := gnksa.FindSignatureDelimiter(in.Body)
	bodyLines := strings.Split(in.Body, "\n")

	var mainLines []string
	if sigIdx >= 0 {
		mainLines = bodyLines[:sigIdx]
	} else {
		mainLines = bodyLines
	}

	if isAllWhitespace(mainLines) {
		r.add(Refuse, "Refuse: body is empty.")
	}

	checkLineLengths(&r, mainLines)
	checkSignature(&r, bodyLines, sigIdx)
	checkQuoting(&r, mainLines, qs)
	checkTopPost(&r, mainLines, in.References, qs)
	checkGroups(&r, in.Newsgroups, in.FollowupTo, in.GroupsOurServerHas)
	checkRecipients(&r, in.Newsgroups, in.ToRecipients)

	return r
}

func isAllWhitespace(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

func checkLineLengths(r *Result, lines []string) {
	count := 0
	for _, l := range lines {
		if len([]rune(l)) > maxLineLength {
			count++
		}
	}
	if count > 0 {
		r.add(Warn, fmt.Sprintf("Warning: %d line(s) exceed %d characters.", count, maxLineLength))
	}
}

func checkSignature(r *Result, bodyLines []string, sigIdx int) {
	if sigIdx < 0 {
		return
	}
	delimLine := strings.TrimSuffix(bodyLines[sigIdx], "\r")
	if gnksa.IsSignatureDelimiter(delimLine) == gnksa.NonStandardDelimiter {
		r.add(Warn, "Warning: signature delimiter is non-standard.")
	}

	sigBody := bodyLines[sigIdx+1:]
	if isAllWhitespace(sigBody) {
		r.add(Warn, "Warning: signature delimiter present but signature body is missing.")
		return
	}

	nonEmpty := 0
	for _, l := range sigBody {
		if strings.TrimSpace(l) == "" {
			continue
		}
		nonEmpty++
		if len([]rune(l)) > maxLineLength {
			r.add(Warn, "Warning: signature line exceeds 80 characters.")
		}
	}
	if nonEmpty > maxSignatureLines {
		r.add(Warn, fmt.Sprintf("Warning: signature exceeds %d lines.", maxSignatureLines))
	}
}

func checkQuoting(r *Result, mainLines []string, qs textutil.QuoteSet) {
	total, quoted := 0, 0
	for _, l := range mainLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		total++
		if isQuotedLine(l, qs) {
			quoted++
		}
	}
	if total == 0 {
		return
	}

	unquoted := total - quoted
	ratio := float64(unquoted) / float64(total)
	if ratio < quotedRatioFloor {
		if unquoted == 0 {
			r.add(Warn, "Warning: message is entirely quoted text.")
		} else {
			r.add(Warn, "Warning: message is mostly quoted text.")
		}
	}

	if allQuotedAfterAttribution(mainLines, qs) {
		r.add(Refuse, "Refuse: message is entirely quoted with no original content.")
	}
}

// allQuotedAfterAttribution implements the "all-quoted" rule: after
// discounting one attribution line ("... wrote:"), every
// remaining non-empty line must start with a quote character for the
// rule to trigger.
func allQuotedAfterAttribution(lines []string, qs textutil.QuoteSet) bool {
	strippedAttribution := false
	sawAny := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if !strippedAttribution && attributionLine.MatchString(l) {
			strippedAttribution = true
			continue
		}
		sawAny = true
		if !isQuotedLine(l, qs) {
			return false
		}
	}
	return sawAny
}

func isQuotedLine(line string, qs textutil.QuoteSet) bool {
	for _, r := range line {
		return qs.IsQuoteCharacter(r)
	}
	return false
}

// checkTopPost implements the top-post rule: a References header is
// present and some quoted line follows an original (unquoted) line.
func checkTopPost(r *Result, mainLines []string, references string, qs textutil.QuoteSet) {
	if strings.TrimSpace(references) == "" {
		return
	}
	sawOriginal := false
	for _, l := range mainLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if isQuotedLine(l, qs) {
			if sawOriginal {
				r.add(Warn, "Warning: Reply seems to be top-posted.")
				return
			}
			continue
		}
		sawOriginal = true
	}
}

func checkGroups(r *Result, groups []string, followupTo string, known map[string]bool) {
	for _, g := range groups {
		if known != nil && !known[g] {
			r.add(Warn, fmt.Sprintf("Warning: newsgroup %q is not carried by this server.", g))
		}
	}
	n := len(groups)
	switch {
	case n >= 10:
		r.add(Refuse, "Refuse: crosspost to 10 or more newsgroups.")
	case n > 5:
		r.add(Warn, "Warning: crosspost to more than 5 newsgroups.")
	}
	if n > 2 && strings.TrimSpace(followupTo) == "" {
		r.add(Warn, "Warning: crosspost to more than 2 newsgroups without a Followup-To header.")
	}
}

func checkRecipients(r *Result, groups []string, to []string) {
	if len(groups) == 0 && len(to) == 0 {
		r.add(Refuse, "Refuse: no Newsgroups and no recipients.")
	}
}
