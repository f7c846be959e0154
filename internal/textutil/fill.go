package textutil

import "strings"

// DefaultWrapColumn is the default wrap width.
const DefaultWrapColumn = 74

// sigDelimiter marks the start of a signature block; everything from
// this line (inclusive) to the end of the body is excluded from
// rewrapping.
const sigDelimiter = "-- "

type leaderLine struct {
	leader  string
	content string
}

// splitLeader separates a line into its leading run of quote/space
// characters and the remaining content.
func splitLeader(line string, qs QuoteSet) (leader, content string) {
	i := 0
	runes := []rune(line)
	for i < len(runes) {
		r := runes[i]
		if r == ' ' || qs.IsQuoteCharacter(r) {
			i++
			continue
		}
		break
	}
	return string(runes[:i]), string(runes[i:])
}

// Fill re-wraps body at column (DefaultWrapColumn if 0), grouping
// consecutive same-leader lines into paragraphs before rewrapping each
// at the configured width. The signature block (from a line "-- " to the
// end) is left untouched. When flowed is true, paragraph continuation
// follows RFC 3676: a line whose content ends in a single trailing space
// is "soft broken" and continues onto the next line. When flowed is
// false (fixed text), a paragraph break is inferred -- and the lines are
// left unmerged -- when either (a) the previous line's content, plus a
// space and the next line's first word, would already have fit inside
// column (the original break must then have been intentional), or (b)
// the previous line's content does not end in sentence-ending
// punctuation (./!/?). Otherwise the break is treated as mechanical
// word-wrap and the lines are merged into one paragraph.
func Fill(body string, flowed bool, column int, qs QuoteSet) string {
	if column <= 0 {
		column = DefaultWrapColumn
	}
	main, sig := splitSignature(body)

	rawLines := strings.Split(main, "\n")
	// strings.Split on a trailing "\n" yields a final "" element; track
	// it so we can restore exactly one trailing newline at the end.
	trailingNewline := len(rawLines) > 0 && rawLines[len(rawLines)-1] == ""
	if trailingNewline {
		rawLines = rawLines[:len(rawLines)-1]
	}

	paras := groupParagraphs(rawLines, qs, flowed, column)

	var out []string
	for _, p := range paras {
		out = append(out, wrapParagraph(p.leader, p.content, column)...)
	}

	result := strings.Join(out, "\n")
	if trailingNewline || sig != "" {
		result += "\n"
	}
	return result + sig
}

// splitSignature finds the first "-- " line and splits body into the
// rewrappable main text and the untouched signature block (including the
// delimiter line itself).
func splitSignature(body string) (main, sig string) {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.TrimSuffix(l, "\r") == sigDelimiter {
			main = strings.Join(lines[:i], "\n")
			if i > 0 {
				main += "\n"
			}
			sig = strings.Join(lines[i:], "\n")
			return main, sig
		}
	}
	return body, ""
}

type paragraph struct {
	leader  string
	content string
}

func groupParagraphs(rawLines []string, qs QuoteSet, flowed bool, column int) []paragraph {
	var lines []leaderLine
	for _, l := range rawLines {
		leader, content := splitLeader(l, qs)
		lines = append(lines, leaderLine{leader, content})
	}

	var paras []paragraph
	i := 0
	for i < len(lines) {
		cur := lines[i]
		if cur.content == "" {
			// Blank lines are always their own paragraph break.
			paras = append(paras, paragraph{cur.leader, ""})
			i++
			continue
		}
		content := cur.content
		j := i + 1
		for j < len(lines) {
			next := lines[j]
			if next.leader != cur.leader || next.content == "" {
				break
			}
			if flowed {
				if !strings.HasSuffix(content, " ") {
					break
				}
				content = content + next.content
			} else {
				if !fixedShouldMerge(content, next.content, column-len([]rune(cur.leader))) {
					break
				}
				content = content + " " + next.content
			}
			j++
		}
		paras = append(paras, paragraph{cur.leader, content})
		i = j
	}
	return paras
}

// fixedShouldMerge implements the fixed-text continuation heuristic
// described above Fill: the break between prevContent and nextContent is
// treated as mechanical word-wrap (and so the lines are merged into one
// paragraph) unless the break looks intentional.
func fixedShouldMerge(prevContent, nextContent, avail int) bool {
	if !endsWithSentencePunctuation(prevContent) {
		return false
	}
	words := strings.Fields(nextContent)
	if len(words) == 0 {
		return true
	}
	firstWord := words[0]
	if len([]rune(prevContent))+1+len([]rune(firstWord)) <= avail {
		return false
	}
	return true
}

func endsWithSentencePunctuation(s string) bool {
	s = strings.TrimRight(s, "\"')]")
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '!' || last == '?'
}

func wrapParagraph(leader, content string, column int) []string {
	if content == "" {
		return []string{leader}
	}
	avail := column - len([]rune(leader))
	if avail < 10 {
		avail = 10
	}
	words := strings.Fields(content)
	if len(words) == 0 {
		return []string{leader}
	}

	var lines []string
	var cur []string
	curLen := 0
	for _, w := range words {
		wLen := len([]rune(w))
		addLen := wLen
		if len(cur) > 0 {
			addLen++ // separating space
		}
		if len(cur) > 0 && curLen+addLen > avail {
			lines = append(lines, leader+strings.Join(cur, " "))
			cur = nil
			curLen = 0
		}
		cur = append(cur, w)
		if len(cur) == 1 {
			curLen = wLen
		} else {
			curLen += addLen
		}
	}
	if len(cur) > 0 {
		lines = append(lines, leader+strings.Join(cur, " "))
	}
	return lines
}

// MuteQuotes collapses each maximal run of lines whose first codepoint is
// a quote character into a single line "> [quoted text muted]".
func MuteQuotes(body string, qs QuoteSet) string {
	lines := strings.Split(body, "\n")
	var out []string
	i := 0
	for i < len(lines) {
		if isQuotedLine(lines[i], qs) {
			for i < len(lines) && isQuotedLine(lines[i], qs) {
				i++
			}
			out = append(out, "> [quoted text muted]")
			continue
		}
		out = append(out, lines[i])
		i++
	}
	return strings.Join(out, "\n")
}

func isQuotedLine(line string, qs QuoteSet) bool {
	r := firstRune(line)
	return r != 0 && qs.IsQuoteCharacter(r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// Rot13InPlace rotates A-Z/a-z bytes by 13, leaving all other bytes
// unchanged.
func Rot13InPlace(b []byte) {
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = 'a' + (c-'a'+13)%26
		case c >= 'A' && c <= 'Z':
			b[i] = 'A' + (c-'A'+13)%26
		}
	}
}
