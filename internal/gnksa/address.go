package gnksa

import "strings"

// localAtext is the set of unquoted local-part characters RFC 5322's
// atext grammar allows outside dot-separated quoted words.
const localAtext = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&'*+-/=?^_`{|}~"

// CheckFrom validates a Usenet From: field, which may take one of three
// forms:
//
//	"Display Name <local@domain>"   (angle-addr form)
//	"local@domain (Display Name)"   (paren-phrase form)
//	"local@domain"                  (bare address, no display name)
//
// In strict mode, characters outside the unquoted atext grammar are
// rejected in the local part.
func CheckFrom(from string, strict bool) Error {
	from = strings.TrimSpace(from)

	phrase, addr, err := splitFromForm(from)
	if err != Ok {
		return err
	}
	if err := validatePhrase(phrase); err != Ok {
		return err
	}
	return checkAddrSpec(addr, strict)
}

// CheckMessageID validates a bare <local@domain> Message-ID against the
// same local-part/domain grammar as CheckFrom.
func CheckMessageID(mid string) Error {
	mid = strings.TrimSpace(mid)
	if !strings.HasPrefix(mid, "<") {
		return LangleMissing
	}
	if !strings.HasSuffix(mid, ">") {
		return RangleMissing
	}
	addr := mid[1 : len(mid)-1]
	return checkAddrSpec(addr, true)
}

// splitFromForm recognizes the angle-addr and paren-phrase forms and
// returns the (possibly empty) display-name phrase and the raw addr-spec.
func splitFromForm(from string) (phrase, addr string, err Error) {
	if lt := strings.IndexByte(from, '<'); lt >= 0 {
		gt := strings.IndexByte(from[lt:], '>')
		if gt < 0 {
			return "", "", RangleMissing
		}
		gt += lt
		phrase = strings.TrimSpace(from[:lt])
		addr = from[lt+1 : gt]
		return phrase, addr, Ok
	}
	if strings.Contains(from, ">") && !strings.Contains(from, "<") {
		return "", "", LangleMissing
	}

	if lp := strings.LastIndexByte(from, '('); lp >= 0 {
		rp := strings.LastIndexByte(from, ')')
		if rp < 0 {
			return "", "", RparenMissing
		}
		if rp < lp {
			return "", "", LparenMissing
		}
		addr = strings.TrimSpace(from[:lp])
		phrase = from[lp+1 : rp]
		return phrase, addr, Ok
	}
	if strings.Contains(from, ")") {
		return "", "", LparenMissing
	}

	return "", from, Ok
}

func validatePhrase(phrase string) Error {
	if phrase == "" {
		return Ok
	}
	if strings.HasPrefix(phrase, "(") || strings.HasSuffix(phrase, ")") {
		// leftover parens inside what should already be a bare phrase
		for _, c := range phrase {
			if c == '(' || c == ')' {
				return IllegalParenChar
			}
		}
	}
	for _, c := range phrase {
		if c < 0x20 && c != '\t' {
			return IllegalPlainPhrase
		}
	}
	return Ok
}

func checkAddrSpec(addr string, strict bool) Error {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return AtsignMissing
	}
	local := addr[:at]
	domain := addr[at+1:]

	if local == "" {
		return LocalpartMissing
	}
	if err := checkLocalPart(local, strict); err != Ok {
		return err
	}
	return checkDomain(domain, strict)
}

func checkLocalPart(local string, strict bool) Error {
	if strings.HasPrefix(local, `"`) {
		if !strings.HasSuffix(local, `"`) || len(local) < 2 {
			return IllegalQuotedChar
		}
		return Ok
	}
	words := strings.Split(local, ".")
	for _, w := range words {
		if w == "" {
			return ZeroLengthLocalWord
		}
		if strict {
			for _, c := range w {
				if !strings.ContainsRune(localAtext, c) {
					return IllegalUnquotedChar
				}
			}
		}
	}
	return Ok
}

func checkDomain(domain string, strict bool) Error {
	if domain == "" {
		return InvalidDomain
	}
	if strings.HasPrefix(domain, "[") {
		if !strings.HasSuffix(domain, "]") {
			return BadDomainLiteral
		}
		return checkDomainLiteral(domain[1 : len(domain)-1])
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return SingleDomain
	}
	for _, label := range labels {
		if label == "" {
			return ZeroLengthLabel
		}
		if len(label) > 63 {
			return IllegalLabelLength
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return IllegalLabelHyphen
		}
		if strict {
			for _, c := range label {
				if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
					return IllegalDomain
				}
			}
		}
	}
	return Ok
}

func checkDomainLiteral(lit string) Error {
	octets := strings.Split(lit, ".")
	if len(octets) != 4 {
		return BadDomainLiteral
	}
	for _, o := range octets {
		if o == "" || len(o) > 3 {
			return BadDomainLiteral
		}
		n := 0
		for _, c := range o {
			if c < '0' || c > '9' {
				return BadDomainLiteral
			}
			n = n*10 + int(c-'0')
		}
		if n < 0 || n > 255 {
			return BadDomainLiteral
		}
	}
	return Ok
}
