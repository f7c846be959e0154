// Package gnksa implements the Good Net-Keeping Seal of Approval checks:
// From:/Message-ID: validation, References trimming, signature-delimiter
// detection and outgoing Message-ID generation.
//
// Header-line validity scanning (lowercase-first-char rejection,
// duplicate-header detection) is generalized here into a full
// enumerated error taxonomy rather than a handful of ad hoc bool
// returns.
package gnksa

// Error is the GNKSA enumerated validation outcome. The zero value, Ok,
// means the input validated successfully.
type Error int

const (
	Ok Error = iota
	LangleMissing
	RangleMissing
	LparenMissing
	RparenMissing
	AtsignMissing
	SingleDomain
	InvalidDomain
	IllegalDomain
	UnknownDomain
	ZeroLengthLabel
	IllegalLabelLength
	IllegalLabelHyphen
	BadDomainLiteral
	LocalpartMissing
	InvalidLocalpart
	ZeroLengthLocalWord
	IllegalUnquotedChar
	IllegalQuotedChar
	IllegalEncodedChar
	BadEncodeSyntax
	IllegalParenPhrase
	IllegalParenChar
	InvalidRealname
	IllegalPlainPhrase
)

var names = map[Error]string{
	Ok:                   "Ok",
	LangleMissing:        "LangleMissing",
	RangleMissing:        "RangleMissing",
	LparenMissing:        "LparenMissing",
	RparenMissing:        "RparenMissing",
	AtsignMissing:        "AtsignMissing",
	SingleDomain:         "SingleDomain",
	InvalidDomain:        "InvalidDomain",
	IllegalDomain:        "IllegalDomain",
	UnknownDomain:        "UnknownDomain",
	ZeroLengthLabel:      "ZeroLengthLabel",
	IllegalLabelLength:   "IllegalLabelLength",
	IllegalLabelHyphen:   "IllegalLabelHyphen",
	BadDomainLiteral:     "BadDomainLiteral",
	LocalpartMissing:     "LocalpartMissing",
	InvalidLocalpart:     "InvalidLocalpart",
	ZeroLengthLocalWord:  "ZeroLengthLocalWord",
	IllegalUnquotedChar:  "IllegalUnquotedChar",
	IllegalQuotedChar:    "IllegalQuotedChar",
	IllegalEncodedChar:   "IllegalEncodedChar",
	BadEncodeSyntax:      "BadEncodeSyntax",
	IllegalParenPhrase:   "IllegalParenPhrase",
	IllegalParenChar:     "IllegalParenChar",
	InvalidRealname:      "InvalidRealname",
	IllegalPlainPhrase:   "IllegalPlainPhrase",
}

func (e Error) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return "Unknown"
}
