package textutil

import (
	"regexp"
	"strings"
)

var (
	bracketedPartCount = regexp.MustCompile(`[(\[]\s*\d+\s*/\s*\d+\s*[)\]]`)

	quotedFilename = regexp.MustCompile(`(?i)"[^"]*\.(jpg|jpeg|png|gif|bmp|webp|zip|rar|7z|mp3|mp4|avi|mkv|nfo|txt|pdf|doc|docx|exe)"`)

	byteCountAnnotation = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*[kmg]i?b?\b`)

	replyLeaderRun = regexp.MustCompile(`(?i)^(re(\^\d+)?|aw|sv)\s*:\s*`)

	// sepRun matches runs of whitespace, underscore, hyphen and the
	// characters that are illegal (or merely awkward) in a filesystem
	// path component; each maximal run collapses to a single separator.
	sepRun = regexp.MustCompile(`[\s_\-'"/\\:*?<>|]+`)
)

// SubjectToPath normalizes a Usenet subject into a filesystem-safe
// directory stem. The subject is first decoded as a header value (RFC
// 2047 encoded words, any non-ASCII charset folded to UTF-8), so a subject
// posted as "=?iso-8859-1?Q?R=E9sum=E9?=" normalizes the same way its
// plain-UTF-8 equivalent would. It then strips bracketed part-count
// markers ("(3/12)", "[3/12]"), quoted filenames carrying a recognized
// extension, byte-count annotations ("685k"), then collapses every run of
// whitespace and filesystem-illegal punctuation into sep. When fullSubj is
// false, a leading reply leader ("Re:", "Re^2:", "Aw:", "Sv:") is stripped
// first, so that a whole reply thread collapses to the same stem as its
// root.
func SubjectToPath(subject string, fullSubj bool, sep string) string {
	if sep == "" {
		sep = "_"
	}
	s := DecodeHeader(subject)
	if !fullSubj {
		s = replyLeaderRun.ReplaceAllString(s, "")
	}
	s = bracketedPartCount.ReplaceAllString(s, " ")
	s = quotedFilename.ReplaceAllString(s, " ")
	s = byteCountAnnotation.ReplaceAllString(s, " ")
	s = sepRun.ReplaceAllString(s, sep)
	s = strings.Trim(s, sep)
	if s == "" {
		s = "junk"
	}
	return s
}

// attachment-path template placeholders.
const (
	phGroup        = "%g" // first newsgroup in the crosspost list
	phGroupAsPath  = "%G" // %g with '.' replaced by the OS path separator
	phSubject      = "%s" // subject_to_path(subject, true, "_")
	phShortSubject = "%S" // subject_to_path(subject, false, "_")
	phNumber       = "%n" // article/part number
	phExtension    = "%e" // attachment's recognized extension, without the dot
	phDate         = "%d" // posting date, YYYY-MM-DD
)

// TemplateInput supplies the values an attachment-path template may
// reference.
type TemplateInput struct {
	Group     string
	Subject   string
	Number    string
	Extension string
	Date      string
	PathSep   string
}

// ExpandAttachmentPath substitutes the %g/%G/%s/%S/%n/%e/%d placeholders
// in template with values derived from in.
func ExpandAttachmentPath(template string, in TemplateInput) string {
	pathSep := in.PathSep
	if pathSep == "" {
		pathSep = "/"
	}
	replacer := strings.NewReplacer(
		phGroup, in.Group,
		phGroupAsPath, strings.ReplaceAll(in.Group, ".", pathSep),
		phSubject, SubjectToPath(in.Subject, true, "_"),
		phShortSubject, SubjectToPath(in.Subject, false, "_"),
		phNumber, in.Number,
		phExtension, strings.TrimPrefix(in.Extension, "."),
		phDate, in.Date,
	)
	return replacer.Replace(template)
}
