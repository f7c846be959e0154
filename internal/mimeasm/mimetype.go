package mimeasm

import "strings"

// extensionTable is the filename-extension-to-MIME-type mapping used to
// guess a content type for attachments recovered by the
// embedded-encoding scanner when no explicit Content-Type is available.
var extensionTable = map[string]string{
	".asc":  "text/plain",
	".avi":  "video/vnd.msvideo",
	".flac": "audio/ogg",
	".gif":  "image/gif",
	".htm":  "text/html",
	".html": "text/html",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".mp3":  "audio/mpeg",
	".mpg":  "video/mpeg",
	".mov":  "video/quicktime",
	".nfo":  "text/plain",
	".ogg":  "audio/ogg",
	".png":  "image/png",
	".rar":  "application/x-rar",
	".tar":  "application/x-tar",
	".tgz":  "application/x-tar",
	".txt":  "text/plain",
	".uue":  "text/x-uuencode",
	".zip":  "application/zip",
}

// defaultContentType is returned for any extension absent from
// extensionTable.
const defaultContentType = "application/octet-stream"

// guessContentType maps filename's extension to a MIME type per the
// table above, falling back to application/octet-stream.
func guessContentType(filename string) string {
	ext := strings.ToLower(filename)
	if i := strings.LastIndexByte(ext, '.'); i >= 0 {
		ext = ext[i:]
	} else {
		return defaultContentType
	}
	if ct, ok := extensionTable[ext]; ok {
		return ct
	}
	return defaultContentType
}
