package webdav

import (
	"mime"
	"path"
	"strings"
)

var mimeTypes = map[string]string{
	"txt": "text/plain", "htm": "text/html", "html": "text/html", "php": "text/html",
	"css": "text/css", "js": "application/javascript", "json": "application/json",
	"xml": "application/xml", "swf": "application/x-shockwave-flash", "flv": "video/x-flv",
	"csv": "text/csv", "ics": "text/calendar", "md": "text/markdown",

	// images
	"png": "image/png", "jpe": "image/jpeg", "jpeg": "image/jpeg", "jpg": "image/jpeg",
	"gif": "image/gif", "bmp": "image/bmp", "ico": "image/vnd.microsoft.icon",
	"tiff": "image/tiff", "tif": "image/tiff", "svg": "image/svg+xml", "svgz": "image/svg+xml",
	"webp": "image/webp",

	// archives
	"zip": "application/zip", "rar": "application/x-rar-compressed",
	"exe": "application/x-msdownload", "msi": "application/x-msdownload",
	"cab": "application/vnd.ms-cab-compressed", "gz": "application/gzip",
	"tar": "application/x-tar", "7z": "application/x-7z-compressed",

	// audio/video
	"mp3": "audio/mpeg", "ogg": "audio/ogg", "wav": "audio/wav",
	"qt": "video/quicktime", "mov": "video/quicktime", "mp4": "video/mp4",
	"avi": "video/x-msvideo", "webm": "video/webm",

	// adobe
	"pdf": "application/pdf", "psd": "image/vnd.adobe.photoshop",
	"ai": "application/postscript", "eps": "application/postscript", "ps": "application/postscript",

	// ms office
	"doc": "application/msword", "rtf": "application/rtf",
	"xls": "application/vnd.ms-excel", "ppt": "application/vnd.ms-powerpoint",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// open office
	"odt": "application/vnd.oasis.opendocument.text",
	"ods": "application/vnd.oasis.opendocument.spreadsheet",
}

// MimeType maps a file extension (with or without the dot) to a MIME type.
// It returns "" when the extension is unknown.
func MimeType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return ""
	}
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension("." + ext)
}

// MimeTypeOf detects the MIME type of a path from its extension.
func MimeTypeOf(p string) string {
	return MimeType(path.Ext(p))
}
