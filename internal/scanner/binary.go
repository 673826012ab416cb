package scanner

import (
	"bytes"
	"path/filepath"
	"strings"
)

// binaryExtensions are file suffixes treated as binary without sniffing
// content, covering the common archive/image/media/object formats a code
// indexer otherwise wastes a content-hash read classifying.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".webp": true, ".tiff": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".o": true, ".a": true, ".lib": true,
	".class": true, ".jar": true, ".pyc": true, ".wasm": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true, ".flac": true, ".ogg": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// magicNumbers maps well-known file signatures to their byte prefixes.
var magicNumbers = [][]byte{
	{0x1f, 0x8b},                   // gzip
	{0x50, 0x4b, 0x03, 0x04},       // zip/jar/docx
	{0x89, 0x50, 0x4e, 0x47},       // png
	{0xff, 0xd8, 0xff},             // jpeg
	{0x47, 0x49, 0x46, 0x38},       // gif
	{0x25, 0x50, 0x44, 0x46},       // pdf
	{0x7f, 0x45, 0x4c, 0x46},       // elf
	{0x4d, 0x5a},                   // windows pe
	{0xca, 0xfe, 0xba, 0xbe},       // mach-o (fat)
	{0xfe, 0xed, 0xfa, 0xce},       // mach-o 32
	{0xfe, 0xed, 0xfa, 0xcf},       // mach-o 64
	{0x77, 0x4f, 0x46, 0x46},       // woff
	{0x53, 0x51, 0x4c, 0x69, 0x74}, // "SQLit" -> sqlite file header
}

// isBinary classifies a file as binary by extension, magic number, or a
// NUL/control-byte heuristic over its first bytes (spec §4.C: binary files
// are scanned and hashed but never handed to the extractor).
func isBinary(relPath string, head []byte) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	if binaryExtensions[ext] {
		return true
	}
	for _, magic := range magicNumbers {
		if bytes.HasPrefix(head, magic) {
			return true
		}
	}
	return looksBinary(head)
}

// looksBinary applies a NUL-byte / non-printable-ratio heuristic to a
// content prefix, the same fallback used for extensionless files.
func looksBinary(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	if bytes.IndexByte(head, 0x00) >= 0 {
		return true
	}
	nonPrintable := 0
	for _, b := range head {
		if b < 0x09 || (b > 0x0d && b < 0x20) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(head)) > 0.3
}
