// Package validation checks user-supplied paths and input files before they
// reach the engine: path sanity, size limits, and content sniffing so a
// database image passed where a SQL script was expected fails early with a
// clear message.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Resource limits (CWE-400).
const (
	// MaxScriptSize is the largest SQL script the CLI will read (64 MB).
	MaxScriptSize = 64 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrWrongFileType    = errors.New("wrong file type")
)

// ValidatePath rejects empty or overlong paths and paths containing NUL or
// other control characters. URI query strings are allowed.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// FileType is the kind of content detected in an input file.
type FileType string

const (
	FileTypeSQLite   FileType = "sqlite database"
	FileTypeSnapshot FileType = "snapshot"
	FileTypeXZ       FileType = "xz stream"
	FileTypeGzip     FileType = "gzip stream"
	FileTypeText     FileType = "text"
	FileTypeUnknown  FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeSQLite, []byte("SQLite format 3\x00")},
	{FileTypeSnapshot, []byte("SQXSNAP\x00")},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeGzip, []byte{0x1f, 0x8b}},
}

// sniffLen is how much of a file DetectFileType reads.
const sniffLen = 512

// DetectFileType reads the head of r and reports what it holds. An empty
// input is text: an empty script is valid.
func DetectFileType(r io.Reader) (FileType, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType, nil
		}
	}
	if n == 0 || isLikelyText(buf) {
		return FileTypeText, nil
	}
	return FileTypeUnknown, nil
}

// CheckFile verifies that the file at path is no larger than maxSize (when
// positive) and that its content is of type want.
func CheckFile(path string, want FileType, maxSize int64) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if maxSize > 0 {
		info, err := f.Stat()
		if err != nil {
			return err
		}
		if info.Size() > maxSize {
			return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), maxSize)
		}
	}

	got, err := DetectFileType(f)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s holds a %s, expected a %s", ErrWrongFileType, path, got, want)
	}
	return nil
}

// isLikelyText reports whether buf looks like UTF-8 or ASCII text.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}

	// Null bytes are a strong indicator of binary content.
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 lead and continuation bytes are neutral
	}

	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
