package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// FileType is a lower-cased file extension without the leading dot.
type FileType string

// Supported upload types.
const (
	FileTypePDF      FileType = "pdf"
	FileTypeDOCX     FileType = "docx"
	FileTypePPTX     FileType = "pptx"
	FileTypeXLSX     FileType = "xlsx"
	FileTypeHTML     FileType = "html"
	FileTypeHTM      FileType = "htm"
	FileTypeText     FileType = "txt"
	FileTypeMarkdown FileType = "md"
	FileTypeCSV      FileType = "csv"
	FileTypeJSON     FileType = "json"
)

var supportedFileTypes = map[FileType]bool{
	FileTypePDF:      true,
	FileTypeDOCX:     true,
	FileTypePPTX:     true,
	FileTypeXLSX:     true,
	FileTypeHTML:     true,
	FileTypeHTM:      true,
	FileTypeText:     true,
	FileTypeMarkdown: true,
	FileTypeCSV:      true,
	FileTypeJSON:     true,
}

// FileTypeFromName derives the file type from a filename's extension.
func FileTypeFromName(filename string) FileType {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	return FileType(strings.ToLower(ext))
}

// IsSupported returns true if uploads of this type are accepted.
func (t FileType) IsSupported() bool {
	return supportedFileTypes[t]
}

// String returns the string representation.
func (t FileType) String() string {
	return string(t)
}

// SupportedFileTypes returns every accepted type in sorted order.
func SupportedFileTypes() []FileType {
	types := make([]FileType, 0, len(supportedFileTypes))
	for t := range supportedFileTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// RawFile is uploaded bytes before text extraction.
type RawFile struct {
	// DocumentID is the document the bytes belong to.
	DocumentID string

	// Filename is the name supplied at upload.
	Filename string

	// FileType is the declared type.
	FileType FileType

	// Content is the raw bytes.
	Content []byte
}
