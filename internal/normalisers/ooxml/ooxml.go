// Package ooxml reads text out of Office Open XML packages (docx, pptx).
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// ErrPartMissing indicates a required part is absent from the package.
var ErrPartMissing = errors.New("ooxml: part missing")

// Open reads content as a zip package.
func Open(content []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not an office document: %v", domain.ErrExtraction, err)
	}
	return r, nil
}

// ReadPart returns the bytes of the named part.
func ReadPart(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrExtraction, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrExtraction, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %w: %s", domain.ErrExtraction, ErrPartMissing, name)
}

// Text extracts the character data of every element named textTag,
// ending a line at every paragraphTag close and inserting a tab at every
// tabTag. Namespace prefixes are ignored.
func Text(data []byte, textTag, paragraphTag, tabTag string) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var out strings.Builder
	var line strings.Builder
	inText := false

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed xml: %v", domain.ErrExtraction, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case textTag:
				inText = true
			case tabTag:
				line.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textTag:
				inText = false
			case paragraphTag:
				flush()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	flush()

	return strings.TrimSpace(out.String()), nil
}
