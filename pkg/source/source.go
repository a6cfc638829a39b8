// ABOUTME: Ontology source decoding: format names, detection and file loading
// ABOUTME: Every decoder yields records in input order and never deduplicates

package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nainya/aroresolve/pkg/ontology"
)

// Format names an input encoding
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatOBO  Format = "obo"
)

// sniffSize is how much of the input detection looks at
const sniffSize = 4096

// ParseFormat maps a configured name to a Format. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatCSV, FormatOBO:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Detect classifies input by file extension, then by its first bytes
func Detect(path string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".obo":
		return FormatOBO
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n\ufeff")
	switch {
	case len(trimmed) == 0:
		return FormatAuto
	case trimmed[0] == '[' && bytes.HasPrefix(trimmed, []byte("[Term]")):
		return FormatOBO
	case trimmed[0] == '[' || trimmed[0] == '{':
		return FormatJSON
	case bytes.HasPrefix(trimmed, []byte("format-version:")) || bytes.Contains(head, []byte("\n[Term]")):
		return FormatOBO
	default:
		return FormatCSV
	}
}

// Decode reads every record from r in the given format. FormatAuto sniffs
// the content.
func Decode(r io.Reader, format Format) ([]ontology.Record, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	if format == FormatAuto {
		head, _ := br.Peek(sniffSize)
		format = Detect("", head)
	}

	switch format {
	case FormatJSON:
		return DecodeJSON(br)
	case FormatCSV:
		return DecodeCSV(br)
	case FormatOBO:
		return DecodeOBO(br)
	case FormatAuto:
		// nothing to sniff
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Load reads the ontology file at path
func Load(path string, format Format) ([]ontology.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology source: %w", err)
	}
	defer f.Close()

	if format == FormatAuto {
		br := bufio.NewReaderSize(f, sniffSize)
		head, _ := br.Peek(sniffSize)
		records, err := Decode(br, Detect(path, head))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return records, nil
	}

	records, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// splitList splits a "|" separated cell, dropping blanks
func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(cell, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
