// ABOUTME: CSV decoder for ontology records
// ABOUTME: Header names the columns; list columns are "|" separated

package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nainya/aroresolve/pkg/ontology"
)

const (
	colAccession   = "accession"
	colName        = "name"
	colDescription = "description"
	colSynonyms    = "synonyms"
	colParents     = "parents"

	colDrugClasses  = "drug_classes"
	colPublications = "publications"
)

// DecodeCSV reads a header row followed by one record per row. The
// accession and name columns are required, the rest are optional and may
// appear in any order. Lines starting with '#' are comments.
func DecodeCSV(r io.Reader) ([]ontology.Record, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, required := range []string{colAccession, colName} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, required)
		}
	}

	cell := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var records []ontology.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		records = append(records, ontology.Record{
			Accession:   cell(row, colAccession),
			Name:        cell(row, colName),
			Description: cell(row, colDescription),
			Synonyms:    splitList(cell(row, colSynonyms)),
			Parents:     splitList(cell(row, colParents)),

			DrugClasses:  splitList(cell(row, colDrugClasses)),
			Publications: splitList(cell(row, colPublications)),
		})
	}
	return records, nil
}
