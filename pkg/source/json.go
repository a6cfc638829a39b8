// ABOUTME: JSON decoder for ontology records
// ABOUTME: Accepts a record array or a CARD card.json style object of models

package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/nainya/aroresolve/pkg/ontology"
)

// jsonRecord accepts both the plain record fields and the ARO_* fields used
// by CARD model exports
type jsonRecord struct {
	ontology.Record
	AROAccession   string                  `json:"ARO_accession"`
	AROName        string                  `json:"ARO_name"`
	ARODescription string                  `json:"ARO_description"`
	AROCategory    map[string]cardCategory `json:"ARO_category"`
}

// cardCategory is one ARO_category member of a CARD model
type cardCategory struct {
	Accession string `json:"category_aro_accession"`
	ClassName string `json:"category_aro_class_name"`
}

const cardDrugClass = "Drug Class"

func (j jsonRecord) record() ontology.Record {
	r := j.Record
	if r.Accession == "" {
		r.Accession = j.AROAccession
	}
	if r.Name == "" {
		r.Name = j.AROName
	}
	if r.Description == "" {
		r.Description = j.ARODescription
	}
	if len(r.DrugClasses) == 0 {
		for _, c := range j.AROCategory {
			if c.ClassName == cardDrugClass && c.Accession != "" {
				r.DrugClasses = append(r.DrugClasses, ontology.CanonicalAccession(c.Accession))
			}
		}
		// map order is random
		slices.Sort(r.DrugClasses)
	}
	return r
}

// DecodeJSON reads either a JSON array of records or a JSON object whose
// object-valued members are records. Member order is preserved; scalar
// members such as "_version" are skipped.
func DecodeJSON(r io.Reader) ([]ontology.Record, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return nil, fmt.Errorf("%w: expected array or object, got %v", ErrSyntax, tok)
	}

	var records []ontology.Record
	for i := 0; dec.More(); i++ {
		var member string
		if delim == '{' {
			key, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: member %d: %v", ErrSyntax, i, err)
			}
			member, _ = key.(string)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrSyntax, i, err)
		}
		if delim == '{' && !isObject(raw) {
			continue
		}

		var jr jsonRecord
		if err := json.Unmarshal(raw, &jr); err != nil {
			if member != "" {
				return nil, fmt.Errorf("%w: member %q: %v", ErrSyntax, member, err)
			}
			return nil, fmt.Errorf("%w: record %d: %v", ErrSyntax, i, err)
		}
		records = append(records, jr.record())
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return records, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
