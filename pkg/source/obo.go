// ABOUTME: OBO decoder for ontology records (CARD ships aro.obo)
// ABOUTME: Reads [Term] stanzas; obsolete terms and other stanza types are skipped

package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nainya/aroresolve/pkg/ontology"
)

const oboScannerBufferSize = 1 << 20 // 1 MB

type oboTerm struct {
	record   ontology.Record
	obsolete bool
}

// Relationships whose target is a drug class the term confers resistance to
var drugClassRelations = map[string]bool{
	"confers_resistance_to_drug": true,
	"confers_resistance_to":      true,
}

// DecodeOBO reads every non-obsolete [Term] stanza. Only EXACT synonyms are
// kept; is_a targets become explicit parents, resistance relationships
// become drug classes and PMID xrefs of the definition become publications.
func DecodeOBO(r io.Reader) ([]ontology.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), oboScannerBufferSize)

	var records []ontology.Record
	inTerm := false
	var cur oboTerm
	line := 0

	flush := func() {
		if inTerm && !cur.obsolete {
			records = append(records, cur.record)
		}
		inTerm = false
		cur = oboTerm{}
	}

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '!' {
			continue
		}
		if text[0] == '[' {
			flush()
			if !strings.HasSuffix(text, "]") {
				return nil, fmt.Errorf("%w: line %d: unterminated stanza header", ErrSyntax, line)
			}
			inTerm = text == "[Term]"
			continue
		}
		if !inTerm {
			// header tags and non-term stanzas
			continue
		}

		key, val, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected tag: value", ErrSyntax, line)
		}
		val = stripTrailingComment(strings.TrimSpace(val))

		switch strings.TrimSpace(key) {
		case "id":
			cur.record.Accession = val
		case "name":
			cur.record.Name = val
		case "def":
			def, rest, _ := parseQuoted(val)
			cur.record.Description = def
			for _, xref := range parseXrefs(rest) {
				if _, ok := ontology.PubMedID(xref); ok {
					cur.record.Publications = append(cur.record.Publications, xref)
				}
			}
		case "relationship":
			if f := strings.Fields(val); len(f) >= 2 && drugClassRelations[f[0]] {
				cur.record.DrugClasses = append(cur.record.DrugClasses, f[1])
			}
		case "synonym":
			if syn, scope := parseSynonym(val); scope == "EXACT" && syn != "" {
				cur.record.Synonyms = append(cur.record.Synonyms, syn)
			}
		case "is_a":
			if id, _, _ := strings.Cut(val, " "); id != "" {
				cur.record.Parents = append(cur.record.Parents, id)
			}
		case "is_obsolete":
			cur.obsolete = val == "true"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line+1, err)
	}
	flush()
	return records, nil
}

// stripTrailingComment removes an unquoted " ! comment" suffix
func stripTrailingComment(val string) string {
	if strings.HasPrefix(val, `"`) {
		return val
	}
	if i := strings.Index(val, " !"); i >= 0 {
		return strings.TrimSpace(val[:i])
	}
	return val
}

// parseQuoted reads a double quoted OBO string, honouring backslash
// escapes, and returns the unescaped text plus whatever follows the closing
// quote. Without an opening quote the whole value is the text.
func parseQuoted(s string) (text, rest string, ok bool) {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return s, "", false
	}

	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteByte(unescapeOBO(s[i]))
		case c == '"':
			return b.String(), s[i+1:], true
		default:
			b.WriteByte(c)
		}
	}
	// unterminated: keep what was read
	return b.String(), "", false
}

func unescapeOBO(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'W':
		return ' '
	default:
		return c
	}
}

// parseXrefs splits a "[A:1, B:2]" dbxref list
func parseXrefs(s string) []string {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return nil
	}
	end := strings.IndexByte(s[open:], ']')
	if end < 0 {
		return nil
	}
	var out []string
	for _, x := range strings.Split(s[open+1:open+end], ",") {
		if x = strings.TrimSpace(x); x != "" {
			// drop a trailing quoted description: PMID:1 "title"
			if id, _, ok := strings.Cut(x, " "); ok {
				x = id
			}
			out = append(out, x)
		}
	}
	return out
}

// parseSynonym parses `"text" SCOPE [xrefs]`
func parseSynonym(s string) (text, scope string) {
	text, rest, ok := parseQuoted(s)
	if !ok {
		return text, ""
	}
	if f := strings.Fields(rest); len(f) > 0 {
		scope = f[0]
	}
	return text, scope
}
