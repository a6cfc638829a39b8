// ABOUTME: External reference links for an ontology entry
// ABOUTME: CARD ARO page, cited PubMed articles, literature and gene catalog searches

package ontology

import (
	"net/url"
	"strings"
)

const (
	SourceCARD          = "CARD Ontology"
	SourcePubMedArticle = "PubMed"
	SourcePubMed        = "PubMed Search"
	SourceGoogleScholar = "Google Scholar Search"
	SourceNCBIRefGene   = "NCBI AMR Reference Gene Catalog"

	urlCARDARO       = "https://card.mcmaster.ca/aro/"
	urlPubMed        = "https://www.ncbi.nlm.nih.gov/pubmed/"
	urlGoogleScholar = "https://scholar.google.com/scholar?q="
	urlNCBIRefGene   = "https://www.ncbi.nlm.nih.gov/pathogens/isolates#/refgene/"

	pmidPrefix = "PMID:"
)

// Link is a labelled external URL
type Link struct {
	Source string
	URL    string
}

// PubMedID returns the numeric id of a "PMID:n" xref
func PubMedID(xref string) (string, bool) {
	xref = strings.TrimSpace(xref)
	if len(xref) <= len(pmidPrefix) || !strings.EqualFold(xref[:len(pmidPrefix)], pmidPrefix) {
		return "", false
	}
	id := strings.TrimSpace(xref[len(pmidPrefix):])
	if !isDigits(id) {
		return "", false
	}
	return id, true
}

// Links returns the external references for e: the CARD page for 7 digit
// CARD accessions, one PubMed link per cited PMID, then the searches.
func Links(e Entry) []Link {
	links := make([]Link, 0, 4+len(e.Publications))
	if IsCARDAccession(e.Accession) {
		links = append(links, Link{Source: SourceCARD, URL: urlCARDARO + AccessionNumber(e.Accession)})
	}
	for _, pub := range e.Publications {
		if id, ok := PubMedID(pub); ok {
			links = append(links, Link{Source: SourcePubMedArticle, URL: urlPubMed + id})
		}
	}
	q := url.QueryEscape(e.Name)
	links = append(links,
		Link{Source: SourcePubMed, URL: urlPubMed + "?term=" + q},
		Link{Source: SourceGoogleScholar, URL: urlGoogleScholar + q},
		Link{Source: SourceNCBIRefGene, URL: urlNCBIRefGene + url.PathEscape(e.Name)},
	)
	return links
}
