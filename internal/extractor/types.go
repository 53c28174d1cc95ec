package extractor

import "fmt"

// Fields holds everything extracted from one epitope page. Allele and assay
// data are optional: a page without them still yields a valid record.
type Fields struct {
	Organism        string
	Antigen         string
	Epitope         string
	PositiveAlleles []string
	NegativeAlleles []string
	Assays          []Assay
}

// Assay is one T cell assay summary row from the page's compiled data.
type Assay struct {
	Type     string
	Positive int
	Total    int
}

// Ratio renders the assay outcome as "positive/total".
func (a Assay) Ratio() string {
	return fmt.Sprintf("%d/%d", a.Positive, a.Total)
}
