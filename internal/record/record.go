package record

import (
	"strconv"
	"strings"

	"iedb-epitope-parser/internal/extractor"
)

// Header is the fixed CSV column order. Every Row serializes positionally
// against it.
var Header = []string{
	"Organism",
	"Antigen",
	"Epitope",
	"Positive MHC alleles",
	"Negative MHC alleles",
	"Total response T cell assay count",
	"Qualitative binding ratio",
	"T cell binding ratio",
	"IFN-γ release ratio",
	"Source",
}

// Row is one flattened epitope record. Optional fields hold "" when the page
// did not carry them; missing values are never rendered as "None".
type Row struct {
	Organism           string
	Antigen            string
	Epitope            string
	PositiveAlleles    string
	NegativeAlleles    string
	TotalResponse      string
	QualitativeBinding string
	TCellBinding       string
	IFNGammaRelease    string
	Source             string
}

// Values returns the row in Header order.
func (r Row) Values() []string {
	return []string{
		r.Organism,
		r.Antigen,
		r.Epitope,
		r.PositiveAlleles,
		r.NegativeAlleles,
		r.TotalResponse,
		r.QualitativeBinding,
		r.TCellBinding,
		r.IFNGammaRelease,
		r.Source,
	}
}

// Build maps extracted fields into the output schema. Pure function: no
// side effects, every absent field becomes an empty value.
func Build(fields *extractor.Fields, sourceURL string) Row {
	row := Row{
		Organism:        fields.Organism,
		Antigen:         fields.Antigen,
		Epitope:         fields.Epitope,
		PositiveAlleles: strings.Join(fields.PositiveAlleles, ","),
		NegativeAlleles: strings.Join(fields.NegativeAlleles, ","),
		Source:          sourceURL,
	}

	if len(fields.Assays) > 0 {
		row.TotalResponse = strconv.Itoa(totalResponse(fields.Assays))
	}

	for _, assay := range fields.Assays {
		lower := strings.ToLower(assay.Type)
		switch {
		case strings.Contains(lower, "qualitative binding"):
			if row.QualitativeBinding == "" {
				row.QualitativeBinding = assay.Ratio()
			}
		case strings.Contains(lower, "ifn"):
			if row.IFNGammaRelease == "" {
				row.IFNGammaRelease = assay.Ratio()
			}
		case strings.Contains(lower, "t cell"):
			if row.TCellBinding == "" {
				row.TCellBinding = assay.Ratio()
			}
		}
	}

	return row
}

// totalResponse is 1 when any assay reported at least one positive outcome,
// 0 otherwise.
func totalResponse(assays []extractor.Assay) int {
	for _, assay := range assays {
		if assay.Positive > 0 {
			return 1
		}
	}
	return 0
}

// Table is the in-memory aggregate of all extracted rows, in append order.
type Table struct {
	rows []Row
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Append(row Row) {
	t.rows = append(t.rows, row)
}

func (t *Table) Rows() []Row {
	return t.rows
}

func (t *Table) Len() int {
	return len(t.rows)
}
