package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoEpitopeData means the page lacks the script block that identifies a
// valid epitope entry (not-found pages, template changes).
var ErrNoEpitopeData = errors.New("no epitope data block in page")

var (
	// "refernceEpitopeData" is misspelled in the IEDB page template itself.
	reEpitopeData  = regexp.MustCompile(`(?s)var refernceEpitopeData = (.*?});`)
	reCompiledData = regexp.MustCompile(`(?s)var compiledData = (.*?});`)

	// The reference epitope string is prose like
	// "SIINFEKL studied as part of ovalbumin from Gallus gallus."
	reEpitope  = regexp.MustCompile(`^([A-Z]+(?: \+ [A-Z]+\([A-Z0-9]+\))?)\s`)
	reAntigen  = regexp.MustCompile(`.*studied as part of (.*?) from `)
	reOrganism = regexp.MustCompile(`.*from (.*?)(?:\.|$)`)

	innerWhitespace = regexp.MustCompile(`\s+`)
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract parses an epitope detail page. The identifying epitope block
// (epitope sequence, antigen, organism) is required; allele and assay data
// are filled in best-effort and never fail the record.
func (e *Extractor) Extract(html string) (*Fields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var fields *Fields
	doc.Find("script[type='text/javascript']").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "refernceEpitopeData") {
			return true
		}

		f, err := e.extractFromScript(text)
		if err != nil {
			// Another script tag may carry the real block.
			return true
		}
		fields = f
		return false
	})

	if fields == nil {
		return nil, fmt.Errorf("page is not a valid epitope entry: %w", ErrNoEpitopeData)
	}

	return fields, nil
}

func (e *Extractor) extractFromScript(script string) (*Fields, error) {
	organism, antigen, epitope, err := parseEpitopeBlock(script)
	if err != nil {
		return nil, err
	}

	fields := &Fields{
		Organism: organism,
		Antigen:  antigen,
		Epitope:  epitope,
	}

	// compiledData is optional; a page without assay summaries still
	// produces a record with empty allele and assay fields.
	sections, err := parseCompiledData(script)
	if err != nil {
		return fields, nil
	}

	fields.PositiveAlleles, fields.NegativeAlleles = classifyAlleles(mhcRows(sections))
	fields.Assays = assayRows(sections)

	return fields, nil
}

func parseEpitopeBlock(script string) (organism, antigen, epitope string, err error) {
	match := reEpitopeData.FindStringSubmatch(script)
	if match == nil {
		return "", "", "", fmt.Errorf("refernceEpitopeData assignment not found")
	}

	var payload struct {
		Data struct {
			ReferenceEpitopeString string `json:"referenceEpitopeString"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		return "", "", "", fmt.Errorf("failed to decode epitope data: %w", err)
	}

	epitopeStr := cleanText(payload.Data.ReferenceEpitopeString)

	epitopeMatch := reEpitope.FindStringSubmatch(epitopeStr)
	antigenMatch := reAntigen.FindStringSubmatch(epitopeStr)
	organismMatch := reOrganism.FindStringSubmatch(epitopeStr)
	if epitopeMatch == nil || antigenMatch == nil || organismMatch == nil {
		return "", "", "", fmt.Errorf("epitope string does not match expected form: %q", epitopeStr)
	}

	return cleanText(organismMatch[1]), cleanText(antigenMatch[1]), cleanText(epitopeMatch[1]), nil
}

type compiledSection struct {
	Data []map[string]any `json:"data"`
}

func parseCompiledData(script string) ([]compiledSection, error) {
	match := reCompiledData.FindStringSubmatch(script)
	if match == nil {
		return nil, fmt.Errorf("compiledData assignment not found")
	}

	// The template emits single-quoted pseudo-JSON.
	normalized := strings.ReplaceAll(match[1], "'", `"`)

	var payload struct {
		Data []compiledSection `json:"data"`
	}
	if err := json.Unmarshal([]byte(normalized), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode compiled data: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("compiled data has no sections")
	}

	return payload.Data, nil
}

// mhcRows returns the MHC restriction rows: the first compiled section.
func mhcRows(sections []compiledSection) []map[string]any {
	if len(sections) == 0 {
		return nil
	}
	return sections[0].Data
}

// assayRows returns the T cell assay summary rows: the last compiled section.
func assayRows(sections []compiledSection) []Assay {
	if len(sections) == 0 {
		return nil
	}

	var assays []Assay
	for _, row := range sections[len(sections)-1].Data {
		assayType, ok := stringValue(row, "assay_type")
		if !ok {
			continue
		}
		positive, okPos := intValue(row, "positive_count")
		total, okTot := intValue(row, "total_count")
		if !okPos || !okTot {
			continue
		}
		assays = append(assays, Assay{
			Type:     cleanText(assayType),
			Positive: positive,
			Total:    total,
		})
	}
	return assays
}

// classifyAlleles splits MHC rows into positive and negative allele lists
// based on the per-allele positive assay count. Each list is deduplicated
// preserving first occurrence; a molecule reported with both positive and
// zero-count rows appears in both lists.
func classifyAlleles(rows []map[string]any) (positives, negatives []string) {
	seenPos := make(map[string]bool)
	seenNeg := make(map[string]bool)
	for _, row := range rows {
		molecule, ok := stringValue(row, "mhc_molecule")
		if !ok {
			continue
		}
		count, ok := intValue(row, "positive_count")
		if !ok {
			continue
		}

		molecule = cleanText(molecule)
		if molecule == "" {
			continue
		}

		if count > 0 {
			if !seenPos[molecule] {
				seenPos[molecule] = true
				positives = append(positives, molecule)
			}
		} else {
			if !seenNeg[molecule] {
				seenNeg[molecule] = true
				negatives = append(negatives, molecule)
			}
		}
	}
	return positives, negatives
}

func stringValue(row map[string]any, key string) (string, bool) {
	v, ok := row[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

// intValue tolerates both numeric and string-encoded counts, which the page
// template mixes freely.
func intValue(row map[string]any, key string) (int, bool) {
	v, ok := row[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// cleanText trims surrounding whitespace and collapses internal runs
// (including NBSP) to single spaces.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00A0", " ")
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
