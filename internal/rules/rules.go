// Package rules loads the ordered classification rule table. Row order is
// match priority: the first matching row wins.
package rules

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// QualitySpec is either a fixed CRF value or the adaptive-search sentinel.
type QualitySpec struct {
	Adaptive bool
	CRF      int
}

// Fixed builds a fixed-value quality spec.
func Fixed(crf int) QualitySpec { return QualitySpec{CRF: crf} }

// AdaptiveQuality is the sentinel spec that triggers CRF search.
func AdaptiveQuality() QualitySpec { return QualitySpec{Adaptive: true} }

// Rule is one row of the classification table. Rows are immutable for the
// duration of a run.
type Rule struct {
	SearchTerm string
	Regex      bool
	Show       string
	Season     int
	Offset     int
	AdultOnly  bool
	MoveOnly   bool
	Quality    QualitySpec
}

// MovieDefault synthesizes the implicit rule applied to movie-inbox files
// and to unmatched inbox files inferred as movies.
func MovieDefault(adult bool) Rule {
	return Rule{AdultOnly: adult, Quality: AdaptiveQuality()}
}

// Expected CSV header names. The column order in the file is free; lookup is
// by header. Unknown columns are ignored.
const (
	colSearchTerm = "FileSearchTerm"
	colRegex      = "RegexSearch"
	colShow       = "Show"
	colSeason     = "Season"
	colOffset     = "Offset"
	colAdultOnly  = "AdultOnly"
	colCRF        = "CRF"
	colMoveOnly   = "MoveOnly"
)

// Load reads the rule table from path, preserving row order.
func Load(path string) ([]Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules csv: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads the rule table from r.
func Parse(r io.Reader) ([]Rule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var loaded []Rule
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rules row %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		rule := Rule{
			SearchTerm: field(colSearchTerm),
			Regex:      parseFlag(field(colRegex)),
			Show:       field(colShow),
			Season:     parseInt(field(colSeason)),
			Offset:     parseInt(field(colOffset)),
			AdultOnly:  parseFlag(field(colAdultOnly)),
			MoveOnly:   parseFlag(field(colMoveOnly)),
			Quality:    parseQuality(field(colCRF)),
		}
		loaded = append(loaded, rule)
	}
	return loaded, nil
}

// Absent numeric fields default to 0.
func parseInt(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		// Tolerate pandas-style float exports like "2.0".
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func parseFlag(value string) bool {
	return parseInt(value) == 1
}

// Absent quality defaults to adaptive search.
func parseQuality(value string) QualitySpec {
	value = strings.ToLower(value)
	if value == "" || value == "vmaf" {
		return AdaptiveQuality()
	}
	if crf := parseInt(value); crf > 0 {
		return Fixed(crf)
	}
	return AdaptiveQuality()
}
