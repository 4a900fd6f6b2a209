package vcf

import "strings"

// HeaderPrefix marks the column-header line.
const HeaderPrefix = "#"

// MandatoryColumns are the fixed leading columns of the header line.
var MandatoryColumns = []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// FormatColumn introduces the per-sample genotype columns.
const FormatColumn = "FORMAT"

// ParseHeader extracts sample identifiers from a #CHROM header line.
//
// ok is false when the mandatory columns are missing or out of order.
// samples is nil unless the header is valid and declares FORMAT; a FORMAT
// column without samples yields an empty, non-nil slice.
func ParseHeader(line string) (samples []string, ok bool) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) < len(MandatoryColumns) {
		return nil, false
	}
	for i, col := range MandatoryColumns {
		if fields[i] != col {
			return nil, false
		}
	}

	rest := fields[len(MandatoryColumns):]
	if len(rest) == 0 || rest[0] != FormatColumn {
		return nil, true
	}
	samples = make([]string, len(rest)-1)
	copy(samples, rest[1:])
	return samples, true
}
