package vcf

import (
	"strings"
	"unicode"
)

// NumMandatoryFields is the number of fixed columns in a data line.
const NumMandatoryFields = 8

// Record represents a single data line of a VCF file.
// Fields are kept verbatim; positions and alleles are not validated.
type Record struct {
	Chrom  string // Chromosome name (e.g., "12", "chr12")
	Pos    string // 1-based position, as written
	ID     string // Variant identifier (e.g., rs ID)
	Ref    string // Reference allele
	Alt    string // Alternate allele(s), comma-separated
	Qual   string // Quality score, as written
	Filter string // Filter status (PASS or filter names)
	Info   Info   // Decoded INFO column

	Format    string   // FORMAT template (e.g., "GT:AD:DP"), valid when HasFormat
	HasFormat bool     // whether a 9th column was present
	Genotypes []string // raw per-sample columns; nil when HasFormat is false

	Line int // 1-based line number in the source
}

// ParseRecord parses one data line. It returns false for lines with fewer
// than NumMandatoryFields tab-separated fields.
func ParseRecord(line string) (*Record, bool) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	fields := strings.Split(line, "\t")
	if len(fields) < NumMandatoryFields {
		return nil, false
	}

	r := &Record{
		Chrom:  fields[0],
		Pos:    fields[1],
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Qual:   fields[5],
		Filter: fields[6],
		Info:   DecodeInfo(fields[7]),
	}

	if len(fields) > NumMandatoryFields {
		r.HasFormat = true
		r.Format = fields[NumMandatoryFields]
		r.Genotypes = fields[NumMandatoryFields+1:]
	}

	return r, true
}

// String renders the record as a tab-separated row of the fixed columns
// (without INFO) followed by the genotype columns. FORMAT is not included.
func (r *Record) String() string {
	fields := make([]string, 0, 7+len(r.Genotypes))
	fields = append(fields, r.Chrom, r.Pos, r.ID, r.Ref, r.Alt, r.Qual, r.Filter)
	fields = append(fields, r.Genotypes...)
	return strings.Join(fields, "\t")
}

// SplitGenotype splits a sample column into its first colon-delimited field
// (the call, usually GT) and the unparsed remainder.
func SplitGenotype(gt string) (call, rest string) {
	call, rest, _ = strings.Cut(gt, ":")
	return call, rest
}
