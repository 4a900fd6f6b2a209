package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		samples []string
		ok      bool
	}{
		{
			name:    "two samples",
			line:    "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878\tNA12891",
			samples: []string{"NA12878", "NA12891"},
			ok:      true,
		},
		{
			name:    "duplicate samples kept",
			line:    "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS1\n",
			samples: []string{"S1", "S1"},
			ok:      true,
		},
		{
			name: "sites only",
			line: "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
			ok:   true,
		},
		{
			name: "ninth column not FORMAT",
			line: "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tS1",
			ok:   true,
		},
		{
			name: "wrong order",
			line: "#CHROM\tID\tPOS\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1",
		},
		{
			name: "lower case",
			line: "#chrom\tpos\tid\tref\talt\tqual\tfilter\tinfo",
		},
		{
			name: "too few columns",
			line: "#CHROM\tPOS\tID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, ok := ParseHeader(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.samples, samples)
		})
	}
}

func TestParseHeader_FormatWithoutSamples(t *testing.T) {
	samples, ok := ParseHeader("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")

	assert.True(t, ok)
	assert.NotNil(t, samples, "FORMAT with no samples is an empty list, not absent")
	assert.Empty(t, samples)
}
