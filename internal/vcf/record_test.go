package vcf

import (
	"reflect"
	"testing"
)

func TestParseRecord_MandatoryFields(t *testing.T) {
	line := "12\t25245351\trs121913529\tC\tA,T\t50.5\tPASS\tDP=10;AF=0.1,0.2;SOMATIC"

	r, ok := ParseRecord(line)
	if !ok {
		t.Fatal("Expected a record")
	}

	want := []string{"12", "25245351", "rs121913529", "C", "A,T", "50.5", "PASS"}
	got := []string{r.Chrom, r.Pos, r.ID, r.Ref, r.Alt, r.Qual, r.Filter}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Mandatory fields = %v, want %v", got, want)
	}

	if r.HasFormat {
		t.Error("Record without a 9th column should not have FORMAT")
	}
	if r.Genotypes != nil {
		t.Errorf("Expected nil genotypes, got %v", r.Genotypes)
	}
	if dp, _ := r.Info.Get("DP"); dp != "10" {
		t.Errorf("Expected DP=10, got %q", dp)
	}
}

func TestParseRecord_ShortLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"seven fields", "1\t100\t.\tA\tG\t.\tPASS"},
		{"seven fields with trailing tab", "1\t100\t.\tA\tG\t.\tPASS\t"},
		{"space separated", "1 100 . A G . PASS DP=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r, ok := ParseRecord(tt.line); ok {
				t.Errorf("Expected line to be skipped, got %+v", r)
			}
		})
	}
}

func TestParseRecord_Genotypes(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		format    string
		genotypes []string
	}{
		{
			name:      "two samples",
			line:      "1\t100\t.\tA\tG\t30\tPASS\tDP=5\tGT:DP\t0/1:30\t0/0:25",
			format:    "GT:DP",
			genotypes: []string{"0/1:30", "0/0:25"},
		},
		{
			name:      "format without samples",
			line:      "1\t100\t.\tA\tG\t30\tPASS\tDP=5\tGT",
			format:    "GT",
			genotypes: []string{},
		},
		{
			name:      "trailing newline stripped",
			line:      "1\t100\t.\tA\tG\t30\tPASS\tDP=5\tGT\t1/1\r\n",
			format:    "GT",
			genotypes: []string{"1/1"},
		},
		{
			name:      "arity not checked",
			line:      "1\t100\t.\tA\tG\t30\tPASS\t.\tGT:AD:DP\t0/1\t./.:1,2:3\textra",
			format:    "GT:AD:DP",
			genotypes: []string{"0/1", "./.:1,2:3", "extra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ParseRecord(tt.line)
			if !ok {
				t.Fatal("Expected a record")
			}
			if !r.HasFormat {
				t.Fatal("Expected HasFormat")
			}
			if r.Format != tt.format {
				t.Errorf("Format = %q, want %q", r.Format, tt.format)
			}
			if !reflect.DeepEqual(r.Genotypes, tt.genotypes) {
				t.Errorf("Genotypes = %q, want %q", r.Genotypes, tt.genotypes)
			}
		})
	}
}

func TestRecord_String(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "sites only",
			line: "1\t100\trs1\tA\tG\t30\tPASS\tDP=5",
			want: "1\t100\trs1\tA\tG\t30\tPASS",
		},
		{
			name: "with genotypes",
			line: "chr2\t200\t.\tC\tT\t.\tq10\tDP=5;AF=0.5\tGT:DP\t0/1:30\t0/0:25",
			want: "chr2\t200\t.\tC\tT\t.\tq10\t0/1:30\t0/0:25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ParseRecord(tt.line)
			if !ok {
				t.Fatal("Expected a record")
			}
			if got := r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitGenotype(t *testing.T) {
	tests := []struct {
		name string
		gt   string
		call string
		rest string
	}{
		{"call and depth", "0/1:30", "0/1", "30"},
		{"rest kept verbatim", "0|1:12,5:17:99", "0|1", "12,5:17:99"},
		{"call only", "1/1", "1/1", ""},
		{"empty", "", "", ""},
		{"missing call", ".:0", ".", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, rest := SplitGenotype(tt.gt)
			if call != tt.call || rest != tt.rest {
				t.Errorf("SplitGenotype(%q) = (%q, %q), want (%q, %q)", tt.gt, call, rest, tt.call, tt.rest)
			}
		})
	}
}
