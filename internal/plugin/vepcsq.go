package plugin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/inodb/vcfdistil/internal/pipeline"
	"github.com/inodb/vcfdistil/internal/vcf"
)

// VEPCSQPrefix precedes the '|'-separated CSQ sub-field names in the
// Description of the ##INFO=<ID=CSQ,...> line written by Ensembl VEP.
const VEPCSQPrefix = "Consequence annotations from Ensembl VEP. Format: "

// ErrNoCSQFormat is returned when the metadata has no usable CSQ description.
var ErrNoCSQFormat = errors.New("no ##INFO=<ID=CSQ> description with VEP format in metadata")

const (
	maxCarriers = 6
	maxGnomADAF = 0.05
)

// crcGenes are DNA repair and colorectal cancer predisposition genes.
var crcGenes = stringSet(
	"MSH2", "MSH6", "MLH1", "PMS2", "MSH4", "MUTYH", "EXO1", "PMS1", "MSH3",
	"MSH5", "PMS2P3", "POLE", "MLH3", "FAN1", "POLD1", "NTHL1", "RNF43", "APC",
	"BRCA1", "BRCA2", "AXIN2",
)

var excludedConsequences = stringSet(
	".",
	"intergenic_variant",
	"intron_variant",
	"downstream_gene_variant",
	"upstream_gene_variant",
	"intron_variant&non_coding_transcript_variant",
	"non_coding_transcript_exon_variant",
)

var vepCSQColumns = []string{
	"chrom", "pos", "ref", "alt", "qual", "consequence", "impact", "gene",
	"CRC gene", "exon", "HGVSc", "HGVSp", "polyphen", "sift", "gnomad_af",
	"num_carriers",
}

// VEPCSQFilter reports rare, non-low-impact variants carried by few samples,
// one row per record, using the VEP consequence flagged with PICK=1.
type VEPCSQFilter struct {
	csqKeys []string // parsed from the metadata on first use
}

// NewVEPCSQFilter creates a filter with an empty CSQ key cache.
func NewVEPCSQFilter() *VEPCSQFilter {
	return &VEPCSQFilter{}
}

// Begin writes the column header followed by the sample identifiers.
func (f *VEPCSQFilter) Begin(_ vcf.Metadata, samples []string, emit pipeline.Emit) error {
	header := append(append([]string{}, vepCSQColumns...), samples...)
	return emit(strings.Join(header, "\t"))
}

// Filter emits a row for records with at most six carriers whose picked
// consequence passes the frequency, impact and consequence checks.
func (f *VEPCSQFilter) Filter(rec *vcf.Record, md vcf.Metadata, _ []string, emit pipeline.Emit) error {
	carriers := 0
	for _, gt := range rec.Genotypes {
		call, _ := vcf.SplitGenotype(gt)
		if strings.Contains(call, "1") {
			carriers++
		}
	}
	if carriers > maxCarriers {
		return nil
	}

	keys, err := f.keys(md)
	if err != nil {
		return err
	}
	picked := pickCSQ(keys, rec.Info.Values("CSQ"))
	get := func(key string) string {
		if v, ok := picked[key]; ok {
			return v
		}
		return "."
	}

	consequence := get("Consequence")
	impact := get("IMPACT")
	gene := get("SYMBOL")
	gnomADAF := get("gnomAD_AF")

	if !rareInGnomAD(gnomADAF) || impact == "LOW" || excludedConsequences[consequence] {
		return nil
	}

	crcGene := "0"
	if crcGenes[gene] {
		crcGene = "1"
	}

	row := []string{
		rec.Chrom, rec.Pos, rec.Ref, rec.Alt, rec.Qual,
		consequence, impact, gene, crcGene,
		get("EXON"), get("HGVSc"), get("HGVSp"), get("PolyPhen"), get("SIFT"),
		gnomADAF, strconv.Itoa(carriers),
	}
	row = append(row, rec.Genotypes...)
	return emit(strings.Join(row, "\t"))
}

// rareInGnomAD reports whether af is at most maxGnomADAF. Unparsable
// frequencies count as absent from gnomAD; NaN is never rare.
func rareInGnomAD(af string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(af), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return true
	}
	return v <= maxGnomADAF
}

// keys returns the CSQ sub-field names, parsing them on first use.
func (f *VEPCSQFilter) keys(md vcf.Metadata) ([]string, error) {
	if f.csqKeys != nil {
		return f.csqKeys, nil
	}
	desc, ok := md.Field("INFO", "CSQ", "Description")
	if !ok || !strings.HasPrefix(desc, VEPCSQPrefix) {
		return nil, ErrNoCSQFormat
	}
	f.csqKeys = strings.Split(desc[len(VEPCSQPrefix):], "|")
	return f.csqKeys, nil
}

// pickCSQ returns the first CSQ entry with PICK=1, or nil.
func pickCSQ(keys, entries []string) map[string]string {
	for _, entry := range entries {
		values := strings.Split(entry, "|")
		csq := make(map[string]string, len(keys))
		for i, k := range keys {
			if i >= len(values) {
				break
			}
			csq[k] = values[i]
		}
		if csq["PICK"] == "1" {
			return csq
		}
	}
	return nil
}

func stringSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
