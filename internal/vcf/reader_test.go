package vcf

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const sampleVCF = `##fileformat=VCFv4.2
##INFO=<ID=DP,Number=1,Type=Integer,Description="Total Depth">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	S1	S2
12	25245351	.	C	A	50	PASS	DP=10;AF=0.1,0.2;SOMATIC	GT:DP	0/1:30	0/0:25

7	140753336	rs113488022	A	T	.	PASS	DP=3
short	line
`

func readAll(t *testing.T, r *Reader) []*Record {
	t.Helper()
	var records []*Record
	for {
		rec, err := r.Next()
		require.NoError(t, err)
		if rec == nil {
			return records
		}
		records = append(records, rec)
	}
}

func TestReader_Regions(t *testing.T) {
	r, err := NewReader(strings.NewReader(sampleVCF))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 2, r.MetadataLines())
	assert.True(t, r.HasHeaderLine())
	assert.Equal(t, []string{"S1", "S2"}, r.Samples())

	v, ok := r.Metadata().Scalar("fileformat")
	require.True(t, ok)
	assert.Equal(t, "VCFv4.2", v)

	records := readAll(t, r)
	require.Len(t, records, 2)

	assert.Equal(t, "12", records[0].Chrom)
	assert.Equal(t, 4, records[0].Line)
	assert.Equal(t, []string{"0/1:30", "0/0:25"}, records[0].Genotypes)

	assert.Equal(t, "7", records[1].Chrom)
	assert.Equal(t, 6, records[1].Line)
	assert.False(t, records[1].HasFormat)

	// exhausted readers stay exhausted
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestReader_NoMetadata(t *testing.T) {
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1\t.\tA\tC\t.\t.\t.\n"

	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 0, r.MetadataLines())
	assert.Empty(t, r.Metadata())
	assert.Nil(t, r.Samples())
	assert.Len(t, readAll(t, r), 1)
}

func TestReader_MissingHeaderLine(t *testing.T) {
	input := "##fileformat=VCFv4.2\n1\t1\t.\tA\tC\t.\t.\t.\n"

	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.False(t, r.HasHeaderLine())
	assert.Nil(t, r.Samples())

	// the line after the metadata was not a header, so it is a record
	records := readAll(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Line)
}

func TestReader_MetadataMustBeContiguous(t *testing.T) {
	input := "##a=1\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n##b=2\n1\t1\t.\tA\tC\t.\t.\t.\n"

	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, r.MetadataLines())
	_, ok := r.Metadata().Scalar("b")
	assert.False(t, ok)
	assert.Len(t, readAll(t, r), 1)
}

func TestReader_MalformedHeaderWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	input := "##fileformat=VCFv4.2\n#CHROM\tPOS\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n1\t1\t.\tA\tC\t.\t.\t.\tGT\t0/1\n"

	r, err := NewReader(strings.NewReader(input), WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.True(t, r.HasHeaderLine())
	assert.Nil(t, r.Samples())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "header missing mandatory fields", logs.All()[0].Message)

	records := readAll(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"0/1"}, records[0].Genotypes)
}

func TestReader_EmptyInput(t *testing.T) {
	r, err := NewReader(strings.NewReader(""))
	require.NoError(t, err)

	assert.Empty(t, r.Metadata())
	assert.Nil(t, r.Samples())
	assert.Empty(t, readAll(t, r))
}

func TestReader_LastLineWithoutNewline(t *testing.T) {
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1\t.\tA\tC\t.\t.\tDP=1"

	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)

	records := readAll(t, r)
	require.Len(t, records, 1)
	dp, _ := records[0].Info.Get("DP")
	assert.Equal(t, "1", dp)
}

func TestOpen_Gzip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleVCF))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	gzPath := filepath.Join(dir, "sample.vcf.gz")
	require.NoError(t, os.WriteFile(gzPath, buf.Bytes(), 0644))
	plainPath := filepath.Join(dir, "sample.vcf")
	require.NoError(t, os.WriteFile(plainPath, []byte(sampleVCF), 0644))

	for _, path := range []string{gzPath, plainPath} {
		r, err := Open(path)
		require.NoError(t, err)

		assert.Equal(t, []string{"S1", "S2"}, r.Samples())
		records := readAll(t, r)
		require.Len(t, records, 2)
		assert.Equal(t, "25245351", records[0].Pos)
		require.NoError(t, r.Close())
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.vcf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "read line",
	}

	assert.Equal(t, "vcf parse error at line 42: read line", err.Error())
}
