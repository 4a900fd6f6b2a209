package vcf

import (
	"regexp"
	"strings"
)

// MetadataPrefix marks a meta-information line (##NAME=VALUE).
const MetadataPrefix = "##"

var metadataLine = regexp.MustCompile(`^##([^=]*)=(.*)$`)

// Directive is the value of one meta-information name.
// A scalar directive holds the raw text after '='. A structured directive
// (##NAME=<ID=...,...>) holds its entries indexed by their ID sub-key.
type Directive struct {
	Value   string
	Entries map[string]map[string]string
}

// IsStructured reports whether the directive was declared with <...>.
func (d *Directive) IsStructured() bool {
	return d.Entries != nil
}

// Metadata maps directive names (case-sensitive) to their values.
type Metadata map[string]*Directive

// Scalar returns the raw value of a scalar directive.
func (m Metadata) Scalar(name string) (string, bool) {
	d, ok := m[name]
	if !ok || d.IsStructured() {
		return "", false
	}
	return d.Value, true
}

// Lookup returns the sub-key/value map of the structured entry name/id,
// e.g. Lookup("INFO", "CSQ").
func (m Metadata) Lookup(name, id string) (map[string]string, bool) {
	d, ok := m[name]
	if !ok || !d.IsStructured() {
		return nil, false
	}
	entry, ok := d.Entries[id]
	return entry, ok
}

// Field returns a single sub-value, e.g. Field("INFO", "DP", "Description").
func (m Metadata) Field(name, id, key string) (string, bool) {
	entry, ok := m.Lookup(name, id)
	if !ok {
		return "", false
	}
	v, ok := entry[key]
	return v, ok
}

// ParseMetadataLine folds a single ## line into md. Lines that do not have
// the NAME=VALUE shape are ignored.
func ParseMetadataLine(md Metadata, line string) {
	m := metadataLine.FindStringSubmatch(line)
	if m == nil {
		return
	}
	name, body := m[1], m[2]

	entry, structured := parseStructured(body)
	if !structured {
		md[name] = &Directive{Value: body}
		return
	}

	d, ok := md[name]
	if !ok || !d.IsStructured() {
		d = &Directive{Entries: make(map[string]map[string]string)}
		md[name] = d
	}
	if id, ok := entry["ID"]; ok {
		d.Entries[id] = entry
	}
}

// parseStructured splits a <K1=V1,K2="V2"> body. Pieces without exactly one
// '=' are skipped, so quoted values containing ',' or '=' are truncated.
func parseStructured(body string) (map[string]string, bool) {
	if !strings.HasPrefix(body, "<") || !strings.HasSuffix(body, ">") {
		return nil, false
	}

	entry := make(map[string]string)
	for _, field := range strings.Split(body[1:len(body)-1], ",") {
		kv := strings.Split(field, "=")
		if len(kv) != 2 {
			continue
		}
		entry[kv[0]] = stripQuotes(kv[1])
	}
	return entry, true
}

func stripQuotes(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "'") {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) || strings.HasSuffix(s, "'") {
		s = s[:len(s)-1]
	}
	return s
}
