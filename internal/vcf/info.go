package vcf

import (
	"sort"
	"strings"
)

// Info holds decoded INFO key=value pairs. A value with a single element is
// a scalar; comma-separated values decode to two or more elements.
type Info map[string][]string

// DecodeInfo parses a semicolon-separated INFO column. Segments without
// exactly one '=' (flags, malformed pairs) are dropped.
func DecodeInfo(text string) Info {
	info := make(Info)
	for _, segment := range strings.Split(text, ";") {
		kv := strings.Split(segment, "=")
		if len(kv) != 2 {
			continue
		}
		info[kv[0]] = strings.Split(kv[1], ",")
	}
	return info
}

// EncodeInfo renders info with keys in sorted order. For single-valued
// maps DecodeInfo(EncodeInfo(info)) returns info unchanged.
func EncodeInfo(info Info) string {
	keys := info.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strings.Join(info[k], ",")
	}
	return strings.Join(parts, ";")
}

// Get returns the raw value of key, with multiple values comma-joined.
func (info Info) Get(key string) (string, bool) {
	v, ok := info[key]
	if !ok {
		return "", false
	}
	return strings.Join(v, ","), true
}

// Values returns the value list for key, or nil when absent.
func (info Info) Values(key string) []string {
	return info[key]
}

// IsMulti reports whether key decoded to a list of values.
func (info Info) IsMulti(key string) bool {
	return len(info[key]) > 1
}

// Keys returns the INFO keys in sorted order.
func (info Info) Keys() []string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
