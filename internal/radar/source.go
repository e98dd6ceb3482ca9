package radar

import "strings"

// Source is a parsed ODIM source string.
type Source map[string]string

// ParseSource splits "KEY:value,KEY:value". Malformed pairs are ignored.
func ParseSource(s string) Source {
	src := Source{}
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || k == "" {
			continue
		}
		src[strings.ToUpper(k)] = v
	}
	return src
}

// nodeKeys is the lookup order for the node identifier.
var nodeKeys = []string{"NOD", "CMT", "RAD", "WMO", "PLC"}

// Node returns the node identifier, or "" when the source carries none of the
// known keys.
func (s Source) Node() string {
	for _, k := range nodeKeys {
		if v := s[k]; v != "" {
			return v
		}
	}
	return ""
}
