package compose

import (
	"fmt"
	"path/filepath"
	"strings"
)

// pascalPrefix derives the PascalCase_ namespace prefix from a
// subgrammar file name: "path_parser.yaml" -> "PathParser_".
func pascalPrefix(file string) string {
	base := filepath.Base(file)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}

	segments := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})

	var b strings.Builder
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	b.WriteByte('_')
	return b.String()
}

// uniquePrefix disambiguates two distinct subgrammar files that would
// otherwise derive the same namespace (e.g. dir_a/util.yaml and
// dir_b/util.yaml), appending a numeric suffix to the second and later.
func (c *composer) uniquePrefix(base string) string {
	n := c.usedPrefix[base]
	c.usedPrefix[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%d_", strings.TrimSuffix(base, "_"), n+1)
}
