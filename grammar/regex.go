package grammar

import (
	"regexp"
	"strings"
)

// CompileRegex anchors pattern to the start of the remaining input and
// enables leftmost-longest matching, the shape both the lexer and the
// recognizer need from every regex/token pattern (spec.md §4.2/§4.3's
// longest-match rule). \Z, spec.md §4.3's spelling for end-of-input,
// is translated to \z since RE2 (Go's regexp engine) only recognizes
// the latter.
func CompileRegex(pattern string) (*regexp.Regexp, error) {
	translated := strings.ReplaceAll(pattern, `\Z`, `\z`)
	re, err := regexp.Compile("^(?:" + translated + ")")
	if err != nil {
		return nil, err
	}
	re.Longest()
	return re, nil
}
