package yamltree

import (
	"strconv"
	"strings"
)

// builtinTags is the YAML 1.2 core schema's built-in tag set, recognized in
// both !!foo shorthand and tag:yaml.org,2002:foo secondary-handle form.
var builtinTags = map[string]bool{
	"map": true, "omap": true, "pairs": true, "set": true, "seq": true,
	"binary": true, "bool": true, "float": true, "int": true, "merge": true,
	"null": true, "str": true, "timestamp": true, "value": true, "yaml": true,
}

const secondaryHandle = "tag:yaml.org,2002:"

// NormalizeTag canonicalizes a tag string: it strips the !<...> verbatim
// wrapping, decodes %NN percent-escapes, and rewrites any recognized
// built-in tag (in either !!foo or tag:yaml.org,2002:foo form, the latter
// possibly followed by a URI-escaped fragment) to its canonical !!foo
// spelling. Anything else is passed through unchanged but still unwrapped
// and unescaped.
func NormalizeTag(s string) string {
	s = unwrapVerbatim(s)
	s = percentDecode(s)

	if name, ok := strings.CutPrefix(s, "!!"); ok {
		if builtinTags[name] {
			return "!!" + name
		}
		return s
	}

	if name, ok := strings.CutPrefix(s, secondaryHandle); ok {
		if builtinTags[name] {
			return "!!" + name
		}
		return s
	}

	return s
}

func unwrapVerbatim(s string) string {
	if strings.HasPrefix(s, "!<") && strings.HasSuffix(s, ">") {
		return s[2 : len(s)-1]
	}
	return s
}

func percentDecode(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}

	return b.String()
}
