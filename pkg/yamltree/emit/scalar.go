package emit

import "bytes"

// needsBlock reports whether a scalar should be written as a literal
// block: it contains a newline and is not whitespace through and through
// (all-whitespace scalars round-trip better quoted).
func needsBlock(s []byte) bool {
	return bytes.IndexByte(s, '\n') >= 0 && len(bytes.TrimSpace(s)) > 0
}

// yamlBlockScalar writes s as a literal block scalar: the "|" header with
// a chomping indicator chosen by the count of trailing newlines, then the
// body lines one level deeper. It terminates its own output.
func (e *emitter) yamlBlockScalar(s []byte, ilevel int) {
	trailing := 0
	for trailing < len(s) && s[len(s)-1-trailing] == '\n' {
		trailing++
	}

	switch {
	case trailing == 0:
		e.ws("|-")
	case trailing == 1:
		e.ws("|")
	default:
		e.ws("|+")
	}

	e.nl()

	body := s[:len(s)-trailing]
	for _, line := range bytes.Split(body, []byte("\n")) {
		e.indent(ilevel + 1)
		e.write(line)
		e.nl()
	}

	for i := 1; i < trailing; i++ {
		e.nl()
	}
}

// yamlScalar writes s as a plain or quoted flow scalar, deciding per the
// quoting rules: quote when the source was quoted, or when a non-numeric
// scalar carries boundary whitespace, starts like an alias/anchor/merge
// marker, or contains structural punctuation.
func (e *emitter) yamlScalar(s []byte, wasQuoted bool) {
	if len(s) == 0 {
		if s == nil {
			e.ws("~")
		} else {
			e.ws("''")
		}

		return
	}

	if !wasQuoted && (isNumeric(s) || !needsQuoting(s)) {
		e.write(s)
		return
	}

	hasSingle := bytes.IndexByte(s, '\'') >= 0
	hasDouble := bytes.IndexByte(s, '"') >= 0

	switch {
	case hasDouble && !hasSingle:
		e.ws("'")
		e.write(s)
		e.ws("'")

	case hasSingle && !hasDouble:
		e.ws(`"`)
		e.write(s)
		e.ws(`"`)

	default:
		e.ws("'")

		for _, b := range s {
			switch b {
			case '\'':
				e.ws("''")
			case '\n':
				e.ws("\n\n")
			default:
				e.write([]byte{b})
			}
		}

		e.ws("'")
	}
}

// quotedChars is the set of bytes whose presence anywhere in a scalar
// forces quoting.
const quotedChars = "#:-?,\n{}[]'\""

func needsQuoting(s []byte) bool {
	if isSpace(s[0]) || isSpace(s[len(s)-1]) {
		return true
	}

	if s[0] == '*' || s[0] == '&' {
		return true
	}

	if bytes.HasPrefix(s, []byte("<<")) {
		return true
	}

	return bytes.ContainsAny(s, quotedChars)
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

// isNumeric reports whether s is a numeric literal: an optional sign,
// digits with at most one decimal point, and an optional exponent.
func isNumeric(s []byte) bool {
	i := 0
	if s[i] == '-' || s[i] == '+' {
		i++
	}

	digits, dot := 0, false

	for ; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++

		case s[i] == '.':
			if dot {
				return false
			}
			dot = true

		case s[i] == 'e' || s[i] == 'E':
			return digits > 0 && isExponent(s[i+1:])

		default:
			return false
		}
	}

	return digits > 0
}

func isExponent(s []byte) bool {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}

	if i == len(s) {
		return false
	}

	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
