// Package argv splits console input lines into arguments and expands
// environment references, following the conventions of small embedded
// shells: whitespace separates words, single and double quotes group them,
// and a backslash escapes the next character.
package argv

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrUnterminatedQuote is returned by Split when a quoted word is not closed
// before the end of the line.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// Word is a single argument together with its position in the source line.
// Start and End are rune offsets; End is exclusive.
type Word struct {
	Text   string
	Start  int
	End    int
	Quoted bool
}

// Split tokenizes line into arguments. An unterminated quote yields the words
// parsed so far (the open word included) and ErrUnterminatedQuote.
func Split(line string) ([]string, error) {
	words, err := Words(line)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out, err
}

// Words is Split, retaining word positions.
func Words(line string) ([]Word, error) {
	var (
		words   []Word
		buf     strings.Builder
		quote   rune
		escaped bool
		inWord  bool
		quoted  bool
		start   int
		pos     int
	)

	flush := func(end int) {
		if inWord {
			words = append(words, Word{Text: buf.String(), Start: start, End: end, Quoted: quoted})
		}
		buf.Reset()
		inWord, quoted = false, false
	}

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		i += size
		cur := pos
		pos++

		if !inWord && !isSpace(r) {
			inWord, start = true, cur
		}

		switch {
		case escaped:
			// inside double quotes only a few characters are escapable
			if quote == '"' && r != '"' && r != '\\' && r != '$' {
				buf.WriteRune('\\')
			}
			buf.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				buf.WriteRune(r)
			}
		case r == '\\':
			escaped = true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				buf.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, quoted = r, true
		case isSpace(r):
			flush(cur)
		default:
			buf.WriteRune(r)
		}
	}

	if escaped {
		buf.WriteRune('\\')
	}
	flush(pos)

	if quote != 0 {
		return words, ErrUnterminatedQuote
	}
	return words, nil
}

// Current returns the word under a cursor positioned at the end of line, used
// for completion. If the line ends in whitespace the returned word is empty
// and starts at the end of the line.
func Current(line string) Word {
	end := utf8.RuneCountInString(line)
	words, _ := Words(line)
	if n := len(words); n > 0 && words[n-1].End == end {
		return words[n-1]
	}
	return Word{Start: end, End: end}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
