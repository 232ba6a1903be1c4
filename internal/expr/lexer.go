package expr

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

type kind int

const (
	tokEOF kind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokLBrack
	tokRBrack
	tokComma
)

type token struct {
	kind kind
	text string
	num  float64
	pos  int
}

// SyntaxError reports a malformed expression. Pos is a byte offset into the
// source.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("col %d: %s", e.Pos+1, e.Msg)
}

func errorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// numpyPrefix is accepted in front of any identifier and dropped, so that
// expressions written against numpy ("np.exp(b * x)") read the same.
const numpyPrefix = "np"

func isIdentStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r byte) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r byte) bool {
	return r >= '0' && r <= '9'
}

func lex(
	src string,
) (
	[]token, error,
) {

	var toks []token
	i := 0

	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			text := src[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errorf(start, "bad number %q", text)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: v, pos: start})

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			name := src[start:i]
			if name == numpyPrefix && i < len(src) && src[i] == '.' {
				i++
				inner := i
				for i < len(src) && isIdentPart(src[i]) {
					i++
				}
				if inner == i || !isIdentStart(src[inner]) {
					return nil, errorf(inner, "expected name after %q", numpyPrefix+".")
				}
				name = src[inner:i]
			}
			toks = append(toks, token{kind: tokIdent, text: name, pos: start})

		case c == '*':
			if i+1 < len(src) && src[i+1] == '*' {
				toks = append(toks, token{kind: tokOp, text: "**", pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokOp, text: "*", pos: i})
			i++

		case c == '+' || c == '-' || c == '/' || c == '^':
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBrack, text: "[", pos: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBrack, text: "]", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++

		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, errorf(i, "unexpected character %q", r)
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}
