package letter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ParseError reports a syntax error in a letter formula.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formula: %d: %s", e.Pos, e.Message)
}

// Format renders s as a disjunction of cubes over proposition names.
// Cubes list literals in variable order and are sorted lexically.
func Format(s Set) string {
	if s.IsFalse() {
		return "false"
	}
	if s.IsTrue() {
		return "true"
	}

	var cubes []string
	s.a.mu.Lock()
	err := s.a.bdd.Allsat(func(vals []int) error {
		lits := make([]string, 0, len(vals))
		for v, val := range vals {
			if v >= len(s.a.names) {
				break
			}
			switch val {
			case 1:
				lits = append(lits, s.a.names[v])
			case 0:
				lits = append(lits, "!"+s.a.names[v])
			}
		}
		cubes = append(cubes, strings.Join(lits, " & "))
		return nil
	}, s.n)
	s.a.mu.Unlock()
	if err != nil {
		panic("letter: formatting: " + err.Error())
	}

	sort.Strings(cubes)
	return strings.Join(cubes, " | ")
}

// Parse reads a formula over a's propositions.
func (a *Alphabet) Parse(text string) (Set, error) {
	p := &parser{a: a, src: text}
	p.next()
	s, err := p.parseOr()
	if err != nil {
		return Set{}, err
	}
	if p.tok != tokEOF {
		return Set{}, p.errorf("unexpected %q", p.lit)
	}
	return s, nil
}

// MustParse is Parse for fixtures; it panics on error.
func (a *Alphabet) MustParse(text string) Set {
	s, err := a.Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// IsParseError reports whether err is a formula syntax error.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type token int

const (
	tokEOF token = iota
	tokIdent
	tokNot
	tokAnd
	tokOr
	tokLParen
	tokRParen
	tokInvalid
)

type parser struct {
	a   *Alphabet
	src string
	pos int // byte offset of the next unread rune
	tok token
	lit string
	at  int // offset of the current token
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Pos: p.at, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	p.at = p.pos
	if p.pos >= len(p.src) {
		p.tok, p.lit = tokEOF, ""
		return
	}

	c := p.src[p.pos]
	switch {
	case c == '!' || c == '~':
		p.tok, p.lit = tokNot, string(c)
		p.pos++
	case c == '&':
		p.tok, p.lit = tokAnd, "&"
		p.pos++
		if p.pos < len(p.src) && p.src[p.pos] == '&' {
			p.pos++
		}
	case c == '|':
		p.tok, p.lit = tokOr, "|"
		p.pos++
		if p.pos < len(p.src) && p.src[p.pos] == '|' {
			p.pos++
		}
	case c == '(':
		p.tok, p.lit = tokLParen, "("
		p.pos++
	case c == ')':
		p.tok, p.lit = tokRParen, ")"
		p.pos++
	case isIdentStart(rune(c)) || c == '0' || c == '1' || c >= 0x80:
		start := p.pos
		for p.pos < len(p.src) {
			r := rune(p.src[p.pos])
			if !isIdentPart(r) && r < 0x80 {
				break
			}
			p.pos++
		}
		p.tok, p.lit = tokIdent, p.src[start:p.pos]
	default:
		p.tok, p.lit = tokInvalid, string(c)
		p.pos++
	}
}

func (p *parser) parseOr() (Set, error) {
	left, err := p.parseAnd()
	if err != nil {
		return Set{}, err
	}
	for p.tok == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return Set{}, err
		}
		left = left.Or(right)
	}
	return left, nil
}

func (p *parser) parseAnd() (Set, error) {
	left, err := p.parseNot()
	if err != nil {
		return Set{}, err
	}
	for p.tok == tokAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return Set{}, err
		}
		left = left.And(right)
	}
	return left, nil
}

func (p *parser) parseNot() (Set, error) {
	if p.tok == tokNot {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return Set{}, err
		}
		return inner.Not(), nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Set, error) {
	switch p.tok {
	case tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return Set{}, err
		}
		if p.tok != tokRParen {
			return Set{}, p.errorf("expected ')'")
		}
		p.next()
		return inner, nil
	case tokIdent:
		lit := p.lit
		switch lit {
		case "true", "1":
			p.next()
			return p.a.True(), nil
		case "false", "0":
			p.next()
			return p.a.False(), nil
		}
		v, ok := p.a.Lookup(lit)
		if !ok {
			return Set{}, p.errorf("unknown proposition %q", lit)
		}
		p.next()
		return p.a.Var(v), nil
	case tokEOF:
		return Set{}, p.errorf("unexpected end of formula")
	default:
		return Set{}, p.errorf("unexpected %q", p.lit)
	}
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}

func isKeyword(s string) bool { return s == "true" || s == "false" }
