package lang

import (
	"strconv"

	"github.com/ardnew/scfg/lang/lexer"
	"github.com/ardnew/scfg/lang/token"
)

// scopePrefix consumes an optional leading DotRun or '@' and returns the
// scope the reference starts from. exact is true when either prefix was
// present, which disables the search through enclosing scopes.
func (p *processor) scopePrefix(s *Scope) (cur *Scope, exact bool, err error) {
	t := p.peek()

	switch {
	case t.Kind == token.DotRun:
		p.next()

		cur, err = climb(s, t)

		return cur, true, err

	case t.Is("@"):
		p.next()

		return p.tree.Root(), true, nil
	}

	return s, false, nil
}

// climb walks dots.Len()-1 parents up from s.
func climb(s *Scope, dots token.Token) (*Scope, error) {
	cur := s

	for range dots.Len() - 1 {
		parent, ok := cur.Parent()
		if !ok {
			return nil, ErrScopeUnderflow.At(dots).Because(
				strconv.Itoa(dots.Len()) + " dots climb past the global scope from " +
					s.describe(),
			)
		}

		cur = parent
	}

	return cur, nil
}

// reference resolves a variable reference in s.
//
// Without a prefix, a read searches s and then each enclosing scope, while a
// write (createOK) searches only s. A leading DotRun or '@' makes the lookup
// exact. In create mode an unknown final name becomes a placeholder.
func (p *processor) reference(s *Scope, createOK bool) (*Entry, error) {
	cur, exact, err := p.scopePrefix(s)
	if err != nil {
		return nil, err
	}

	name := p.peek()
	if name.Kind != token.Identifier {
		return nil, ErrUnexpectedToken.At(name).Because(
			"expected identifier, found " + name.String(),
		)
	}

	p.next()

	e, err := p.member(cur, name, !exact && !createOK, createOK)
	if err != nil {
		return nil, err
	}

	return p.postfix(s, e, createOK)
}

// member looks name up in cur. A placeholder is created only when createOK
// is set and the name ends the reference.
func (p *processor) member(cur *Scope, name token.Token, outer, createOK bool) (*Entry, error) {
	if e, ok := cur.Lookup(name.Lexeme, outer); ok {
		return e, nil
	}

	if createOK && !p.continuesPath() {
		e, err := cur.AddPlaceholder(name.Lexeme)
		if err != nil {
			return nil, WrapError(err).At(name)
		}

		return e, nil
	}

	where := cur.describe()
	if outer {
		where += " or any enclosing scope"
	}

	return nil, ErrUndefinedReference.At(name).Because(
		"'" + name.Lexeme + "' is not defined in " + where,
	)
}

func (p *processor) continuesPath() bool {
	t := p.peek()

	return t.Kind == token.DotRun || t.Is("[")
}

// postfix applies member access chains and index operators to e. Index
// expressions are evaluated in s, the scope of the enclosing statement.
func (p *processor) postfix(s *Scope, e *Entry, createOK bool) (*Entry, error) {
	for {
		t := p.peek()

		switch {
		case t.Kind == token.DotRun:
			child, ok := e.Struct()
			if !ok {
				return nil, ErrInvalidMemberAccess.At(t).Because(
					"'" + e.name + "' is a " + e.Type().String() + ", not a Struct",
				)
			}

			p.next()

			cur, err := climb(child, t)
			if err != nil {
				return nil, err
			}

			name := p.peek()
			if name.Kind != token.Identifier {
				return nil, ErrUnexpectedToken.At(name).Because(
					"expected member name, found " + name.String(),
				)
			}

			p.next()

			if e, err = p.member(cur, name, false, createOK); err != nil {
				return nil, err
			}

		case t.Is("["):
			p.next()

			idx, err := p.expression(s)
			if err != nil {
				return nil, err
			}

			if _, err := p.expect("]"); err != nil {
				return nil, err
			}

			e, err = p.index(e, idx, t, createOK)
			p.release(idx)

			if err != nil {
				return nil, err
			}

		default:
			return e, nil
		}
	}
}

// index selects an array element by number or a struct member by name.
func (p *processor) index(e, idx *Entry, at token.Token, createOK bool) (*Entry, error) {
	switch e.kind {
	case KindArray:
		if !idx.IsNumeric() {
			return nil, ErrTypeMismatch.At(at).Because(
				"array index must be a Number, not a " + idx.Type().String(),
			)
		}

		f := idx.AsDouble()
		i := int(f)

		if float64(i) != f || i < 0 || i >= len(e.elems) {
			return nil, ErrIndexOutOfRange.At(at).Because(
				"index " + FormatNumber(f) + " is out of range for '" + e.name +
					"' of size " + strconv.Itoa(len(e.elems)),
			)
		}

		return e.elems[i], nil

	case KindStruct:
		if !idx.IsString() {
			return nil, ErrTypeMismatch.At(at).Because(
				"struct index must be a String, not a " + idx.Type().String(),
			)
		}

		if !lexer.IsIdentifier(idx.AsString()) {
			return nil, ErrInvalidMemberAccess.At(at).Because(
				strconv.Quote(idx.AsString()) + " is not a valid member name",
			)
		}

		child, _ := e.Struct()
		name := token.Token{
			Kind:   token.Identifier,
			Lexeme: idx.AsString(),
			Pos:    at.Pos,
			Line:   at.Line,
			Column: at.Column,
		}

		return p.member(child, name, false, createOK)

	default:
		return nil, ErrInvalidMemberAccess.At(at).Because(
			"'" + e.name + "' is a " + e.Type().String() + " and cannot be indexed",
		)
	}
}
