package lang

import (
	"errors"
	"log/slog"
	"math"
	"strconv"

	"github.com/ardnew/scfg/lang/token"
)

// expression evaluates operand ('+' operand)* in s.
func (p *processor) expression(s *Scope) (*Entry, error) {
	left, err := p.operand(s)
	if err != nil {
		return nil, err
	}

	for p.peek().Is("+") {
		op := p.next()

		right, err := p.operand(s)
		if err != nil {
			return nil, err
		}

		sum, err := p.add(op, left, right)

		p.release(left)
		p.release(right)

		if err != nil {
			return nil, err
		}

		left = sum
	}

	return left, nil
}

// add implements the '+' overload. A String may not lead a mixed addition.
func (p *processor) add(op token.Token, a, b *Entry) (*Entry, error) {
	at, bt := a.Type(), b.Type()

	switch {
	case at == TypeNumber && bt == TypeNumber:
		sum := a.AsDouble() + b.AsDouble()
		if math.IsInf(sum, 0) || math.IsNaN(sum) {
			return nil, ErrTypeMismatch.At(op).Because(
				"sum of " + FormatNumber(a.AsDouble()) + " and " +
					FormatNumber(b.AsDouble()) + " is not a finite Number",
			)
		}

		return p.temp(NewNumber(sum)), nil

	case at == TypeString && bt == TypeString,
		at == TypeNumber && bt == TypeString:
		return p.temp(NewString(a.AsString() + b.AsString())), nil

	case at == TypeString && bt == TypeNumber:
		return nil, ErrTypeMismatch.At(op).Because(
			"cannot add Number to String; a String cannot lead a mixed addition",
		)

	default:
		return nil, ErrTypeMismatch.At(op).Because(
			"cannot add " + bt.String() + " to " + at.String(),
		)
	}
}

// operand evaluates a single value with its trailing accessors.
func (p *processor) operand(s *Scope) (*Entry, error) {
	v, err := p.primary(s)
	if err != nil {
		return nil, err
	}

	return p.accessors(v)
}

func (p *processor) primary(s *Scope) (*Entry, error) {
	t := p.peek()

	switch {
	case t.Kind == token.Number:
		p.next()

		f, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			return nil, ErrLexical.At(t).Because(
				"number " + strconv.Quote(t.Lexeme) + " is out of range",
			)
		}

		return p.temp(NewNumber(f)), nil

	case t.Kind == token.Char:
		p.next()

		return p.temp(NewNumber(float64([]rune(t.Lexeme)[0]))), nil

	case t.Kind == token.String:
		p.next()

		return p.temp(NewString(t.Lexeme)), nil

	case t.Is("-"):
		p.next()

		x, err := p.operand(s)
		if err != nil {
			return nil, err
		}

		if !x.IsNumeric() {
			return nil, ErrTypeMismatch.At(t).Because(
				"cannot negate a " + x.Type().String(),
			)
		}

		neg := p.temp(NewNumber(-x.AsDouble()))
		p.release(x)

		return neg, nil

	case t.Is("("):
		p.next()

		v, err := p.expression(s)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(")"); err != nil {
			return nil, err
		}

		return v, nil

	case t.Is("["):
		return p.arrayLiteral(s)

	case t.Is(":"):
		return p.view(s), nil

	case t.Kind == token.Identifier && p.peekAt(1).Is("("):
		return p.call(s)

	case (t.Kind == token.DotRun || t.Is("@")) && p.peekAt(1).Is(":"):
		cur, _, err := p.scopePrefix(s)
		if err != nil {
			return nil, err
		}

		return p.view(cur), nil

	case t.Kind == token.Identifier, t.Kind == token.DotRun, t.Is("@"):
		return p.reference(s, false)

	default:
		return nil, ErrUnexpectedToken.At(t).Because(
			"expected a value, found " + t.String(),
		)
	}
}

// view returns a temporary struct entry that borrows s, so accessors can be
// applied to a scope that has no entry of its own.
func (p *processor) view(s *Scope) *Entry {
	e := p.tree.newEntry(KindStruct)
	e.name = s.name
	e.child = s.id
	e.flags |= flagView

	return p.temp(e)
}

// arrayLiteral evaluates "[ expr, ... ]". Elements must share one type and
// may not be structs or functions.
func (p *processor) arrayLiteral(s *Scope) (*Entry, error) {
	p.next()

	arr := p.temp(p.tree.newEntry(KindArray))

	if p.peek().Is("]") {
		p.next()

		return arr, nil
	}

	for {
		at := p.peek()

		el, err := p.expression(s)
		if err != nil {
			return nil, err
		}

		switch el.Type() {
		case TypeNumber, TypeString, TypeArray:
		default:
			return nil, ErrTypeMismatch.At(at).Because(
				"array elements must be Number, String or Array, not " +
					el.Type().String(),
			)
		}

		if len(arr.elems) > 0 && el.Type() != arr.elems[0].Type() {
			return nil, ErrTypeMismatch.At(at).Because(
				"array elements must share one type: found " + el.Type().String() +
					" after " + arr.elems[0].Type().String(),
			)
		}

		if el.IsTemporary() {
			p.take(el)
		} else {
			el = el.Clone()
		}

		el.name = ""
		el.desc, el.def, el.hasDf = "", "", false
		el.owner = noScope

		arr.elems = append(arr.elems, el)

		switch t := p.peek(); {
		case t.Is(","):
			p.next()
		case t.Is("]"):
			p.next()

			return arr, nil
		default:
			return nil, ErrUnexpectedToken.At(t).Because(
				"expected ',' or ']' in array, found " + t.String(),
			)
		}
	}
}

// call evaluates "name(args)". The function is looked up through enclosing
// scopes like any other read.
func (p *processor) call(s *Scope) (*Entry, error) {
	name := p.next()
	p.next() // '('

	fe, ok := s.Lookup(name.Lexeme, true)
	if !ok {
		return nil, ErrUndefinedReference.At(name).Because(
			"function '" + name.Lexeme + "' is not defined in " + s.describe() +
				" or any enclosing scope",
		)
	}

	var args []*Entry

	for !p.peek().Is(")") {
		if len(args) > 0 {
			if _, err := p.expect(","); err != nil {
				return nil, err
			}
		}

		a, err := p.expression(s)
		if err != nil {
			return nil, err
		}

		args = append(args, a)
	}

	p.next() // ')'

	v, err := p.invoke(s, name, fe, args)

	for _, a := range args {
		p.release(a)
	}

	return v, err
}

// invoke calls function entry fe. Script bodies are evaluated in a fresh
// scope nested in the scope that defined them, holding one entry per
// parameter. The result is always a temporary.
func (p *processor) invoke(s *Scope, name token.Token, fe *Entry, args []*Entry) (*Entry, error) {
	fn, ok := fe.Function()
	if !ok {
		return nil, ErrTypeMismatch.At(name).Because(
			"'" + name.Lexeme + "' is a " + fe.Type().String() + ", not a Function",
		)
	}

	if !fn.variadic && len(args) != len(fn.Params) {
		return nil, ErrArgumentCountMismatch.At(name).Because(
			"'" + name.Lexeme + "' takes " + strconv.Itoa(len(fn.Params)) +
				" arguments, got " + strconv.Itoa(len(args)),
		)
	}

	if p.depth >= p.tree.opts.maxCallDepth {
		return nil, ErrMaxDepthExceeded.At(name).Because(
			"calling '" + name.Lexeme + "' exceeds depth " +
				strconv.Itoa(p.tree.opts.maxCallDepth),
		)
	}

	p.depth++
	defer func() { p.depth-- }()

	p.tree.logger.TraceContext(p.ctx, "call",
		slog.String("scope", s.Path()),
		slog.String("function", name.Lexeme),
		slog.Int("args", len(args)),
		slog.Int("depth", p.depth),
	)

	if fn.native != nil {
		out, err := fn.native(args)
		if err != nil {
			var le *Error
			if errors.As(err, &le) {
				return nil, le.At(name)
			}

			return nil, ErrInternal.At(name).Because(
				"function '" + name.Lexeme + "' failed",
			).Wrap(err)
		}

		if out == nil {
			out = NewNumber(0)
		}

		if out.owner != noScope || out.IsTemporary() {
			out = out.Clone()
		}

		return p.temp(out), nil
	}

	if p.tree.scope(fn.scope) == nil {
		return nil, ErrUndefinedReference.At(name).Because(
			"the scope that defined '" + name.Lexeme + "' no longer exists",
		)
	}

	frame := p.tree.newScope(fn.scope, name.Lexeme+"()", "")
	defer p.tree.release(frame.id)

	for i, param := range fn.Params {
		a := args[i]

		var e *Entry

		if a.IsTemporary() && a.flags&flagView == 0 {
			p.take(a)

			e = a
		} else {
			e = a.Clone()
		}

		frame.Replace(param, e)
	}

	sub := &processor{state: p.state, toks: fn.body}

	v, err := sub.expression(frame)
	if err != nil {
		return nil, err
	}

	if t := sub.peek(); t.Kind != token.EOF {
		return nil, ErrUnexpectedToken.At(t).Because(
			"expected end of function body, found " + t.String(),
		)
	}

	if v.IsTemporary() && v.flags&flagView == 0 {
		return v, nil
	}

	return p.temp(v.Clone()), nil
}
