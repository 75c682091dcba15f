package lang

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/scfg/lang/token"
)

// errStop unwinds the statement loops once the error limit is reached.
var errStop = errors.New("load stopped")

// state is shared by a processor and every sub-processor it spawns to
// evaluate function bodies.
type state struct {
	ctx   context.Context
	tree  *Tree
	text  string
	temps []*Entry
	diags Diagnostics
	depth int
}

// processor is a recursive-descent walker over one token sequence.
type processor struct {
	*state

	toks []token.Token
	pos  int
}

func newProcessor(ctx context.Context, t *Tree, text string, toks []token.Token) *processor {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF, Pos: len(text)})
	}

	return &processor{
		state: &state{ctx: ctx, tree: t, text: text},
		toks:  toks,
	}
}

func (p *processor) peek() token.Token { return p.toks[p.pos] }

func (p *processor) peekAt(n int) token.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}

	return p.toks[len(p.toks)-1]
}

func (p *processor) next() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}

	return t
}

func (p *processor) expect(sym string) (token.Token, error) {
	t := p.peek()
	if !t.Is(sym) {
		return t, ErrUnexpectedToken.At(t).Because(
			"expected '" + sym + "', found " + t.String(),
		)
	}

	return p.next(), nil
}

// run processes the whole token sequence against the global scope.
func (p *processor) run() error {
	err := p.statements(p.tree.Root(), false)

	p.sweep()

	if err != nil && !errors.Is(err, errStop) {
		return err
	}

	if p.tree.live != 0 {
		p.diags = append(p.diags, ErrInternal.Because(
			strconv.Itoa(p.tree.live)+" temporaries were never released",
		))
		p.tree.live = 0
	}

	if len(p.diags) > 0 {
		p.tree.logger.DebugContext(p.ctx, "load failed",
			slog.Int("diagnostics", len(p.diags)),
		)

		return p.diags
	}

	return nil
}

// statements processes statements in s until end of input or, when nested,
// until a closing brace, which is left unconsumed.
func (p *processor) statements(s *Scope, nested bool) error {
	for {
		if err := p.ctx.Err(); err != nil {
			return err
		}

		t := p.peek()

		switch {
		case t.Kind == token.EOF:
			if nested {
				if stop := p.report(ErrUnexpectedToken.At(t).Because(
					"expected '}' to close " + s.describe() + ", found " + t.String(),
				)); stop != nil {
					return stop
				}

				return errStop
			}

			return nil

		case nested && t.Is("}"):
			return nil
		}

		err := p.statement(s)

		p.sweep()

		if err == nil {
			continue
		}

		if errors.Is(err, errStop) || p.ctx.Err() != nil {
			return err
		}

		if stop := p.report(err); stop != nil {
			return stop
		}

		p.recover(nested)
	}
}

// report records a diagnostic and returns errStop once the limit is hit.
func (p *processor) report(err error) error {
	e := WrapError(err)

	p.diags = append(p.diags, e)
	p.tree.logger.DebugContext(p.ctx, "diagnostic", slog.Any("error", e))

	if limit := p.tree.opts.errorLimit; limit > 0 && len(p.diags) >= limit {
		return errStop
	}

	return nil
}

// recover skips to the start of the next statement at the current nesting
// depth: past the next ';', or up to (not past) the '}' closing a nested
// body.
func (p *processor) recover(nested bool) {
	depth := 0

	for {
		t := p.peek()

		switch {
		case t.Kind == token.EOF:
			return
		case t.Is("{"):
			depth++
		case t.Is("}"):
			if depth == 0 && nested {
				return
			}

			if depth > 0 {
				depth--
			}
		case t.Is(";") && depth == 0:
			p.next()

			return
		}

		p.next()
	}
}

// statement processes one statement in s.
func (p *processor) statement(s *Scope) error {
	start := p.peek()

	if start.Is(";") {
		p.next()

		return nil
	}

	p.tree.logger.TraceContext(p.ctx, "statement",
		slog.String("scope", s.Path()),
		slog.Int("line", start.Line),
	)

	if start.Kind == token.Identifier && p.peekAt(1).Is("(") {
		return p.functionLiteral(s)
	}

	lhs, err := p.reference(s, true)
	if err != nil {
		return err
	}

	defer p.abandon(lhs)

	if _, err := p.expect("="); err != nil {
		return err
	}

	if p.peek().Is("{") {
		return p.structLiteral(lhs, start)
	}

	rhs, err := p.expression(s)
	if err != nil {
		return err
	}

	if t := p.peek(); !t.Is(";") {
		return ErrUnexpectedToken.At(t).Because(
			"expected ';' after value, found " + t.String(),
		)
	}

	if err := p.assign(lhs, rhs, start); err != nil {
		return err
	}

	p.next()

	return nil
}

// abandon removes lhs if it is a placeholder still occupying its slot, so a
// failed statement never leaves a placeholder visible to later statements.
// Placeholders reserved by the host are kept.
func (p *processor) abandon(lhs *Entry) {
	if !lhs.IsPlaceholder() || lhs.hasDf {
		return
	}

	if s := lhs.Scope(); s != nil && s.entries[lhs.name] == lhs {
		delete(s.entries, lhs.name)
	}
}

// assign reconciles an assignment of rhs to lhs. Errors are blamed on the
// statement's first token.
func (p *processor) assign(lhs, rhs *Entry, start token.Token) error {
	if lhs.IsPlaceholder() {
		s := lhs.Scope()
		if s == nil {
			return ErrInternal.At(start).Because("placeholder has no scope")
		}

		var e *Entry

		if rhs.IsTemporary() && rhs.flags&flagView == 0 {
			p.take(rhs)

			e = rhs
		} else {
			e = rhs.Clone()
		}

		e.desc, e.def, e.hasDf = lhs.desc, lhs.def, lhs.hasDf

		s.Replace(lhs.name, e)

		p.tree.logger.TraceContext(p.ctx, "promote",
			slog.String("scope", s.Path()),
			slog.String("name", lhs.name),
			slog.String("type", e.Type().String()),
		)

		return nil
	}

	if lt, rt := lhs.Type(), rhs.Type(); lt != rt {
		return ErrTypeMismatch.At(start).Because(
			"cannot assign " + rt.String() + " to " + lt.String() +
				" '" + lhs.name + "'",
		)
	}

	err := lhs.CopyValue(rhs)
	p.release(rhs)

	if err != nil {
		return WrapError(err).At(start)
	}

	return nil
}

// structLiteral processes "{ statements }" assigned to lhs. The opening
// brace is the current token.
func (p *processor) structLiteral(lhs *Entry, start token.Token) error {
	p.next()

	var child *Scope

	switch {
	case lhs.IsPlaceholder():
		s := lhs.Scope()
		child = p.tree.newScope(s.id, lhs.name, lhs.desc)

		e := p.tree.newEntry(KindStruct)
		e.child = child.id
		e.desc, e.def, e.hasDf = lhs.desc, lhs.def, lhs.hasDf

		s.Replace(lhs.name, e)

		p.tree.logger.TraceContext(p.ctx, "promote",
			slog.String("scope", s.Path()),
			slog.String("name", lhs.name),
			slog.String("type", TypeStruct.String()),
		)

	case lhs.IsStruct():
		child, _ = lhs.Struct()

	default:
		return ErrTypeMismatch.At(start).Because(
			"cannot assign Struct to " + lhs.Type().String() + " '" + lhs.name + "'",
		)
	}

	if err := p.statements(child, true); err != nil {
		return err
	}

	if _, err := p.expect("}"); err != nil {
		return err
	}

	if p.peek().Is(";") {
		p.next()
	}

	return nil
}

// functionLiteral processes "name(params) = body;". The body is stored
// unevaluated and resolved against s at each call.
func (p *processor) functionLiteral(s *Scope) error {
	start := p.next()
	p.next() // '('

	var params []string

	seen := make(map[string]bool)

	for !p.peek().Is(")") {
		if len(params) > 0 {
			if _, err := p.expect(","); err != nil {
				return err
			}
		}

		t := p.peek()
		if t.Kind != token.Identifier {
			return ErrUnexpectedToken.At(t).Because(
				"expected parameter name, found " + t.String(),
			)
		}

		if seen[t.Lexeme] {
			return ErrRedeclaration.At(t).Because(
				"parameter '" + t.Lexeme + "' is declared twice",
			)
		}

		seen[t.Lexeme] = true
		params = append(params, t.Lexeme)

		p.next()
	}

	p.next() // ')'

	if _, err := p.expect("="); err != nil {
		return err
	}

	first := p.pos
	depth := 0

	for {
		t := p.peek()
		if t.Kind == token.EOF {
			return ErrUnexpectedToken.At(t).Because(
				"expected ';' after function body, found " + t.String(),
			)
		}

		if depth == 0 && t.Is(";") {
			break
		}

		switch {
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			depth--
		}

		p.next()
	}

	semi := p.peek()

	if p.pos == first {
		return ErrUnexpectedToken.At(semi).Because("expected a value, found ';'")
	}

	body := make([]token.Token, 0, p.pos-first+1)
	body = append(body, p.toks[first:p.pos]...)
	body = append(body, token.Token{
		Kind:   token.EOF,
		Pos:    semi.Pos,
		Line:   semi.Line,
		Column: semi.Column,
	})

	fn := &Function{
		Params: params,
		body:   body,
		scope:  s.id,
	}

	if begin := p.toks[first].Pos; begin <= semi.Pos && semi.Pos <= len(p.text) {
		fn.source = strings.TrimSpace(p.text[begin:semi.Pos])
	}

	e := p.tree.newEntry(KindFunction)
	e.fn = fn

	if old, ok := s.entries[start.Lexeme]; ok {
		switch {
		case old.IsPlaceholder():
			e.desc, e.def, e.hasDf = old.desc, old.def, old.hasDf
		case old.IsFunction():
			_ = old.CopyValue(e)
			old.SetBuiltin(false)
			p.next()

			return nil
		default:
			return ErrTypeMismatch.At(start).Because(
				"cannot assign Function to " + old.Type().String() +
					" '" + start.Lexeme + "'",
			)
		}
	}

	s.Replace(start.Lexeme, e)

	p.tree.logger.TraceContext(p.ctx, "promote",
		slog.String("scope", s.Path()),
		slog.String("name", start.Lexeme),
		slog.String("type", TypeFunction.String()),
	)

	p.next()

	return nil
}

// temp registers e as a temporary owned by the current statement.
func (p *processor) temp(e *Entry) *Entry {
	if e.tree == nil {
		e.tree = p.tree
	}

	e.flags = e.flags&^flagReleased | flagTemporary
	e.owner = noScope

	p.tree.live++
	p.temps = append(p.temps, e)

	return e
}

// take transfers ownership of temporary e to the caller.
func (p *processor) take(e *Entry) {
	if e.flags&(flagTemporary|flagReleased) != flagTemporary {
		return
	}

	e.flags &^= flagTemporary
	p.tree.live--
}

// release drops temporary e. Non-temporaries are left alone.
func (p *processor) release(e *Entry) {
	if e == nil || e.flags&(flagTemporary|flagReleased) != flagTemporary {
		return
	}

	e.flags |= flagReleased
	p.tree.live--

	if e.kind == KindStruct && e.flags&flagView == 0 {
		p.tree.release(e.child)
	}
}

// sweep releases every temporary the current statement still holds.
func (p *processor) sweep() {
	for _, e := range p.temps {
		p.release(e)
	}

	p.temps = p.temps[:0]
}

// detach returns v as a value owned by the caller: temporaries are taken,
// references and scope views are deep-copied.
func (p *processor) detach(v *Entry) *Entry {
	if v.IsTemporary() && v.flags&(flagView|flagReleased) == 0 {
		p.take(v)

		return v
	}

	return v.Clone()
}
