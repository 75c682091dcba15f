package lang

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ardnew/scfg/lang/lexer"
	"github.com/ardnew/scfg/lang/token"
	"github.com/ardnew/scfg/log"
)

// Tree is a configuration tree: an arena of scopes rooted at the global
// scope, populated by loading scripts and by host links.
//
// A Tree is not safe for concurrent use. Hosts that share one across
// goroutines must serialize access themselves.
type Tree struct {
	logger log.Logger
	opts   options

	scopes []*Scope
	free   []ScopeID
	root   ScopeID

	live int // temporaries neither taken nor released
}

// New returns an empty tree holding only the global scope.
func New(opts ...Option) *Tree {
	t := &Tree{}

	applyDefaults(t)

	for _, opt := range opts {
		opt(t)
	}

	t.root = t.newScope(noScope, "", "").id

	if t.opts.builtins {
		t.installBuiltins()
	}

	return t
}

// Root returns the global scope.
func (t *Tree) Root() *Scope { return t.scope(t.root) }

// Temporaries returns the number of temporaries that were created during
// evaluation but never taken or released. It is zero between loads.
func (t *Tree) Temporaries() int { return t.live }

// Load tokenizes text and processes each statement against the global
// scope. Loading is incremental: entries from earlier loads and host links
// remain visible and may be reassigned.
//
// A failed load returns [Diagnostics] holding every error recorded before the
// configured error limit was reached. Cancelling ctx stops processing
// between top-level statements and returns ctx.Err().
func (t *Tree) Load(ctx context.Context, text string) error {
	toks, err := tokenize(text)
	if err != nil {
		return Diagnostics{lexicalError(err)}
	}

	t.logger.TraceContext(ctx, "load",
		slog.Int("bytes", len(text)),
		slog.Int("tokens", len(toks)),
	)

	p := newProcessor(ctx, t, text, toks)

	return p.run()
}

// Lookup resolves a dotted path such as "f.b" or "@k[1]" from the global
// scope and reports whether it names a concrete entry.
func (t *Tree) Lookup(path string) (*Entry, bool) {
	toks, err := lexer.Tokenize(path)
	if err != nil {
		return nil, false
	}

	p := newProcessor(context.Background(), t, path, toks)
	defer p.sweep()

	e, err := p.reference(t.Root(), false)
	if err != nil || p.peek().Kind != token.EOF || e.IsPlaceholder() {
		return nil, false
	}

	if e.IsTemporary() {
		return nil, false
	}

	return e, true
}

// Eval evaluates a single expression in the global scope. The result is
// never attached to the tree: references are returned as deep copies.
func (t *Tree) Eval(ctx context.Context, source string) (*Entry, error) {
	toks, err := tokenize(source)
	if err != nil {
		return nil, lexicalError(err)
	}

	p := newProcessor(ctx, t, source, toks)
	defer p.sweep()

	v, err := p.expression(t.Root())
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Kind != token.EOF {
		return nil, ErrUnexpectedToken.At(tok).Because(
			"expected end of expression, found " + tok.String(),
		)
	}

	return p.detach(v), nil
}

// Call invokes the function entry named name in the global scope with the
// given arguments and returns its result, detached from the tree.
func (t *Tree) Call(ctx context.Context, name string, args ...*Entry) (*Entry, error) {
	fe, ok := t.Root().Lookup(name, false)
	if !ok {
		return nil, ErrUndefinedReference.Because(
			"'" + name + "' is not defined in global scope",
		)
	}

	p := newProcessor(ctx, t, "", nil)
	defer p.sweep()

	at := token.Token{Kind: token.Identifier, Lexeme: name}

	in := make([]*Entry, len(args))
	for i, a := range args {
		if a.tree == nil {
			a.tree = t
		}

		in[i] = a
	}

	v, err := p.invoke(t.Root(), at, fe, in)
	if err != nil {
		return nil, err
	}

	return p.detach(v), nil
}

func lexicalError(err error) *Error {
	var le *lexer.Error
	if errors.As(err, &le) {
		return ErrLexical.
			AtPosition(Position{Offset: le.Pos, Line: le.Line, Column: le.Column}).
			Because(le.Msg)
	}

	return ErrLexical.Wrap(err)
}
