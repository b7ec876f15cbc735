// Package dmlt is the markup machine (C7): the orchestrator that wires the
// token stream, event bus, lexer and parser together for one document,
// matching dmlt/machine.py's MarkupMachine (spec.md section 4.7).
package dmlt

import (
	"log"
	"strings"

	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/dctx"
	"github.com/chrisgrebs/dmlt/dmlterr"
	"github.com/chrisgrebs/dmlt/event"
	"github.com/chrisgrebs/dmlt/lexer"
	"github.com/chrisgrebs/dmlt/parser"
	"github.com/chrisgrebs/dmlt/rule"
	"github.com/chrisgrebs/dmlt/token"
)

const (
	defaultEscapeCharacter = '\\'
	defaultBeginSuffix     = "_begin"
	defaultEndSuffix       = "_end"
)

// Options holds the normative configuration table from spec.md section
// 4.7. It is never constructed directly; use Option functions with
// NewMachine.
type Options struct {
	escapeCharacter rune
	restrictiveMode bool
	beginSuffix     string
	endSuffix       string
	bus             *event.Bus
	logger          *log.Logger
}

// Option configures a Machine at construction time.
type Option func(*Options)

// WithEscapeCharacter overrides the default escape character ('\\').
func WithEscapeCharacter(c rune) Option {
	return func(o *Options) { o.escapeCharacter = c }
}

// WithRestrictiveMode turns on forced-close stack unwinding (spec.md
// section 4.4). Off by default.
func WithRestrictiveMode(restrictive bool) Option {
	return func(o *Options) { o.restrictiveMode = restrictive }
}

// WithBeginSuffix overrides the synthetic enter-marker suffix
// (default "_begin").
func WithBeginSuffix(suffix string) Option {
	return func(o *Options) { o.beginSuffix = suffix }
}

// WithEndSuffix overrides the synthetic leave-marker suffix
// (default "_end").
func WithEndSuffix(suffix string) Option {
	return func(o *Options) { o.endSuffix = suffix }
}

// WithBus supplies a machine-local event bus instead of the default
// freshly-constructed one - spec.md section 5's "machine-local bus
// variant... lifetime = machine," preferred for new code over the shared
// process-global instance (event.Default()).
func WithBus(b *event.Bus) Option {
	return func(o *Options) { o.bus = b }
}

// WithLogger attaches a diagnostic logger, which Logger hands to
// directives and filters. Nil is the default; the lexer and parser do not
// write to it themselves, and nothing requires it for correct operation.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// Machine owns one document's raw text for its lifetime (spec.md section
// 3.7) and exposes tokenize/parse/render. Construct with NewMachine.
type Machine struct {
	raw        string
	directives []rule.DirectiveFactory
	opts       Options

	rawResolved bool
	rawName     string
	rawFactory  rule.DirectiveFactory

	streamBuilt bool
	stream      *token.Stream
	streamErr   error
}

// NewMachine builds a Machine for raw, wired with directives in the order
// they should be tried by the lexer (spec.md section 4.3's ordering
// contract - first directive, first rule, wins at a given position).
func NewMachine(raw string, directives []rule.DirectiveFactory, opts ...Option) *Machine {
	o := Options{
		escapeCharacter: defaultEscapeCharacter,
		beginSuffix:     defaultBeginSuffix,
		endSuffix:       defaultEndSuffix,
		bus:             event.NewBus(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Machine{raw: raw, directives: directives, opts: o}
}

// Bus returns the machine's event bus, for registering the four reserved
// extension points plus any user-defined events before the first Tokenize
// call (spec.md section 5: registration must happen before first use).
func (m *Machine) Bus() *event.Bus { return m.opts.bus }

// EscapeCharacter, RestrictiveMode, BeginSuffix, EndSuffix and Logger
// together satisfy dctx.Machine, the minimal view directives, rules and
// filters see of the owning machine.
func (m *Machine) EscapeCharacter() rune { return m.opts.escapeCharacter }
func (m *Machine) RestrictiveMode() bool { return m.opts.restrictiveMode }
func (m *Machine) BeginSuffix() string   { return m.opts.beginSuffix }
func (m *Machine) EndSuffix() string     { return m.opts.endSuffix }
func (m *Machine) Logger() *log.Logger   { return m.opts.logger }

var _ dctx.Machine = (*Machine)(nil)

// resolveRaw emits define-raw-directive once and memoizes the resulting
// name and factory, per spec.md section 4.7 ("its name is memoized as
// raw_name"). Falls back to the built-in rule.NewRawDirective, named
// "raw", if no listener is registered.
func (m *Machine) resolveRaw() (string, rule.DirectiveFactory) {
	if m.rawResolved {
		return m.rawName, m.rawFactory
	}
	factory := m.opts.bus.DefineRawDirective(m)
	if factory == nil {
		factory = rule.NewRawDirective
	}
	name := "raw"
	if probe := factory(dctx.New(m, false)); probe != nil {
		if namer, ok := probe.(rule.RawNamer); ok {
			name = namer.RawName()
		}
	}
	m.rawName, m.rawFactory, m.rawResolved = name, factory, true
	return name, factory
}

// Tokenize runs the lexer over raw and applies the process-stream filter
// chain, matching spec.md section 4.7's tokenize(raw?, enable_escaping).
func (m *Machine) Tokenize(raw string, enableEscaping bool) (*token.Stream, error) {
	rawName, rawFactory := m.resolveRaw()
	ctx := dctx.New(m, enableEscaping)

	rawDirective := rawFactory(ctx)
	directives := make([]rule.Directive, 0, len(m.directives))
	for _, f := range m.directives {
		directives = append(directives, f(ctx))
	}

	lx := lexer.New(raw, rawName, rawDirective, directives, ctx)
	s, err := token.FromSource(lx)
	if err != nil {
		return nil, err
	}
	return m.opts.bus.ProcessStream(s, ctx), nil
}

// Stream is the lazy cached accessor spec.md section 3.4 describes: the
// first call tokenizes m's own raw text with escaping disabled; later
// calls return the same stream.
func (m *Machine) Stream() (*token.Stream, error) {
	if m.streamBuilt {
		return m.stream, m.streamErr
	}
	m.stream, m.streamErr = m.Tokenize(m.raw, false)
	m.streamBuilt = true
	return m.stream, m.streamErr
}

func (m *Machine) streamOrDefault(s *token.Stream, enableEscaping bool) (*token.Stream, error) {
	if s != nil {
		return s, nil
	}
	return m.Tokenize(m.raw, enableEscaping)
}

func (m *Machine) documentNode() (ast.Node, error) {
	root := m.opts.bus.DefineDocumentNode()
	if root == nil {
		return nil, &dmlterr.Programming{Detail: "no define-document-node listener registered"}
	}
	return root, nil
}

// appender is the minimal capability a document node needs for Parse to
// attach top-level children to it.
type appender interface {
	Append(ast.Node)
}

// Parse builds the document node tree: dispatch every token in s (or a
// freshly tokenized stream, when s is nil) to its directive, attach the
// resulting children to the document node from define-document-node, then
// run the process-doc-tree filter chain. Matches spec.md section 4.7's
// parse(stream?, inline=false, enable_escaping).
func (m *Machine) Parse(s *token.Stream, enableEscaping bool) (ast.Node, error) {
	s, err := m.streamOrDefault(s, enableEscaping)
	if err != nil {
		return nil, err
	}
	root, err := m.documentNode()
	if err != nil {
		return nil, err
	}
	container, ok := root.(appender)
	if !ok {
		return nil, &dmlterr.Programming{Detail: "document node does not accept children via Append"}
	}
	children, err := parser.Build(s)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		container.Append(c)
	}
	ctx := dctx.New(m, enableEscaping)
	return m.opts.bus.ProcessDocTree(root, ctx), nil
}

// ParseInline is spec.md section 4.7's inline=true path: it returns the
// dispatched nodes directly, without wrapping them in a document node or
// running the process-doc-tree filter chain.
func (m *Machine) ParseInline(s *token.Stream, enableEscaping bool) ([]ast.Node, error) {
	s, err := m.streamOrDefault(s, enableEscaping)
	if err != nil {
		return nil, err
	}
	return parser.Build(s)
}

// Render delegates to tree's Prepare(format) (ast.Renderable), matching
// spec.md section 4.7's render(tree?, format="html", enable_escaping). If
// tree is nil, Parse(nil, enableEscaping) supplies it first.
func (m *Machine) Render(tree ast.Node, format string, enableEscaping bool) (string, error) {
	if format == "" {
		format = "html"
	}
	if tree == nil {
		var err error
		tree, err = m.Parse(nil, enableEscaping)
		if err != nil {
			return "", err
		}
	}
	renderable, ok := tree.(ast.Renderable)
	if !ok {
		return "", &dmlterr.Programming{Detail: "node does not implement ast.Renderable for format " + format}
	}
	var b strings.Builder
	for piece := range renderable.Prepare(format) {
		b.WriteString(piece)
	}
	return b.String(), nil
}
