// Package event implements the DMLT event bus: four reserved, strongly
// typed events plus a dynamic registry for user-defined ones.
package event

import (
	"sync"

	"github.com/chrisgrebs/dmlt/ast"
	"github.com/chrisgrebs/dmlt/dctx"
	"github.com/chrisgrebs/dmlt/dmlterr"
	"github.com/chrisgrebs/dmlt/rule"
	"github.com/chrisgrebs/dmlt/token"
)

// Subscription is an opaque handle to one registered callback. Go
// functions aren't comparable, so "remove by callback identity" (as the
// original event manager does) isn't expressible directly; every
// Connect/On* call instead returns a Subscription that Disconnect can
// later use to remove exactly that registration.
type Subscription struct {
	name string
	id   uint64
}

type rawDirectiveCB func(m dctx.Machine) rule.DirectiveFactory
type documentNodeCB func() ast.Node
type processStreamCB func(*token.Stream, *dctx.Context) *token.Stream
type processDocTreeCB func(ast.Node, *dctx.Context) ast.Node
type dynamicCB func(args ...any) any

type entry[T any] struct {
	id uint64
	cb T
}

// Bus is a registry mapping event names to ordered callback queues. It is
// safe for concurrent use.
type Bus struct {
	mu sync.Mutex

	defineRawDirective []entry[rawDirectiveCB]
	defineDocumentNode []entry[documentNodeCB]
	processStream      []entry[processStreamCB]
	processDocTree     []entry[processDocTreeCB]

	dynamic map[string][]entry[dynamicCB]

	nextID uint64
}

// NewBus returns an empty, unconnected bus - a machine-local instance, per
// spec.md section 5's guidance to prefer constructor injection in new code.
func NewBus() *Bus {
	return &Bus{dynamic: make(map[string][]entry[dynamicCB])}
}

var defaultBus = NewBus()

// Default returns the process-wide singleton bus, for callers that want
// the original's process-scoped sharing instead of a machine-local one.
func Default() *Bus {
	return defaultBus
}

func (b *Bus) allocID() uint64 {
	b.nextID++
	return b.nextID
}

// OnDefineRawDirective registers fn as a define-raw-directive listener and
// returns a handle for later removal.
func (b *Bus) OnDefineRawDirective(fn func(m dctx.Machine) rule.DirectiveFactory) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.defineRawDirective = append(b.defineRawDirective, entry[rawDirectiveCB]{id, fn})
	return Subscription{name: "define-raw-directive", id: id}
}

// DefineRawDirective emits the define-raw-directive event: every listener
// runs, and the last non-nil result wins (spec.md's emit_ovr semantics).
func (b *Bus) DefineRawDirective(m dctx.Machine) rule.DirectiveFactory {
	b.mu.Lock()
	listeners := append([]entry[rawDirectiveCB](nil), b.defineRawDirective...)
	b.mu.Unlock()
	var result rule.DirectiveFactory
	for _, e := range listeners {
		if r := e.cb(m); r != nil {
			result = r
		}
	}
	return result
}

// OnDefineDocumentNode registers fn as a define-document-node listener.
func (b *Bus) OnDefineDocumentNode(fn func() ast.Node) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.defineDocumentNode = append(b.defineDocumentNode, entry[documentNodeCB]{id, fn})
	return Subscription{name: "define-document-node", id: id}
}

// DefineDocumentNode emits the define-document-node event (emit_ovr).
func (b *Bus) DefineDocumentNode() ast.Node {
	b.mu.Lock()
	listeners := append([]entry[documentNodeCB](nil), b.defineDocumentNode...)
	b.mu.Unlock()
	var result ast.Node
	for _, e := range listeners {
		if r := e.cb(); r != nil {
			result = r
		}
	}
	return result
}

// OnProcessStream registers fn as a process-stream filter.
func (b *Bus) OnProcessStream(fn func(*token.Stream, *dctx.Context) *token.Stream) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.processStream = append(b.processStream, entry[processStreamCB]{id, fn})
	return Subscription{name: "process-stream", id: id}
}

// ProcessStream chains every process-stream filter in registration order,
// each receiving the previous filter's output stream.
func (b *Bus) ProcessStream(s *token.Stream, ctx *dctx.Context) *token.Stream {
	b.mu.Lock()
	listeners := append([]entry[processStreamCB](nil), b.processStream...)
	b.mu.Unlock()
	for _, e := range listeners {
		if out := e.cb(s, ctx); out != nil {
			s = out
		}
	}
	return s
}

// OnProcessDocTree registers fn as a process-doc-tree filter.
func (b *Bus) OnProcessDocTree(fn func(ast.Node, *dctx.Context) ast.Node) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.allocID()
	b.processDocTree = append(b.processDocTree, entry[processDocTreeCB]{id, fn})
	return Subscription{name: "process-doc-tree", id: id}
}

// ProcessDocTree chains every process-doc-tree filter in registration
// order, each receiving the previous filter's output tree.
func (b *Bus) ProcessDocTree(n ast.Node, ctx *dctx.Context) ast.Node {
	b.mu.Lock()
	listeners := append([]entry[processDocTreeCB](nil), b.processDocTree...)
	b.mu.Unlock()
	for _, e := range listeners {
		if out := e.cb(n, ctx); out != nil {
			n = out
		}
	}
	return n
}

// Define registers a new dynamic event name. It fails if name is already
// known - including any of the four reserved names, which have their own
// typed accessors above and are never exposed through the dynamic path.
func (b *Bus) Define(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if isReserved(name) {
		return &dmlterr.Programming{Detail: "event name " + name + " is reserved"}
	}
	if _, ok := b.dynamic[name]; ok {
		return &dmlterr.Programming{Detail: "event " + name + " already defined"}
	}
	b.dynamic[name] = nil
	return nil
}

func isReserved(name string) bool {
	switch name {
	case "define-raw-directive", "define-document-node", "process-stream", "process-doc-tree":
		return true
	}
	return false
}

// Connect appends cb to name's callback queue and returns a handle for
// later removal. It fails if name was never defined.
func (b *Bus) Connect(name string, cb func(args ...any) any) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.dynamic[name]; !ok {
		return Subscription{}, &dmlterr.EventNotFound{Name: name}
	}
	id := b.allocID()
	b.dynamic[name] = append(b.dynamic[name], entry[dynamicCB]{id, cb})
	return Subscription{name: name, id: id}, nil
}

// Emit invokes every listener on name in registration order, collecting
// all return values. ok is false if name has no listeners (spec.md's
// "none if no listeners").
func (b *Bus) Emit(name string, args ...any) (results []any, ok bool) {
	b.mu.Lock()
	listeners := append([]entry[dynamicCB](nil), b.dynamic[name]...)
	b.mu.Unlock()
	if len(listeners) == 0 {
		return nil, false
	}
	for _, e := range listeners {
		results = append(results, e.cb(args...))
	}
	return results, true
}

// EmitOverride invokes every listener on name, returning the last
// non-nil result - spec.md's emit_ovr, used where exactly one extension
// is meant to win.
func (b *Bus) EmitOverride(name string, args ...any) (result any, ok bool) {
	b.mu.Lock()
	listeners := append([]entry[dynamicCB](nil), b.dynamic[name]...)
	b.mu.Unlock()
	for _, e := range listeners {
		if r := e.cb(args...); r != nil {
			result, ok = r, true
		}
	}
	return result, ok
}

// Disconnect removes the callback identified by sub. It reports whether a
// callback was actually removed - the original's EventManager.remove
// returns an unreliable count on this path; here the boolean result is
// always accurate, per the Design Notes' own recommendation.
func (b *Bus) Disconnect(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch sub.name {
	case "define-raw-directive":
		return removeByID(&b.defineRawDirective, sub.id)
	case "define-document-node":
		return removeByID(&b.defineDocumentNode, sub.id)
	case "process-stream":
		return removeByID(&b.processStream, sub.id)
	case "process-doc-tree":
		return removeByID(&b.processDocTree, sub.id)
	default:
		list, ok := b.dynamic[sub.name]
		if !ok {
			return false
		}
		removed := removeByID(&list, sub.id)
		b.dynamic[sub.name] = list
		return removed
	}
}

func removeByID[T any](list *[]entry[T], id uint64) bool {
	for i, e := range *list {
		if e.id == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
