// Package vm implements the VM core: stack, per-frame memory, call frames,
// function table, output buffer, and the execution loop over the operation
// tree (package ops), dispatching governance/storage/identity opcodes into
// packages governance, storage and identity.
//
// Execution walks a tree of ops.Op values directly rather than decoding a
// flat instruction stream, so nested control flow and user-defined
// functions fall out of ordinary recursion instead of an explicit jump
// table. The outer Execute loop stays thin; each opcode gets its own small
// exec* method that the dispatcher in dispatch.go routes to.
package vm

import (
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/icn-covm/governance-vm/covmerr"
	"github.com/icn-covm/governance-vm/governance"
	"github.com/icn-covm/governance-vm/identity"
	"github.com/icn-covm/governance-vm/ops"
	"github.com/icn-covm/governance-vm/storage"
	"github.com/icn-covm/governance-vm/value"
)

// frame is a call frame's private memory (name -> Value). Frame memory is
// not inherited by child frames; the stack, by contrast, is shared across
// every frame.
type frame struct {
	memory map[string]value.Value
}

func newFrame() *frame { return &frame{memory: make(map[string]value.Value)} }

type funcDef struct {
	params []string
	body   []ops.Op
}

// signal is the distinguished control outcome of executing a (sub-)program.
// break/continue/return are not Go errors: they are unwound explicitly by
// the nearest enclosing loop or function frame.
type signal int

const (
	signalNone signal = iota
	signalBreak
	signalContinue
	signalReturn
)

// VM executes one operation tree against one storage backend under one
// auth context. Construct with New; it is not safe for concurrent use,
// execution is single-threaded and cooperative within one VM.
type VM struct {
	stack     []value.Value
	frames    []*frame
	functions map[string]funcDef
	output    strings.Builder

	auth      *identity.AuthContext
	namespace string
	store     *storage.Store

	delegations *governance.DelegationGraph
	mockAuth    bool

	steps    int
	maxSteps int
	maxDepth int

	logger log.Logger
	clock  clock.Clock
}

// Option configures a VM at construction time.
type Option func(*VM)

func WithMaxSteps(n int) Option  { return func(v *VM) { v.maxSteps = n } }
func WithMaxDepth(n int) Option  { return func(v *VM) { v.maxDepth = n } }
func WithLogger(l log.Logger) Option { return func(v *VM) { v.logger = l } }
func WithClock(c clock.Clock) Option { return func(v *VM) { v.clock = c } }

// WithMockAuth puts identity verification into the spec's test/mock mode:
// verify_identity returns true iff the identity is registered, rather than
// running the opaque signature-verification primitive.
func WithMockAuth(mock bool) Option { return func(v *VM) { v.mockAuth = mock } }

// New constructs a VM bound to store under namespace and auth, per DESIGN
// NOTES §9 ("pass a logger handle through the VM constructor... no hidden
// globals"). store may be nil for pure-computation programs that never
// touch persistent storage.
func New(store *storage.Store, auth *identity.AuthContext, namespace string, opts ...Option) *VM {
	v := &VM{
		functions:   make(map[string]funcDef),
		frames:      []*frame{newFrame()},
		auth:        auth,
		namespace:   namespace,
		store:       store,
		delegations: governance.NewDelegationGraph(),
		maxSteps:    100000,
		maxDepth:    256,
		logger:      log.NewNopLogger(),
		clock:       clock.New(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Output returns everything emitted so far via `emit` and `emit_event`.
func (v *VM) Output() string { return v.output.String() }

// Stack returns a read-only snapshot of the current stack, top last. The
// partially built stack is retained after a failed Execute so tests and
// callers can inspect it for diagnostics.
func (v *VM) Stack() []value.Value { return append([]value.Value(nil), v.stack...) }

func (v *VM) curFrame() *frame { return v.frames[len(v.frames)-1] }

func (v *VM) push(val value.Value) { v.stack = append(v.stack, val) }

func (v *VM) pop() (value.Value, error) {
	if len(v.stack) == 0 {
		return nil, covmerr.ErrStackUnderflow
	}
	val := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return val, nil
}

func (v *VM) peek() (value.Value, error) {
	if len(v.stack) == 0 {
		return nil, covmerr.ErrStackUnderflow
	}
	return v.stack[len(v.stack)-1], nil
}

// Execute runs program to completion. A break/continue/return that escapes
// every enclosing construct is reported as UndefinedState.
func (v *VM) Execute(program []ops.Op) error {
	sig, err := v.run(program)
	if err != nil {
		return err
	}
	if sig != signalNone {
		return covmerr.New(covmerr.KindUndefinedState, "break/continue/return escaped its enclosing construct")
	}
	return nil
}

func (v *VM) run(program []ops.Op) (signal, error) {
	for _, op := range program {
		sig, err := v.step(op)
		if err != nil {
			return signalNone, err
		}
		if sig != signalNone {
			return sig, nil
		}
	}
	return signalNone, nil
}

func (v *VM) logStep(op ops.Op) {
	level.Debug(v.logger).Log("msg", "exec", "op", opName(op), "step", v.steps, "stack_depth", len(v.stack))
}
