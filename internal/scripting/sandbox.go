// Package scripting runs sandboxed GopherLua scripts as hook subscribers.
// Scripts see hook contexts as Lua tables and hand back the (possibly
// modified) table, which is re-validated before it reaches the next subscriber.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one hook call when none is configured.
const DefaultInstructionLimit = 100_000

// ErrInstructionLimit is returned when a call runs out of its opcode budget.
var ErrInstructionLimit = errors.New("lua instruction limit exceeded")

// Libraries opened in every sandbox. os, io, debug, channel, and coroutine are left out.
var sandboxLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Base library globals that reach outside the sandbox.
var strippedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "module"}

// budget is a context whose Done counts down once per call. GopherLua polls
// Done once per opcode, so the context cancels after exactly n opcodes.
type budget struct {
	context.Context
	cancel    context.CancelFunc
	left      atomic.Int64
	exhausted atomic.Bool
}

func newBudget(parent context.Context, n int) *budget {
	if n <= 0 {
		n = DefaultInstructionLimit
	}
	b := &budget{}
	b.Context, b.cancel = context.WithCancel(parent)
	b.left.Store(int64(n))
	return b
}

func (b *budget) Done() <-chan struct{} {
	if b.left.Add(-1) < 0 && !b.exhausted.Swap(true) {
		b.cancel()
	}
	return b.Context.Done()
}

// NewSandboxedState returns an LState with only the base, table, string,
// and math libraries and without the globals that load code or modules.
// Code run on it directly is capped at instLimit opcodes in total; calls made
// by a Manager get a fresh budget each.
//
// Precondition: instLimit >= 0; 0 selects DefaultInstructionLimit.
// Postcondition: The caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range sandboxLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetContext(newBudget(context.Background(), instLimit))
	return L
}

// callWithLimit runs fn under a fresh budget of instLimit opcodes that is
// also cancelled with parent.
//
// Postcondition: An error caused by the budget running out matches ErrInstructionLimit.
func callWithLimit(parent context.Context, L *lua.LState, instLimit int, fn func() error) error {
	b := newBudget(parent, instLimit)
	defer b.cancel()
	L.SetContext(b)
	defer L.RemoveContext()
	err := fn()
	if err != nil && b.exhausted.Load() && parent.Err() == nil {
		return fmt.Errorf("%w: %w", ErrInstructionLimit, err)
	}
	return err
}
