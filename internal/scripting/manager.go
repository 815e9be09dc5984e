package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/resfight/internal/game/dice"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// Manager owns one sandboxed LState loaded from a script directory and
// exposes its global functions as hook subscribers.
//
// Manager is safe for concurrent use; calls into the VM are serialized.
type Manager struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger

	// Names is exposed to scripts as engine.names. Set before LoadDir.
	Names map[string]string
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{roller: roller, logger: logger}
}

// LoadDir creates a fresh sandboxed VM, registers the engine.* modules, and
// executes every *.lua file in dir in lexicographic order. A previously
// loaded VM is closed once the new one loads successfully.
//
// Precondition: dir must be a readable directory; instLimit >= 0.
// Postcondition: On error the previous VM, if any, stays active.
func (m *Manager) LoadDir(dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range luaFiles {
		err := callWithLimit(context.Background(), L, instLimit, func() error {
			return L.DoFile(path)
		})
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.L
	m.L = L
	m.limit = instLimit
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("scripts loaded", zap.String("dir", dir), zap.Int("files", len(luaFiles)))
	return nil
}

// Close releases the VM. Later calls behave as if no scripts were loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}

// HasFunction reports whether the loaded scripts define a global function name.
func (m *Manager) HasFunction(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L == nil {
		return false
	}
	_, ok := m.L.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CallHook calls the global Lua function fn with args under a fresh
// instruction budget. Returns (LNil, nil) when no VM is loaded or fn is not
// defined.
//
// Postcondition: Lua runtime errors, including an exhausted budget, are
// logged at Warn and returned.
func (m *Manager) CallHook(ctx context.Context, fn string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callLocked(ctx, fn, func(*lua.LState) ([]lua.LValue, error) { return args, nil })
}

func (m *Manager) callLocked(ctx context.Context, fn string, args func(*lua.LState) ([]lua.LValue, error)) (lua.LValue, error) {
	if m.L == nil {
		return lua.LNil, nil
	}
	L := m.L
	f := L.GetGlobal(fn)
	if f == lua.LNil {
		return lua.LNil, nil
	}
	argv, err := args(L)
	if err != nil {
		return lua.LNil, err
	}
	ret := lua.LValue(lua.LNil)
	err = callWithLimit(ctx, L, m.limit, func() error {
		if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, argv...); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error", zap.String("function", fn), zap.Error(err))
		return lua.LNil, fmt.Errorf("scripting: %s: %w", fn, err)
	}
	return ret, nil
}

// Binding connects a hook to the Lua function that subscribes to it.
// FromFields rebuilds the typed context from the table the script returns.
type Binding struct {
	Hook       hook.Name
	Function   string
	FromFields func(hook.Fields) (hook.Context, error)
}

// Subscriber returns a hook subscriber that passes the context to the Lua
// function b.Function as a table. A script returning nil leaves the context
// unchanged; a returned table is converted back and validated by b.FromFields.
func (m *Manager) Subscriber(b Binding) hook.Subscriber {
	return func(ctx context.Context, hc hook.Context) (hook.Context, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		var conv *converter
		ret, err := m.callLocked(ctx, b.Function, func(L *lua.LState) ([]lua.LValue, error) {
			conv = newConverter(L)
			tbl, err := conv.fieldsToTable(hc.Fields())
			if err != nil {
				return nil, err
			}
			return []lua.LValue{tbl}, nil
		})
		if err != nil {
			return nil, err
		}
		tbl, ok := ret.(*lua.LTable)
		if !ok {
			if ret != lua.LNil {
				return nil, fmt.Errorf("scripting: %s returned %s, want table or nil", b.Function, ret.Type())
			}
			return hc, nil
		}
		fields, err := conv.tableToFields(tbl)
		if err != nil {
			return nil, fmt.Errorf("scripting: %s: %w", b.Function, err)
		}
		return b.FromFields(fields)
	}
}

// Attach subscribes every binding whose function the loaded scripts define
// and returns the hooks that were subscribed.
func (m *Manager) Attach(p *hook.Pipeline, bindings []Binding) []hook.Name {
	var attached []hook.Name
	for _, b := range bindings {
		if !m.HasFunction(b.Function) {
			continue
		}
		p.Subscribe(b.Hook, "lua:"+b.Function, m.Subscriber(b))
		attached = append(attached, b.Hook)
		m.logger.Debug("lua subscriber attached", zap.String("hook", string(b.Hook)), zap.String("function", b.Function))
	}
	return attached
}
