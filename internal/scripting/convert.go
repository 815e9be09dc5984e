package scripting

import (
	"fmt"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/resfight/internal/game/viewpoint"
	"github.com/cory-johannsen/resfight/internal/hook"
)

// groupsField is the context field holding action groups.
const groupsField = "groups"

// actionCreator matches the action factory handed to fight-actions subscribers.
type actionCreator interface {
	CreateAction(title, parameterValue string) viewpoint.Action
}

type overChecker interface {
	IsOver() bool
}

// converter translates one hook context into a Lua table and back. Go values
// with no Lua counterpart travel as userdata or functions and are mapped back
// to the exact original value on return.
type converter struct {
	L         *lua.LState
	originals map[lua.LValue]any
}

func newConverter(L *lua.LState) *converter {
	return &converter{L: L, originals: make(map[lua.LValue]any)}
}

func (c *converter) fieldsToTable(f hook.Fields) (*lua.LTable, error) {
	tbl := c.L.NewTable()
	for k, v := range f {
		lv, err := c.toLua(k, v)
		if err != nil {
			return nil, err
		}
		c.L.SetField(tbl, k, lv)
	}
	return tbl, nil
}

func (c *converter) toLua(key string, v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case int:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case []viewpoint.ActionGroup:
		return c.groupsToLua(x), nil
	case *viewpoint.Viewpoint:
		return c.viewpointToLua(x), nil
	case actionCreator:
		fn := c.L.NewFunction(func(L *lua.LState) int {
			a := x.CreateAction(L.CheckString(1), L.CheckString(2))
			L.Push(c.actionToLua(a))
			return 1
		})
		c.originals[fn] = x
		return fn, nil
	default:
		return c.opaqueToLua(x), nil
	}
}

func (c *converter) opaqueToLua(v any) lua.LValue {
	ud := c.L.NewUserData()
	ud.Value = v
	mt := c.L.NewTable()
	methods := c.L.NewTable()
	if oc, ok := v.(overChecker); ok {
		c.L.SetField(methods, "is_over", c.L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LBool(oc.IsOver()))
			return 1
		}))
	}
	c.L.SetField(mt, "__index", methods)
	c.L.SetMetatable(ud, mt)
	c.originals[ud] = v
	return ud
}

func (c *converter) viewpointToLua(v *viewpoint.Viewpoint) lua.LValue {
	ud := c.L.NewUserData()
	ud.Value = v
	methods := c.L.NewTable()
	c.L.SetField(methods, "add_paragraph", c.L.NewFunction(func(L *lua.LState) int {
		v.AddDescriptionParagraph(L.CheckString(2))
		return 0
	}))
	c.L.SetField(methods, "clear_description", c.L.NewFunction(func(L *lua.LState) int {
		v.ClearDescription()
		return 0
	}))
	c.L.SetField(methods, "paragraphs", c.L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, p := range v.Paragraphs() {
			tbl.Append(lua.LString(p))
		}
		L.Push(tbl)
		return 1
	}))
	mt := c.L.NewTable()
	c.L.SetField(mt, "__index", methods)
	c.L.SetMetatable(ud, mt)
	c.originals[ud] = v
	return ud
}

func (c *converter) actionToLua(a viewpoint.Action) *lua.LTable {
	tbl := c.L.NewTable()
	c.L.SetField(tbl, "id", lua.LString(a.ID.String()))
	c.L.SetField(tbl, "scene_id", lua.LNumber(a.SceneID))
	c.L.SetField(tbl, "title", lua.LString(a.Title))
	params := c.L.NewTable()
	for k, v := range a.Parameters {
		c.L.SetField(params, k, lua.LString(v))
	}
	c.L.SetField(tbl, "parameters", params)
	return tbl
}

func (c *converter) groupsToLua(groups []viewpoint.ActionGroup) *lua.LTable {
	tbl := c.L.NewTable()
	for _, g := range groups {
		gt := c.L.NewTable()
		c.L.SetField(gt, "id", lua.LString(g.ID))
		c.L.SetField(gt, "title", lua.LString(g.Title))
		c.L.SetField(gt, "sort_key", lua.LNumber(g.SortKey))
		actions := c.L.NewTable()
		for _, a := range g.Actions {
			actions.Append(c.actionToLua(a))
		}
		c.L.SetField(gt, "actions", actions)
		tbl.Append(gt)
	}
	return tbl
}

func (c *converter) tableToFields(tbl *lua.LTable) (hook.Fields, error) {
	f := hook.Fields{}
	var convErr error
	tbl.ForEach(func(k, v lua.LValue) {
		if convErr != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			convErr = fmt.Errorf("context key %v is not a string", k)
			return
		}
		gv, err := c.fromLua(string(key), v)
		if err != nil {
			convErr = err
			return
		}
		if gv != nil {
			f[string(key)] = gv
		}
	})
	return f, convErr
}

func (c *converter) fromLua(key string, v lua.LValue) (any, error) {
	if orig, ok := c.originals[v]; ok {
		return orig, nil
	}
	switch x := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(x), nil
	case lua.LString:
		return string(x), nil
	case lua.LNumber:
		return float64(x), nil
	case *lua.LUserData:
		return x.Value, nil
	case *lua.LTable:
		if key == groupsField {
			return c.groupsFromLua(x)
		}
		return nil, fmt.Errorf("field %q: tables are only supported for %q", key, groupsField)
	default:
		return nil, fmt.Errorf("field %q: unsupported Lua type %s", key, v.Type())
	}
}

func (c *converter) groupsFromLua(tbl *lua.LTable) ([]viewpoint.ActionGroup, error) {
	groups := []viewpoint.ActionGroup{}
	for i := 1; i <= tbl.Len(); i++ {
		gt, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("groups[%d] is not a table", i)
		}
		g := viewpoint.ActionGroup{
			ID:      lua.LVAsString(gt.RawGetString("id")),
			Title:   lua.LVAsString(gt.RawGetString("title")),
			SortKey: int(lua.LVAsNumber(gt.RawGetString("sort_key"))),
			Actions: []viewpoint.Action{},
		}
		if g.ID == "" {
			return nil, fmt.Errorf("groups[%d] has no id", i)
		}
		if at, ok := gt.RawGetString("actions").(*lua.LTable); ok {
			for j := 1; j <= at.Len(); j++ {
				a, err := actionFromLua(at.RawGetInt(j))
				if err != nil {
					return nil, fmt.Errorf("groups[%d].actions[%d]: %w", i, j, err)
				}
				g.Actions = append(g.Actions, a)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func actionFromLua(v lua.LValue) (viewpoint.Action, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return viewpoint.Action{}, fmt.Errorf("action is not a table")
	}
	title := lua.LVAsString(tbl.RawGetString("title"))
	if title == "" {
		return viewpoint.Action{}, fmt.Errorf("action has no title")
	}
	params := map[string]string{}
	if pt, ok := tbl.RawGetString("parameters").(*lua.LTable); ok {
		pt.ForEach(func(k, v lua.LValue) {
			params[lua.LVAsString(k)] = lua.LVAsString(v)
		})
	}
	a := viewpoint.NewAction(int64(lua.LVAsNumber(tbl.RawGetString("scene_id"))), title, params)
	if id, err := uuid.Parse(lua.LVAsString(tbl.RawGetString("id"))); err == nil {
		a.ID = id
	}
	return a, nil
}
