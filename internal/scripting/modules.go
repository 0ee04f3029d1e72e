package scripting

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// RegisterModules registers the wordrace.* Lua table into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: wordrace global is defined in L with tile, row and text.
func (rs *ResultScript) RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "tile", L.NewFunction(luaTile))
	L.SetField(mod, "row", L.NewFunction(luaRow))
	L.SetField(mod, "text", L.NewFunction(rs.luaText))
	L.SetGlobal("wordrace", mod)
}

func markFromName(name string) player.Mark {
	switch name {
	case "correct":
		return player.Correct
	case "present":
		return player.Present
	default:
		return player.Absent
	}
}

// wordrace.tile(mark_name) -> emoji
func luaTile(L *lua.LState) int {
	L.Push(lua.LString(markFromName(L.CheckString(1)).Symbol()))
	return 1
}

// wordrace.row({mark_name, ...}) -> emoji row
func luaRow(L *lua.LState) int {
	tbl := L.CheckTable(1)
	var marks []player.Mark
	tbl.ForEach(func(_, v lua.LValue) {
		marks = append(marks, markFromName(v.String()))
	})
	L.Push(lua.LString(player.Row(marks)))
	return 1
}

// wordrace.text(locale, key, ...) -> localized string
func (rs *ResultScript) luaText(L *lua.LState) int {
	locale := L.CheckString(1)
	key := L.CheckString(2)
	args := make([]any, 0, L.GetTop()-2)
	for i := 3; i <= L.GetTop(); i++ {
		switch v := L.Get(i).(type) {
		case lua.LNumber:
			if float64(v) == float64(int64(v)) {
				args = append(args, int(v))
			} else {
				args = append(args, float64(v))
			}
		default:
			args = append(args, v.String())
		}
	}
	if rs.Text == nil {
		L.Push(lua.LString(strings.TrimSpace(key)))
		return 1
	}
	L.Push(lua.LString(rs.Text(locale, key, args...)))
	return 1
}
