package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/game/match"
)

// ResultHook is the Lua global a result script defines.
const ResultHook = "format_result"

// ResultScript owns one sandboxed LState and renders end-of-game results by
// calling the script's format_result(view) function.
//
// ResultScript is safe for concurrent use; calls into the LState are
// serialized because an LState is single-threaded.
type ResultScript struct {
	mu        sync.Mutex
	L         *lua.LState
	cancel    func()
	instLimit int
	source    string
	logger    *zap.Logger

	// Injected after construction. nil = wordrace.text returns the key.
	Text func(locale, key string, args ...any) string
}

// LoadResultScript creates a ResultScript from path, which may be a single
// .lua file or a directory whose *.lua files run in lexicographic order.
//
// Precondition: path must be readable; logger must be non-nil.
// Postcondition: Returns a ready ResultScript or an error on load failure.
func LoadResultScript(path string, instLimit int, logger *zap.Logger) (*ResultScript, error) {
	files, err := luaFiles(path)
	if err != nil {
		return nil, err
	}

	L, cancel := NewSandboxedState(instLimit)
	rs := &ResultScript{L: L, cancel: cancel, instLimit: instLimit, source: path, logger: logger}
	rs.RegisterModules(L)

	for _, f := range files {
		if err := limited(L, instLimit, func() error { return L.DoFile(f) }); err != nil {
			rs.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", f, err)
		}
	}
	if L.GetGlobal(ResultHook).Type() != lua.LTFunction {
		logger.Info("scripting: result script defines no hook",
			zap.String("source", path),
			zap.String("hook", ResultHook),
		)
	}
	return rs, nil
}

func luaFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// FormatResult calls format_result with v converted to a Lua table.
//
// Postcondition: Returns ("", nil) when the hook is not defined or returns a
// non-string; returns an error when the script fails or exceeds its budget.
func (rs *ResultScript) FormatResult(v match.ResultView) (string, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	fn := rs.L.GetGlobal(ResultHook)
	if fn.Type() != lua.LTFunction {
		return "", nil
	}

	var out lua.LValue = lua.LNil
	err := limited(rs.L, rs.instLimit, func() error {
		if err := rs.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, viewTable(rs.L, v)); err != nil {
			return err
		}
		out = rs.L.Get(-1)
		rs.L.Pop(1)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scripting: %s for %s: %w", ResultHook, v.PlayerName, err)
	}
	s, ok := out.(lua.LString)
	if !ok {
		rs.logger.Debug("scripting: hook returned non-string",
			zap.String("hook", ResultHook),
			zap.String("type", out.Type().String()),
		)
		return "", nil
	}
	return string(s), nil
}

// Close releases the LState.
func (rs *ResultScript) Close() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.cancel != nil {
		rs.cancel()
		rs.cancel = nil
	}
	if rs.L != nil {
		rs.L.Close()
		rs.L = nil
	}
}

func viewTable(L *lua.LState, v match.ResultView) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("locale", lua.LString(v.Locale))
	t.RawSetString("type_name", lua.LString(v.TypeName))
	t.RawSetString("player", lua.LString(v.PlayerName))
	t.RawSetString("guess_string", lua.LString(v.GuessString))
	t.RawSetString("won", lua.LBool(v.Won))
	t.RawSetString("winner", lua.LString(v.WinnerName))
	t.RawSetString("answer", lua.LString(v.Answer))

	guesses := L.NewTable()
	for _, g := range v.Guesses {
		row := L.NewTable()
		row.RawSetString("word", lua.LString(g.Word))
		marks := L.NewTable()
		for _, m := range g.Feedback {
			marks.Append(lua.LString(m.String()))
		}
		row.RawSetString("feedback", marks)
		guesses.Append(row)
	}
	t.RawSetString("guesses", guesses)
	return t
}

var _ match.ResultFormatter = (*ResultScript)(nil)
