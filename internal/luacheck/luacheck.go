package luacheck

import (
	"bytes"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Parse reports whether src is syntactically valid Lua.
func Parse(name string, src []byte) error {
	if _, err := parse.Parse(bytes.NewReader(src), name); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Result describes a database file after executing it.
type Result struct {
	Table string
	// Found is false when the table is neither a global nor exported through
	// a module as `_<table>`.
	Found   bool
	Entries int
}

// Load executes src in a fresh VM and counts the entries of the named table.
// QuestieLoader:ImportModule is stubbed so database files run standalone.
// Repeated keys collapse, so Entries can be lower than the record count.
func Load(name string, src []byte, table string) (*Result, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: false})
	defer L.Close()

	modules := L.NewTable()
	loader := L.NewTable()
	L.SetField(loader, "ImportModule", L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(2)
		mod := L.GetField(modules, modName)
		if mod == lua.LNil {
			mod = L.NewTable()
			L.SetField(modules, modName, mod)
		}
		L.Push(mod)
		return 1
	}))
	L.SetGlobal("QuestieLoader", loader)

	fn, err := L.Load(bytes.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	res := &Result{Table: table}
	tbl, ok := L.GetGlobal(table).(*lua.LTable)
	if !ok {
		modules.ForEach(func(_, mod lua.LValue) {
			if m, isTable := mod.(*lua.LTable); isTable && !ok {
				tbl, ok = m.RawGetString("_" + table).(*lua.LTable)
			}
		})
	}
	if !ok {
		return res, nil
	}

	res.Found = true
	tbl.ForEach(func(_, _ lua.LValue) { res.Entries++ })
	return res, nil
}
