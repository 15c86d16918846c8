package ir

import "fmt"

// Module is the unit of code generation: module-level storage and the
// functions that use it, both kept in creation order.
type Module struct {
	Name      string
	Globals   []*Global
	Functions []*Function

	names   map[string]int
	strings map[string]*Global
}

func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Globals:   make([]*Global, 0),
		Functions: make([]*Function, 0),

		names:   make(map[string]int),
		strings: make(map[string]*Global),
	}
}

// uniqueName returns name, or name with a numeric suffix when a global
// symbol of that name already exists.
func (m *Module) uniqueName(name string) string {
	n, exists := m.names[name]
	m.names[name] = n + 1
	if !exists {
		return name
	}

	candidate := fmt.Sprintf("%s%d", name, n)
	for {
		if _, taken := m.names[candidate]; !taken {
			m.names[candidate] = 1
			return candidate
		}
		n++
		candidate = fmt.Sprintf("%s%d", name, n)
	}
}

func (m *Module) AddGlobal(name string, t Type) *Global {
	global := &Global{
		Name:     m.uniqueName(name),
		ValueTyp: t,
	}
	m.Globals = append(m.Globals, global)
	return global
}

// AddStringConstant returns the NUL-terminated byte array holding value,
// reusing the constant of an identical earlier literal.
func (m *Module) AddStringConstant(value string) *Global {
	if global, ok := m.strings[value]; ok {
		return global
	}

	data := append([]byte(value), 0)
	global := &Global{
		Name:     m.uniqueName(fmt.Sprintf(".str.%d", len(m.strings))),
		ValueTyp: ByteArray(len(data)),
		Data:     data,
		Constant: true,
	}
	m.strings[value] = global
	m.Globals = append(m.Globals, global)
	return global
}

func (m *Module) AddFunction(name string, returnType Type, paramTypes []Type, paramNames []string) *Function {
	fn := &Function{
		Name:       m.uniqueName(name),
		ReturnType: returnType,
		Params:     make([]*Param, len(paramTypes)),
		Blocks:     make([]*Block, 0),

		module: m,
		names:  make(map[string]int),
	}

	for i, paramType := range paramTypes {
		paramName := fmt.Sprintf("%d", i)
		if i < len(paramNames) && paramNames[i] != "" {
			paramName = paramNames[i]
		}
		fn.Params[i] = &Param{
			Name:  fn.uniqueName(paramName),
			Typ:   paramType,
			Index: i,

			parent: fn,
		}
	}

	m.Functions = append(m.Functions, fn)
	return fn
}

func (m *Module) Function(name string) *Function {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func (m *Module) Global(name string) *Global {
	for _, global := range m.Globals {
		if global.Name == name {
			return global
		}
	}
	return nil
}

type Function struct {
	Name       string
	Params     []*Param
	ReturnType Type
	Blocks     []*Block

	module *Module
	// names counts the uses of every local name: blocks, parameters and
	// instruction results share one namespace, as in LLVM.
	names map[string]int
}

func (f *Function) Type() Type  { return Ptr }
func (f *Function) Ref() string { return "@" + f.Name }

func (f *Function) Module() *Module { return f.module }

func (f *Function) ParamTypes() []Type {
	types := make([]Type, len(f.Params))
	for i, param := range f.Params {
		types[i] = param.Typ
	}
	return types
}

func (f *Function) Param(i int) *Param { return f.Params[i] }

func (f *Function) uniqueName(name string) string {
	n, exists := f.names[name]
	f.names[name] = n + 1
	if !exists {
		return name
	}

	candidate := fmt.Sprintf("%s%d", name, n)
	for {
		if _, taken := f.names[candidate]; !taken {
			f.names[candidate] = 1
			return candidate
		}
		n++
		candidate = fmt.Sprintf("%s%d", name, n)
	}
}

func (f *Function) AddBlock(name string) *Block {
	block := &Block{
		Name:   f.uniqueName(name),
		Instrs: make([]*Instr, 0),
		Parent: f,
	}
	f.Blocks = append(f.Blocks, block)
	return block
}

// EntryBlock returns the first block, or nil for a function without a
// body.
func (f *Function) EntryBlock() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

type Block struct {
	Name   string
	Instrs []*Instr
	Parent *Function
}

// Terminator returns the last instruction if it ends the block.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

func (b *Block) Terminated() bool { return b.Terminator() != nil }
