package ir

import "fmt"

// BuilderError reports misuse of the Builder. It is raised as a panic;
// callers that build from checked input treat it as a compiler bug.
type BuilderError struct {
	Message string
}

func (e *BuilderError) Error() string { return "ir builder: " + e.Message }

func builderPanic(format string, args ...any) {
	panic(&BuilderError{Message: fmt.Sprintf(format, args...)})
}

// Builder appends instructions at the end of its insertion block.
type Builder struct {
	block *Block
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) SetInsertPointAtEnd(block *Block) {
	b.block = block
}

func (b *Builder) GetInsertBlock() *Block {
	return b.block
}

func (b *Builder) ClearInsertionPoint() {
	b.block = nil
}

func (b *Builder) insert(instr *Instr) *Instr {
	if b.block == nil {
		builderPanic("no insertion block for %s", instr.Op)
	}
	if b.block.Terminated() {
		builderPanic("block %s of %s is already terminated, cannot append %s", b.block.Name, b.block.Parent.Name, instr.Op)
	}

	if instr.Name != "" {
		instr.Name = b.block.Parent.uniqueName(instr.Name)
	}
	instr.block = b.block
	b.block.Instrs = append(b.block.Instrs, instr)
	return instr
}

func (b *Builder) CreateAlloca(t Type, name string) *Instr {
	if t.IsVoid() {
		builderPanic("cannot allocate void")
	}
	return b.insert(&Instr{Op: OpAlloca, Name: name, Typ: Ptr, ElemType: t})
}

func (b *Builder) CreateLoad(t Type, ptr Value, name string) *Instr {
	if ptr.Type().Kind != PtrKind {
		builderPanic("load from non-pointer %s", ptr.Ref())
	}
	return b.insert(&Instr{Op: OpLoad, Name: name, Typ: t, ElemType: t, Operands: []Value{ptr}})
}

func (b *Builder) CreateStore(value Value, ptr Value) *Instr {
	if ptr.Type().Kind != PtrKind {
		builderPanic("store to non-pointer %s", ptr.Ref())
	}
	return b.insert(&Instr{Op: OpStore, Typ: Void, Operands: []Value{value, ptr}})
}

func (b *Builder) createBinary(op Opcode, lhs, rhs Value, name string) *Instr {
	if lhs.Type() != rhs.Type() {
		builderPanic("%s operands differ: %s and %s", op, lhs.Type(), rhs.Type())
	}

	isFloatOp := op == OpFAdd || op == OpFSub || op == OpFMul || op == OpFDiv
	if isFloatOp != lhs.Type().IsFloat() || !(lhs.Type().IsInt() || lhs.Type().IsFloat()) {
		builderPanic("%s is not defined for %s", op, lhs.Type())
	}

	return b.insert(&Instr{Op: op, Name: name, Typ: lhs.Type(), Operands: []Value{lhs, rhs}})
}

func (b *Builder) CreateAdd(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpAdd, lhs, rhs, name)
}

func (b *Builder) CreateSub(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpSub, lhs, rhs, name)
}

func (b *Builder) CreateMul(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpMul, lhs, rhs, name)
}

func (b *Builder) CreateSDiv(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpSDiv, lhs, rhs, name)
}

func (b *Builder) CreateFAdd(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpFAdd, lhs, rhs, name)
}

func (b *Builder) CreateFSub(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpFSub, lhs, rhs, name)
}

func (b *Builder) CreateFMul(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpFMul, lhs, rhs, name)
}

func (b *Builder) CreateFDiv(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpFDiv, lhs, rhs, name)
}

func (b *Builder) CreateAnd(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpAnd, lhs, rhs, name)
}

func (b *Builder) CreateOr(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpOr, lhs, rhs, name)
}

func (b *Builder) CreateXor(lhs, rhs Value, name string) *Instr {
	return b.createBinary(OpXor, lhs, rhs, name)
}

func (b *Builder) CreateFNeg(value Value, name string) *Instr {
	if !value.Type().IsFloat() {
		builderPanic("fneg is not defined for %s", value.Type())
	}
	return b.insert(&Instr{Op: OpFNeg, Name: name, Typ: value.Type(), Operands: []Value{value}})
}

func (b *Builder) CreateICmp(pred Predicate, lhs, rhs Value, name string) *Instr {
	if pred.IsFloat() {
		builderPanic("icmp with float predicate %s", pred)
	}
	if lhs.Type() != rhs.Type() || !(lhs.Type().IsInt() || lhs.Type().Kind == PtrKind) {
		builderPanic("icmp operands %s and %s", lhs.Type(), rhs.Type())
	}
	return b.insert(&Instr{Op: OpICmp, Name: name, Typ: I1, Pred: pred, Operands: []Value{lhs, rhs}})
}

func (b *Builder) CreateFCmp(pred Predicate, lhs, rhs Value, name string) *Instr {
	if !pred.IsFloat() {
		builderPanic("fcmp with integer predicate %s", pred)
	}
	if lhs.Type() != rhs.Type() || !lhs.Type().IsFloat() {
		builderPanic("fcmp operands %s and %s", lhs.Type(), rhs.Type())
	}
	return b.insert(&Instr{Op: OpFCmp, Name: name, Typ: I1, Pred: pred, Operands: []Value{lhs, rhs}})
}

// CreateCall names the result only when the callee returns a value.
func (b *Builder) CreateCall(fn *Function, args []Value, name string) *Instr {
	if len(args) != len(fn.Params) {
		builderPanic("call to %s with %d arguments, expected %d", fn.Name, len(args), len(fn.Params))
	}
	for i, arg := range args {
		if arg.Type() != fn.Params[i].Typ {
			builderPanic("argument %d of call to %s is %s, expected %s", i, fn.Name, arg.Type(), fn.Params[i].Typ)
		}
	}

	if fn.ReturnType.IsVoid() {
		name = ""
	}
	return b.insert(&Instr{Op: OpCall, Name: name, Typ: fn.ReturnType, Callee: fn, Operands: args})
}

// CreateElemPtr returns the address of the first element of the array
// global points to.
func (b *Builder) CreateElemPtr(global *Global, name string) *Instr {
	if global.ValueTyp.Kind != ArrayKind {
		builderPanic("getelementptr into non-array %s", global.Ref())
	}
	return b.insert(&Instr{Op: OpElemPtr, Name: name, Typ: Ptr, ElemType: global.ValueTyp, Operands: []Value{global}})
}

func (b *Builder) checkTarget(target *Block) {
	if target == nil || target.Parent != b.block.Parent {
		builderPanic("branch target outside of function %s", b.block.Parent.Name)
	}
}

func (b *Builder) CreateBr(target *Block) *Instr {
	if b.block != nil {
		b.checkTarget(target)
	}
	return b.insert(&Instr{Op: OpBr, Typ: Void, Targets: []*Block{target}})
}

func (b *Builder) CreateCondBr(cond Value, then, otherwise *Block) *Instr {
	if cond.Type() != I1 {
		builderPanic("branch condition must be i1, got %s", cond.Type())
	}
	if b.block != nil {
		b.checkTarget(then)
		b.checkTarget(otherwise)
	}
	return b.insert(&Instr{Op: OpCondBr, Typ: Void, Operands: []Value{cond}, Targets: []*Block{then, otherwise}})
}

func (b *Builder) CreateRet(value Value) *Instr {
	if b.block != nil && value.Type() != b.block.Parent.ReturnType {
		builderPanic("%s returns %s, got %s", b.block.Parent.Name, b.block.Parent.ReturnType, value.Type())
	}
	return b.insert(&Instr{Op: OpRet, Typ: Void, Operands: []Value{value}})
}

func (b *Builder) CreateRetVoid() *Instr {
	if b.block != nil && !b.block.Parent.ReturnType.IsVoid() {
		builderPanic("%s returns %s, got void", b.block.Parent.Name, b.block.Parent.ReturnType)
	}
	return b.insert(&Instr{Op: OpRet, Typ: Void})
}

func (b *Builder) CreateUnreachable() *Instr {
	return b.insert(&Instr{Op: OpUnreachable, Typ: Void})
}
