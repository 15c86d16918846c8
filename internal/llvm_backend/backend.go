package llvm_backend

import (
	"fmt"

	"github.com/kievzenit/coal/internal/ir"
	"tinygo.org/x/go-llvm"
)

// Output owns the LLVM context the module was built in.
type Output struct {
	Context llvm.Context
	Module  llvm.Module
}

func (o *Output) String() string {
	return o.Module.String()
}

func (o *Output) Dispose() {
	o.Module.Dispose()
	o.Context.Dispose()
}

type loweringError struct {
	message string
}

// Backend translates an ir.Module into an LLVM module.
type Backend struct {
	// Verify runs the LLVM verifier over the lowered module.
	Verify bool

	irModule *ir.Module

	context llvm.Context
	module  llvm.Module
	builder llvm.Builder

	funcsMap   map[*ir.Function]llvm.Value
	globalsMap map[*ir.Global]llvm.Value
	paramsMap  map[*ir.Param]llvm.Value
	blocksMap  map[*ir.Block]llvm.BasicBlock
	valuesMap  map[*ir.Instr]llvm.Value
}

func NewBackend(irModule *ir.Module) *Backend {
	return &Backend{
		Verify:   true,
		irModule: irModule,

		funcsMap:   make(map[*ir.Function]llvm.Value),
		globalsMap: make(map[*ir.Global]llvm.Value),
		paramsMap:  make(map[*ir.Param]llvm.Value),
		blocksMap:  make(map[*ir.Block]llvm.BasicBlock),
		valuesMap:  make(map[*ir.Instr]llvm.Value),
	}
}

func fail(format string, args ...any) {
	panic(&loweringError{message: fmt.Sprintf(format, args...)})
}

// Lower builds and verifies the LLVM module. targetTriple may be empty.
// The caller owns the returned Output and must dispose it.
func (b *Backend) Lower(targetTriple string) (out *Output, err error) {
	b.context = llvm.NewContext()
	b.module = b.context.NewModule(b.irModule.Name)
	b.builder = b.context.NewBuilder()
	defer b.builder.Dispose()

	defer func() {
		if r := recover(); r != nil {
			lerr, ok := r.(*loweringError)
			if !ok {
				panic(r)
			}
			b.module.Dispose()
			b.context.Dispose()
			out, err = nil, fmt.Errorf("llvm backend: %s", lerr.message)
		}
	}()

	if targetTriple != "" {
		b.module.SetTarget(targetTriple)
	}

	b.declareGlobals()
	b.declareFuncPrototypes()
	for _, fn := range b.irModule.Functions {
		b.emitForFunction(fn)
	}

	if b.Verify {
		if err := llvm.VerifyModule(b.module, llvm.ReturnStatusAction); err != nil {
			b.module.Dispose()
			b.context.Dispose()
			return nil, fmt.Errorf("llvm backend: invalid module: %w", err)
		}
	}

	return &Output{Context: b.context, Module: b.module}, nil
}

func (b *Backend) getLlvmType(t ir.Type) llvm.Type {
	switch t.Kind {
	case ir.VoidKind:
		return b.context.VoidType()
	case ir.IntKind:
		return b.context.IntType(t.Bits)
	case ir.FloatKind:
		return b.context.DoubleType()
	case ir.PtrKind:
		return llvm.PointerType(b.context.Int8Type(), 0)
	case ir.ArrayKind:
		return llvm.ArrayType(b.context.Int8Type(), t.Len)
	default:
		panic("unreachable")
	}
}

func (b *Backend) declareGlobals() {
	for _, global := range b.irModule.Globals {
		globalType := b.getLlvmType(global.ValueTyp)
		globalValue := llvm.AddGlobal(b.module, globalType, global.Name)

		if global.Data != nil {
			globalValue.SetInitializer(b.context.ConstString(string(global.Data), false))
			globalValue.SetLinkage(llvm.PrivateLinkage)
			globalValue.SetUnnamedAddr(true)
		} else {
			globalValue.SetInitializer(llvm.ConstNull(globalType))
		}
		globalValue.SetGlobalConstant(global.Constant)

		b.globalsMap[global] = globalValue
	}
}

func (b *Backend) declareFuncPrototypes() {
	for _, fn := range b.irModule.Functions {
		paramTypes := make([]llvm.Type, len(fn.Params))
		for i, param := range fn.Params {
			paramTypes[i] = b.getLlvmType(param.Typ)
		}

		funcType := llvm.FunctionType(b.getLlvmType(fn.ReturnType), paramTypes, false)
		funcValue := llvm.AddFunction(b.module, fn.Name, funcType)
		for i, param := range fn.Params {
			paramValue := funcValue.Param(i)
			paramValue.SetName(param.Name)
			b.paramsMap[param] = paramValue
		}
		b.funcsMap[fn] = funcValue

		if len(fn.Blocks) == 0 {
			continue
		}

		framePointerAttr := b.context.CreateStringAttribute("frame-pointer", "all")
		noTrappingMathAttr := b.context.CreateStringAttribute("no-trapping-math", "true")
		stackProtectorBufferSizeAttr := b.context.CreateStringAttribute("stack-protector-buffer-size", "8")
		funcValue.AddFunctionAttr(framePointerAttr)
		funcValue.AddFunctionAttr(noTrappingMathAttr)
		funcValue.AddFunctionAttr(stackProtectorBufferSizeAttr)
	}
}

func (b *Backend) emitForFunction(fn *ir.Function) {
	funcValue := b.funcsMap[fn]

	for _, block := range fn.Blocks {
		b.blocksMap[block] = b.context.AddBasicBlock(funcValue, block.Name)
	}

	for _, block := range fn.Blocks {
		b.builder.SetInsertPointAtEnd(b.blocksMap[block])
		for _, instr := range block.Instrs {
			value := b.emitForInstr(instr)
			if instr.Name != "" {
				b.valuesMap[instr] = value
			}
		}
	}
}

func (b *Backend) getBlock(block *ir.Block) llvm.BasicBlock {
	bb, ok := b.blocksMap[block]
	if !ok {
		fail("block %s was not declared", block.Name)
	}
	return bb
}

func (b *Backend) getValue(value ir.Value) llvm.Value {
	switch v := value.(type) {
	case *ir.Const:
		return b.getConst(v)
	case *ir.Param:
		if paramValue, ok := b.paramsMap[v]; ok {
			return paramValue
		}
		fail("parameter %s has no function", v.Name)
	case *ir.Global:
		if globalValue, ok := b.globalsMap[v]; ok {
			return globalValue
		}
		fail("global %s was not declared", v.Name)
	case *ir.Function:
		if funcValue, ok := b.funcsMap[v]; ok {
			return funcValue
		}
		fail("function %s was not declared", v.Name)
	case *ir.Instr:
		if instrValue, ok := b.valuesMap[v]; ok {
			return instrValue
		}
		fail("%%%s is used before it is defined", v.Name)
	}

	panic("unreachable")
}

func (b *Backend) getConst(c *ir.Const) llvm.Value {
	constType := b.getLlvmType(c.Typ)
	switch c.Typ.Kind {
	case ir.IntKind:
		return llvm.ConstInt(constType, uint64(c.Int), true)
	case ir.FloatKind:
		return llvm.ConstFloat(constType, c.Float)
	case ir.PtrKind:
		return llvm.ConstNull(constType)
	default:
		panic("unreachable")
	}
}

var intPredicates = map[ir.Predicate]llvm.IntPredicate{
	ir.IntEQ:  llvm.IntEQ,
	ir.IntNE:  llvm.IntNE,
	ir.IntSLT: llvm.IntSLT,
	ir.IntSGT: llvm.IntSGT,
	ir.IntSLE: llvm.IntSLE,
	ir.IntSGE: llvm.IntSGE,
	ir.IntULT: llvm.IntULT,
	ir.IntUGT: llvm.IntUGT,
	ir.IntULE: llvm.IntULE,
	ir.IntUGE: llvm.IntUGE,
}

var floatPredicates = map[ir.Predicate]llvm.FloatPredicate{
	ir.FloatOEQ: llvm.FloatOEQ,
	ir.FloatONE: llvm.FloatONE,
	ir.FloatOLT: llvm.FloatOLT,
	ir.FloatOGT: llvm.FloatOGT,
	ir.FloatOLE: llvm.FloatOLE,
	ir.FloatOGE: llvm.FloatOGE,
}

func (b *Backend) emitForInstr(instr *ir.Instr) llvm.Value {
	operands := make([]llvm.Value, len(instr.Operands))
	for i, operand := range instr.Operands {
		operands[i] = b.getValue(operand)
	}

	switch instr.Op {
	case ir.OpAlloca:
		return b.builder.CreateAlloca(b.getLlvmType(instr.ElemType), instr.Name)
	case ir.OpLoad:
		return b.builder.CreateLoad(b.getLlvmType(instr.ElemType), operands[0], instr.Name)
	case ir.OpStore:
		return b.builder.CreateStore(operands[0], operands[1])
	case ir.OpAdd:
		return b.builder.CreateAdd(operands[0], operands[1], instr.Name)
	case ir.OpSub:
		return b.builder.CreateSub(operands[0], operands[1], instr.Name)
	case ir.OpMul:
		return b.builder.CreateMul(operands[0], operands[1], instr.Name)
	case ir.OpSDiv:
		return b.builder.CreateSDiv(operands[0], operands[1], instr.Name)
	case ir.OpFAdd:
		return b.builder.CreateFAdd(operands[0], operands[1], instr.Name)
	case ir.OpFSub:
		return b.builder.CreateFSub(operands[0], operands[1], instr.Name)
	case ir.OpFMul:
		return b.builder.CreateFMul(operands[0], operands[1], instr.Name)
	case ir.OpFDiv:
		return b.builder.CreateFDiv(operands[0], operands[1], instr.Name)
	case ir.OpFNeg:
		return b.builder.CreateFNeg(operands[0], instr.Name)
	case ir.OpAnd:
		return b.builder.CreateAnd(operands[0], operands[1], instr.Name)
	case ir.OpOr:
		return b.builder.CreateOr(operands[0], operands[1], instr.Name)
	case ir.OpXor:
		return b.builder.CreateXor(operands[0], operands[1], instr.Name)
	case ir.OpICmp:
		return b.builder.CreateICmp(intPredicates[instr.Pred], operands[0], operands[1], instr.Name)
	case ir.OpFCmp:
		return b.builder.CreateFCmp(floatPredicates[instr.Pred], operands[0], operands[1], instr.Name)
	case ir.OpCall:
		funcValue := b.getValue(instr.Callee)
		return b.builder.CreateCall(funcValue.GlobalValueType(), funcValue, operands, instr.Name)
	case ir.OpElemPtr:
		zero := llvm.ConstInt(b.context.Int64Type(), 0, false)
		return b.builder.CreateInBoundsGEP(
			b.getLlvmType(instr.ElemType),
			operands[0],
			[]llvm.Value{zero, zero},
			instr.Name,
		)
	case ir.OpBr:
		return b.builder.CreateBr(b.getBlock(instr.Targets[0]))
	case ir.OpCondBr:
		return b.builder.CreateCondBr(operands[0], b.getBlock(instr.Targets[0]), b.getBlock(instr.Targets[1]))
	case ir.OpRet:
		if len(operands) == 0 {
			return b.builder.CreateRetVoid()
		}
		return b.builder.CreateRet(operands[0])
	case ir.OpUnreachable:
		return b.builder.CreateUnreachable()
	default:
		panic("not implemented")
	}
}
