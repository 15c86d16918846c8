package ir

import (
	"math"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestConstRef(t *testing.T) {
	be.Equal(t, ConstInt(42).Ref(), "42")
	be.Equal(t, ConstInt(-7).Ref(), "-7")
	be.Equal(t, ConstBool(true).Ref(), "true")
	be.Equal(t, ConstBool(false).Ref(), "false")
	be.Equal(t, ConstFloat(3).Ref(), "3.0")
	be.Equal(t, ConstFloat(1.5).Ref(), "1.5")
	be.Equal(t, ConstFloat(1e21).Ref(), "1.0e+21")
	be.Equal(t, ConstFloat(1e300).Ref(), "1.0e+300")
	be.Equal(t, ConstFloat(-2.5e-10).Ref(), "-2.5e-10")
	be.Equal(t, ConstFloat(math.Inf(1)).Ref(), "0x7FF0000000000000")
	be.Equal(t, ConstFloat(math.Inf(-1)).Ref(), "0xFFF0000000000000")
	be.Equal(t, ConstFloat(math.Float64frombits(0x7FF8000000000000)).Ref(), "0x7FF8000000000000")
	be.Equal(t, ConstNull().Ref(), "null")
	be.Equal(t, ConstZero(F64).Ref(), "0.0")
}

func TestTypeString(t *testing.T) {
	be.Equal(t, Void.String(), "void")
	be.Equal(t, I1.String(), "i1")
	be.Equal(t, I64.String(), "i64")
	be.Equal(t, F64.String(), "double")
	be.Equal(t, Ptr.String(), "ptr")
	be.Equal(t, ByteArray(3).String(), "[3 x i8]")
}

func TestFunctionNamesAreUnique(t *testing.T) {
	m := NewModule("test")
	fn := m.AddFunction("f", I64, []Type{I64, I64}, []string{"a", "a"})
	be.Equal(t, fn.Param(0).Name, "a")
	be.Equal(t, fn.Param(1).Name, "a1")

	body := fn.AddBlock("body")
	body2 := fn.AddBlock("body")
	be.Equal(t, body.Name, "body")
	be.Equal(t, body2.Name, "body1")

	// blocks and values share one namespace
	b := NewBuilder()
	b.SetInsertPointAtEnd(body)
	sum := b.CreateAdd(fn.Param(0), fn.Param(1), "body")
	be.Equal(t, sum.Name, "body2")

	other := m.AddFunction("f", Void, nil, nil)
	be.Equal(t, other.Name, "f1")
}

func TestStringConstantsAreShared(t *testing.T) {
	m := NewModule("test")
	hi := m.AddStringConstant("hi")
	again := m.AddStringConstant("hi")
	bye := m.AddStringConstant("bye")

	be.True(t, hi == again)
	be.Equal(t, hi.Name, ".str.0")
	be.Equal(t, bye.Name, ".str.1")
	be.Equal(t, hi.ValueTyp, ByteArray(3))
	be.Equal(t, hi.String(), `@.str.0 = private constant [3 x i8] c"hi\00"`)
	be.Equal(t, len(m.Globals), 2)
}

func TestGlobalString(t *testing.T) {
	m := NewModule("test")
	be.Equal(t, m.AddGlobal("g", I64).String(), "@g = global i64 0")
	be.Equal(t, m.AddGlobal("flag", I1).String(), "@flag = global i1 false")
	be.Equal(t, m.AddGlobal("s", Ptr).String(), "@s = global ptr null")
}

func newTestFunction(t *testing.T) (*Module, *Function, *Builder) {
	t.Helper()
	m := NewModule("test")
	fn := m.AddFunction("main", I64, []Type{I64}, []string{"a"})
	b := NewBuilder()
	b.SetInsertPointAtEnd(fn.AddBlock("entry"))
	return m, fn, b
}

func TestPrintFunction(t *testing.T) {
	m, fn, b := newTestFunction(t)

	x := b.CreateAlloca(I64, "x")
	b.CreateStore(fn.Param(0), x)
	load := b.CreateLoad(I64, x, "loadtmp")
	sum := b.CreateAdd(load, ConstInt(1), "addtmp")
	cmp := b.CreateICmp(IntSLT, sum, ConstInt(10), "cmptmp")

	then := fn.AddBlock("body")
	otherwise := fn.AddBlock("else")
	b.CreateCondBr(cmp, then, otherwise)

	b.SetInsertPointAtEnd(then)
	b.CreateRet(sum)

	b.SetInsertPointAtEnd(otherwise)
	str := b.CreateElemPtr(m.AddStringConstant("no"), "strtmp")
	_ = str
	b.CreateUnreachable()

	want := `define i64 @main(i64 %a) {
entry:
  %x = alloca i64
  store i64 %a, ptr %x
  %loadtmp = load i64, ptr %x
  %addtmp = add i64 %loadtmp, 1
  %cmptmp = icmp slt i64 %addtmp, 10
  br i1 %cmptmp, label %body, label %else

body:
  ret i64 %addtmp

else:
  %strtmp = getelementptr inbounds [3 x i8], ptr @.str.0, i64 0, i64 0
  unreachable
}
`
	be.Equal(t, fn.String(), want)
	be.Err(t, Verify(m), nil)
}

func TestPrintModule(t *testing.T) {
	m := NewModule("demo")
	m.AddGlobal("g", F64)
	callee := m.AddFunction("f", F64, []Type{F64}, []string{"v"})
	caller := m.AddFunction("g", Void, nil, nil)

	b := NewBuilder()
	b.SetInsertPointAtEnd(callee.AddBlock("entry"))
	neg := b.CreateFNeg(callee.Param(0), "negtmp")
	b.CreateRet(neg)

	b.SetInsertPointAtEnd(caller.AddBlock("entry"))
	b.CreateCall(callee, []Value{ConstFloat(2)}, "calltmp")
	b.CreateRetVoid()

	out := m.String()
	be.True(t, strings.HasPrefix(out, "; module demo\n\n@g = global double 0.0\n"))
	be.True(t, strings.Contains(out, "define double @f(double %v) {"))
	be.True(t, strings.Contains(out, "%negtmp = fneg double %v"))
	be.True(t, strings.Contains(out, "%calltmp = call double @f(double 2.0)"))
	be.True(t, strings.Contains(out, "define void @g1() {"))
	be.True(t, strings.Contains(out, "ret void"))
}

func TestCallToVoidFunctionHasNoName(t *testing.T) {
	m := NewModule("test")
	callee := m.AddFunction("f", Void, nil, nil)
	caller := m.AddFunction("g", Void, nil, nil)

	b := NewBuilder()
	b.SetInsertPointAtEnd(caller.AddBlock("entry"))
	call := b.CreateCall(callee, nil, "calltmp")
	be.Equal(t, call.Name, "")
	be.Equal(t, call.String(), "call void @f()")
}

func expectBuilderPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		_, ok := r.(*BuilderError)
		be.True(t, ok)
	}()
	fn()
}

func TestBuilderRejectsAppendAfterTerminator(t *testing.T) {
	_, _, b := newTestFunction(t)
	b.CreateRet(ConstInt(0))
	expectBuilderPanic(t, func() { b.CreateRet(ConstInt(1)) })
}

func TestBuilderRejectsMismatchedOperands(t *testing.T) {
	_, _, b := newTestFunction(t)
	expectBuilderPanic(t, func() { b.CreateAdd(ConstInt(1), ConstFloat(1), "addtmp") })
	expectBuilderPanic(t, func() { b.CreateAdd(ConstFloat(1), ConstFloat(1), "addtmp") })
	expectBuilderPanic(t, func() { b.CreateFCmp(IntEQ, ConstFloat(1), ConstFloat(1), "cmptmp") })
	expectBuilderPanic(t, func() { b.CreateCondBr(ConstInt(1), nil, nil) })
}

func TestBuilderRejectsForeignBranchTarget(t *testing.T) {
	m, _, b := newTestFunction(t)
	other := m.AddFunction("other", Void, nil, nil)
	foreign := other.AddBlock("entry")
	expectBuilderPanic(t, func() { b.CreateBr(foreign) })
}

func TestVerifyReportsStructuralErrors(t *testing.T) {
	m, fn, b := newTestFunction(t)
	b.CreateBr(fn.AddBlock("next"))

	next := fn.Blocks[1]
	b.SetInsertPointAtEnd(next)
	b.CreateAlloca(I64, "late")

	err := Verify(m)
	be.Err(t, err)
	be.True(t, strings.Contains(err.Error(), "main: next: block has no terminator"))
	be.True(t, strings.Contains(err.Error(), "main: next: alloca %late outside of the entry block"))
}

func TestVerifyReportsMisplacedTerminator(t *testing.T) {
	m, fn, _ := newTestFunction(t)
	entry := fn.EntryBlock()
	entry.Instrs = append(entry.Instrs,
		&Instr{Op: OpRet, Typ: Void, Operands: []Value{ConstInt(0)}, block: entry},
		&Instr{Op: OpUnreachable, Typ: Void, block: entry},
	)

	err := Verify(m)
	be.Err(t, err)
	be.True(t, strings.Contains(err.Error(), "terminator ret is not the last instruction"))
}

func TestVerifyReportsForeignOperands(t *testing.T) {
	m, fn, b := newTestFunction(t)
	x := b.CreateAlloca(I64, "x")
	b.CreateRet(fn.Param(0))

	other := m.AddFunction("other", I64, nil, nil)
	b.SetInsertPointAtEnd(other.AddBlock("entry"))
	value := b.CreateLoad(I64, x, "loadtmp")
	sum := b.CreateAdd(value, fn.Param(0), "addtmp")
	b.CreateRet(sum)

	err := Verify(m)
	be.Err(t, err, "other: entry: load uses %x of function main")
	be.Err(t, err, "other: entry: add uses %a of function main")

	be.True(t, fn.Param(0).Parent() == fn)
}
