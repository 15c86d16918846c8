package ir

import (
	"errors"
	"fmt"
)

// Verify checks the structural rules every function body must obey and
// returns all violations found.
func Verify(m *Module) error {
	errs := make([]error, 0)
	for _, fn := range m.Functions {
		errs = append(errs, verifyFunction(fn)...)
	}
	return errors.Join(errs...)
}

func verifyFunction(fn *Function) []error {
	errs := make([]error, 0)
	report := func(block *Block, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s: %s", fn.Name, block.Name, fmt.Sprintf(format, args...)))
	}

	owned := make(map[*Block]bool, len(fn.Blocks))
	for _, block := range fn.Blocks {
		owned[block] = true
	}

	for i, block := range fn.Blocks {
		if block.Parent != fn {
			report(block, "block belongs to another function")
		}

		if !block.Terminated() {
			report(block, "block has no terminator")
		}

		for j, instr := range block.Instrs {
			if instr.IsTerminator() && j != len(block.Instrs)-1 {
				report(block, "terminator %s is not the last instruction", instr.Op)
			}
			if instr.Op == OpAlloca && i != 0 {
				report(block, "alloca %%%s outside of the entry block", instr.Name)
			}
			for _, operand := range instr.Operands {
				if owner := operandOwner(operand); owner != nil && owner != fn {
					report(block, "%s uses %s of function %s", instr.Op, operand.Ref(), owner.Name)
				}
			}
			for _, target := range instr.Targets {
				if !owned[target] {
					report(block, "branch to block %s of another function", target.Name)
				}
			}
			if instr.Op == OpRet {
				verifyRet(fn, block, instr, report)
			}
		}
	}

	return errs
}

// operandOwner returns the function a local value is defined in, or nil
// for constants, globals and functions.
func operandOwner(operand Value) *Function {
	switch v := operand.(type) {
	case *Instr:
		if v.block == nil {
			return nil
		}
		return v.block.Parent
	case *Param:
		return v.parent
	default:
		return nil
	}
}

func verifyRet(fn *Function, block *Block, ret *Instr, report func(*Block, string, ...any)) {
	if len(ret.Operands) == 0 {
		if !fn.ReturnType.IsVoid() {
			report(block, "ret void in function returning %s", fn.ReturnType)
		}
		return
	}

	if got := ret.Operands[0].Type(); got != fn.ReturnType {
		report(block, "ret %s in function returning %s", got, fn.ReturnType)
	}
}
