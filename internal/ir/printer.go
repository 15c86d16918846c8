package ir

import (
	"fmt"
	"io"
	"strings"
)

func (g *Global) String() string {
	if g.Data != nil {
		return fmt.Sprintf("@%s = private constant %s c\"%s\"", g.Name, g.ValueTyp, escapeBytes(g.Data))
	}

	kind := "global"
	if g.Constant {
		kind = "constant"
	}
	return fmt.Sprintf("@%s = %s %s %s", g.Name, kind, g.ValueTyp, ConstZero(g.ValueTyp).Ref())
}

func escapeBytes(data []byte) string {
	var sb strings.Builder
	for _, c := range data {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", c)
	}
	return sb.String()
}

func (f *Function) Signature() string {
	params := make([]string, len(f.Params))
	for i, param := range f.Params {
		params[i] = typedRef(param)
	}
	return fmt.Sprintf("%s @%s(%s)", f.ReturnType, f.Name, strings.Join(params, ", "))
}

func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", b.Name)
	for _, instr := range b.Instrs {
		fmt.Fprintf(&sb, "  %s\n", instr)
	}
	return sb.String()
}

func (f *Function) String() string {
	if len(f.Blocks) == 0 {
		return fmt.Sprintf("declare %s\n", f.Signature())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "define %s {\n", f.Signature())
	for i, block := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Fprint writes the textual form of the module, globals first.
func Fprint(w io.Writer, m *Module) error {
	if _, err := fmt.Fprintf(w, "; module %s\n", m.Name); err != nil {
		return err
	}

	if len(m.Globals) > 0 {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	for _, global := range m.Globals {
		if _, err := fmt.Fprintln(w, global); err != nil {
			return err
		}
	}

	for _, fn := range m.Functions {
		if _, err := fmt.Fprintf(w, "\n%s", fn); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) String() string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}
