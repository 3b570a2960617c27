// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package som

import (
	"fmt"
	"strings"
)

// luaKeywords must never appear bare as a generated identifier; any
// selector or variable name colliding with one gets an underscore
// prefix, the same escape kati's strutil.go applies to shell-special
// characters it cannot pass through unquoted.
var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "if": true,
	"in": true, "local": true, "nil": true, "not": true, "or": true,
	"repeat": true, "return": true, "then": true, "true": true, "until": true, "while": true,
}

func luaIdent(name string) string {
	if luaKeywords[name] {
		return "_" + name
	}
	return name
}

func luaEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString("\\\"")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// LuaEmitter renders an *ObjectModel as textual Lua source, grounded on
// original_source/SomLuaTranspiler.cpp: one Lua function per method, one
// table per class holding its methods, selectors rewritten through
// EncodeSelector the same way the transpiler turns a SOM selector into a
// valid Lua name.
type LuaEmitter struct {
	om    *ObjectModel
	model *Model
	sb    strings.Builder
	indent int
}

func NewLuaEmitter(om *ObjectModel, model *Model) *LuaEmitter {
	return &LuaEmitter{om: om, model: model}
}

func (e *LuaEmitter) writeln(format string, a ...interface{}) {
	e.sb.WriteString(strings.Repeat("  ", e.indent))
	fmt.Fprintf(&e.sb, format, a...)
	e.sb.WriteByte('\n')
}

// Emit renders the whole program and returns the Lua source text.
func (e *LuaEmitter) Emit(mainClass string) string {
	e.writeln("-- generated, do not edit")
	for _, c := range e.model.LoadOrder() {
		e.emitClass(c)
	}
	e.writeln("%s.new():%s()", mainClass, EncodeSelector(PatternKeyword, "run:"))
	return e.sb.String()
}

func (e *LuaEmitter) emitClass(c *Class) {
	super := "nil"
	if c.Super != nil {
		super = c.Super.Name.String()
	}
	e.writeln("local %s = setmetatable({}, {__index = %s})", c.Name.String(), super)
	for _, m := range c.Methods {
		e.emitMethod(c.Name.String(), m)
	}
	for _, m := range c.ClassMethods {
		e.emitMethod(c.Name.String()+"_class", m)
	}
}

func (e *LuaEmitter) emitMethod(owner string, m *Method) {
	params := []string{"self"}
	for _, p := range m.Params {
		params = append(params, luaIdent(p.Name.String()))
	}
	e.writeln("function %s:%s(%s)", owner, EncodeSelector(m.Pattern, m.Selector()), strings.Join(params[1:], ", "))
	e.indent++
	for _, l := range m.Locals {
		e.writeln("local %s = nil", luaIdent(l.Name.String()))
	}
	for _, stmt := range m.Body {
		e.emitStmt(stmt)
	}
	e.indent--
	e.writeln("end")
}

func (e *LuaEmitter) emitStmt(expr Expr) {
	if ret, ok := expr.(*Return); ok {
		e.writeln("return %s", e.expr(ret.What))
		return
	}
	e.writeln("%s", e.expr(expr))
}

func (e *LuaEmitter) expr(expr Expr) string {
	switch n := expr.(type) {
	case *IntLit:
		return n.Text
	case *RealLit:
		return n.Text
	case *CharLit:
		return fmt.Sprintf("%q", string(n.Value))
	case *StringLit:
		return fmt.Sprintf("\"%s\"", luaEscape(n.Value))
	case *SymbolLit:
		return fmt.Sprintf("\"%s\"", luaEscape(n.Name.String()))
	case *ArrayLit:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = e.expr(el)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *KeywordExpr:
		switch n.Keyword {
		case KwSelf, KwSuper:
			return "self"
		case KwTrue:
			return "true"
		case KwFalse:
			return "false"
		default:
			return "nil"
		}
	case *Ident:
		return e.ident(n)
	case *Assign:
		return fmt.Sprintf("%s = %s", e.ident(n.Lhs), e.expr(n.Rhs))
	case *Send:
		return e.send(n)
	case *Cascade:
		parts := make([]string, len(n.Calls))
		for i, call := range n.Calls {
			parts[i] = e.send(call)
		}
		return strings.Join(parts, "; ")
	case *Block:
		return e.block(n)
	case *Return:
		return e.expr(n.What)
	default:
		return "nil --[[ unsupported ]]"
	}
}

func (e *LuaEmitter) ident(id *Ident) string {
	if id.Resolved != nil {
		switch id.Resolved.Kind {
		case VarInstance:
			return "self." + luaIdent(id.Resolved.Name.String())
		case VarClass:
			return "self.class." + luaIdent(id.Resolved.Name.String())
		default:
			return luaIdent(id.Resolved.Name.String())
		}
	}
	if id.Global != nil {
		return id.Global.Name.String()
	}
	return luaIdent(id.Name.String())
}

func (e *LuaEmitter) send(s *Send) string {
	switch s.Flow {
	case FlowIfTrue:
		return fmt.Sprintf("(%s and (%s) or nil)", e.expr(s.Receiver), e.blockValue(s.Args[0].(*Block)))
	case FlowIfFalse:
		return fmt.Sprintf("(not (%s) and (%s) or nil)", e.expr(s.Receiver), e.blockValue(s.Args[0].(*Block)))
	case FlowIfElse:
		return fmt.Sprintf("(%s and (%s) or (%s))", e.expr(s.Receiver), e.blockValue(s.Args[0].(*Block)), e.blockValue(s.Args[1].(*Block)))
	case FlowWhileTrue:
		return fmt.Sprintf("(function() while (%s) do (%s) end end)()", e.blockValue(s.Receiver.(*Block)), e.blockValue(s.Args[0].(*Block)))
	case FlowWhileFalse:
		return fmt.Sprintf("(function() while not (%s) do (%s) end end)()", e.blockValue(s.Receiver.(*Block)), e.blockValue(s.Args[0].(*Block)))
	}

	recv := e.expr(s.Receiver)
	sel := EncodeSelector(s.Pattern, s.Selector())
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = e.expr(a)
	}
	return fmt.Sprintf("%s:%s(%s)", recv, sel, strings.Join(args, ", "))
}

func (e *LuaEmitter) blockValue(b *Block) string {
	if len(b.Body) == 0 {
		return "nil"
	}
	return e.expr(b.Body[len(b.Body)-1])
}

func (e *LuaEmitter) block(b *Block) string {
	params := make([]string, len(b.Params))
	for i, p := range b.Params {
		params[i] = luaIdent(p.Name.String())
	}
	return fmt.Sprintf("(function(%s) return %s end)", strings.Join(params, ", "), e.blockValue(b))
}
