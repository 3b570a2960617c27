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
	"strings"
)

// Parser turns one class's token stream into a *Class AST (C3). Errors are
// accumulated into Diagnostics; the parser keeps going wherever recovery is
// obvious (a statement terminator or a closing paren) so that one pass can
// harvest more than the first mistake.
type Parser struct {
	lex      *Lexer
	st       *symtab
	diag     *Diagnostics
	filename string

	curMethod  *Method
	blockStack []*Block // innermost last; used to stamp Return.NonLocal and Block.Parent/SyntaxDepth
}

// ParseClass parses one complete class declaration from src and returns the
// resulting AST. It never returns nil: on unrecoverable failure (e.g. the
// file does not even start with a class name) it returns a Class with as
// much filled in as could be salvaged, plus diagnostics in diag.
func ParseClass(st *symtab, diag *Diagnostics, filename string, src []byte) *Class {
	p := &Parser{lex: NewLexer(filename, src), st: st, diag: diag, filename: filename}
	return p.parseClass()
}

func (p *Parser) errf(pos SourcePos, format string, a ...interface{}) {
	p.diag.Errorf(pos, PhaseParse, format, a...)
}

func (p *Parser) intern(s string) Sym { return p.st.intern(s) }

func (p *Parser) peek() Token  { return p.lex.Peek(0) }
func (p *Parser) peek2() Token { return p.lex.Peek(1) }
func (p *Parser) next() Token  { return p.lex.Next() }

// expectKind consumes and returns the next token if it has kind k; otherwise
// it records an error and returns the unexpected token without consuming it.
func (p *Parser) expectKind(k TokKind, what string) (Token, bool) {
	t := p.peek()
	if t.Kind == k {
		return p.next(), true
	}
	p.errf(t.Pos, "expected %s, found %q", what, t.Text)
	return t, false
}

// skipToStmtBoundary recovers from a malformed statement by consuming
// tokens up to (and including) the next '.' or up to (but not including) a
// closing paren/bracket or eof.
func (p *Parser) skipToStmtBoundary() {
	for {
		t := p.peek()
		switch t.Kind {
		case TokDot:
			p.next()
			return
		case TokRPar, TokRBrack, TokEOF:
			return
		default:
			p.next()
		}
	}
}

// ---- class ----

func (p *Parser) parseClass() *Class {
	nameTok, ok := p.expectKind(TokIdent, "class name")
	if !ok {
		return newClass(Sym{}, p.intern("Object"), nameTok.Pos)
	}
	name := p.intern(nameTok.Text)

	p.expectKind(TokEq, "'='")

	superName := p.intern("Object")
	if p.peek().Kind == TokIdent {
		st := p.next()
		superName = p.intern(st.Text)
	}
	// `nil` as an explicit super is only valid for Object itself; the
	// loader enforces that once the class registry exists.

	class := newClass(name, superName, nameTok.Pos)

	if _, ok := p.expectKind(TokLPar, "'('"); !ok {
		return class
	}

	p.parseClassSection(class, false)
	if p.peek().Kind == TokSeparator {
		p.next()
		p.parseClassSection(class, true)
	}

	p.expectKind(TokRPar, "')'")
	return class
}

func (p *Parser) parseClassSection(class *Class, classSide bool) {
	vars := p.tryParseVarList()
	for _, name := range vars {
		v := &Variable{Kind: VarInstance, Name: name, Owner: class}
		if classSide {
			v.Kind = VarClass
			if class.FindClassVar(name) != nil {
				p.errf(class.Pos, "duplicate class variable %q", name.String())
				continue
			}
			class.addClassVar(v)
		} else {
			if class.FindInstVar(name) != nil {
				p.errf(class.Pos, "duplicate instance variable %q", name.String())
				continue
			}
			class.addInstVar(v)
		}
	}
	for {
		t := p.peek()
		if t.Kind == TokRPar || t.Kind == TokSeparator || t.Kind == TokEOF {
			return
		}
		m := p.parseMethod(class, classSide)
		if m == nil {
			p.skipToStmtBoundary()
			if p.peek().Kind == TokRBrack {
				p.next()
			}
			continue
		}
		var existing *Method
		if classSide {
			existing = class.FindClassMethod(m.Sel)
		} else {
			existing = class.FindMethod(m.Sel)
		}
		if existing != nil {
			p.errf(m.Pos, "duplicate method %q", m.Selector())
			continue
		}
		class.addMethod(m)
	}
}

// tryParseVarList parses an optional `| a b c |` variable list.
func (p *Parser) tryParseVarList() []Sym {
	if p.peek().Kind != TokBar {
		return nil
	}
	p.next()
	var names []Sym
	seen := map[Sym]bool{}
	for p.peek().Kind == TokIdent {
		t := p.next()
		n := p.intern(t.Text)
		if seen[n] {
			p.errf(t.Pos, "duplicate variable name %q", t.Text)
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	p.expectKind(TokBar, "'|'")
	return names
}

// ---- method ----

func (p *Parser) parseMethod(class *Class, classSide bool) *Method {
	startPos := p.peek().Pos
	m := &Method{Owner: class, ClassLevel: classSide, Pos: startPos}

	if !p.parseSignature(m) {
		return nil
	}
	m.Sel = p.selectorOf(m)

	if _, ok := p.expectKind(TokEq, "'='"); !ok {
		return m
	}

	if p.peek().Kind == TokIdent && p.peek().Text == "primitive" {
		t := p.next()
		m.Primitive = true
		m.PrimitiveName = m.Selector()
		m.EndPos = t.Pos
		return m
	}

	if _, ok := p.expectKind(TokLPar, "'('"); !ok {
		return m
	}

	prevMethod := p.curMethod
	p.curMethod = m
	m.SelfVar = &Variable{Kind: VarArgument, Name: p.intern("self"), Owner: m}

	m.Locals = p.parseLocalDecls(m, m.Params)
	m.Body = p.parseBody(m)

	p.curMethod = prevMethod

	if len(m.Body) == 0 {
		p.errf(startPos, "method %q has an empty body", m.Selector())
	}

	endTok, ok := p.expectKind(TokRPar, "')'")
	if ok {
		m.EndPos = endTok.Pos
	}
	return m
}

func (p *Parser) selectorOf(m *Method) Sym {
	switch m.Pattern {
	case PatternUnary, PatternBinary:
		if len(m.Parts) == 0 {
			return Sym{}
		}
		return m.Parts[0].Name
	case PatternKeyword:
		var sb strings.Builder
		for _, part := range m.Parts {
			sb.WriteString(part.Name.String())
		}
		return p.intern(sb.String())
	default:
		return Sym{}
	}
}

func (p *Parser) parseSignature(m *Method) bool {
	t := p.peek()
	switch {
	case t.Kind == TokIdent:
		p.next()
		m.Pattern = PatternUnary
		m.Parts = []SelectorPart{{Name: p.intern(t.Text), Pos: t.Pos}}
		return true
	case isBinOpToken(t.Kind):
		p.next()
		argTok, ok := p.expectKind(TokIdent, "parameter name")
		m.Pattern = PatternBinary
		m.Parts = []SelectorPart{{Name: p.intern(t.Text), Pos: t.Pos}}
		if ok {
			arg := &Variable{Kind: VarArgument, Name: p.intern(argTok.Text), Owner: m}
			m.Params = append(m.Params, arg)
		}
		return true
	case t.Kind == TokKeyword:
		m.Pattern = PatternKeyword
		for p.peek().Kind == TokKeyword {
			kt := p.next()
			m.Parts = append(m.Parts, SelectorPart{Name: p.intern(kt.Text), Pos: kt.Pos})
			argTok, ok := p.expectKind(TokIdent, "parameter name")
			if ok {
				arg := &Variable{Kind: VarArgument, Name: p.intern(argTok.Text), Owner: m}
				m.Params = append(m.Params, arg)
			}
		}
		return true
	default:
		p.errf(t.Pos, "expected a method signature, found %q", t.Text)
		return false
	}
}

func isBinOpToken(k TokKind) bool {
	switch k {
	case TokTilde, TokAmp, TokStar, TokMinus, TokPlus, TokEq, TokBar,
		TokBackslash, TokLt, TokGt, TokComma, TokQMark, TokSlash, TokBinSelector, TokPercent, TokAt:
		return true
	}
	return false
}

// parseLocalDecls parses an optional `| a b |` temp list and registers the
// names as VarTemporary on fn, which is either a *Method or a *Block.
func (p *Parser) parseLocalDecls(fn interface{}, existing []*Variable) []*Variable {
	names := p.tryParseVarList()
	seen := map[Sym]bool{}
	for _, v := range existing {
		seen[v.Name] = true
	}
	var out []*Variable
	for _, n := range names {
		if seen[n] {
			p.errf(p.peek().Pos, "duplicate local %q", n.String())
			continue
		}
		seen[n] = true
		out = append(out, &Variable{Kind: VarTemporary, Name: n, Owner: fn})
	}
	return out
}

// ---- body & statements ----

func (p *Parser) parseBody(fn interface{}) []Expr {
	var stmts []Expr
	for {
		t := p.peek()
		if t.Kind == TokRPar || t.Kind == TokRBrack || t.Kind == TokEOF {
			return stmts
		}
		s := p.parseStmt(fn)
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.peek().Kind == TokDot {
			p.next()
			continue
		}
		// A trailing '.' is optional; if the next token doesn't close the
		// body, loop back and let the next parseStmt report any error.
		if p.peek().Kind == TokRPar || p.peek().Kind == TokRBrack || p.peek().Kind == TokEOF {
			return stmts
		}
	}
}

func (p *Parser) parseStmt(fn interface{}) Expr {
	if p.peek().Kind == TokHat {
		hatTok := p.next()
		what := p.parseExpr(fn)
		r := &Return{exprBase: exprBase{pos: hatTok.Pos}, What: what, Method: p.curMethod}
		r.NonLocal = len(p.blockStack) > 0
		return r
	}
	return p.parseExpr(fn)
}

func (p *Parser) parseExpr(fn interface{}) Expr {
	if p.peek().Kind == TokIdent && !isReservedWord(p.peek().Text) && p.peek2().Kind == TokAssign {
		nameTok := p.next()
		p.next() // ':='
		rhs := p.parseExpr(fn)
		lhs := &Ident{exprBase: exprBase{pos: nameTok.Pos}, Name: p.intern(nameTok.Text), Use: UseAssignTarget, InMethod: p.curMethod}
		return &Assign{exprBase: exprBase{pos: nameTok.Pos}, Lhs: lhs, Rhs: rhs}
	}
	return p.parseBinaryChain(fn)
}

func isReservedWord(s string) bool {
	_, ok := reservedKeywords[s]
	return ok
}

func (p *Parser) parseBinaryChain(fn interface{}) Expr {
	left := p.parseUnaryChain(fn)
	for isBinOpToken(p.peek().Kind) {
		opTok := p.next()
		right := p.parseUnaryChain(fn)
		left = &Send{
			exprBase: exprBase{pos: opTok.Pos},
			Pattern:  PatternBinary,
			Parts:    []SelectorPart{{Name: p.intern(opTok.Text), Pos: opTok.Pos}},
			Receiver: left,
			Args:     []Expr{right},
			InMethod: p.curMethod,
		}
	}
	if p.peek().Kind == TokKeyword {
		return p.parseKeywordTail(fn, left)
	}
	return left
}

func (p *Parser) parseKeywordTail(fn interface{}, receiver Expr) Expr {
	pos := p.peek().Pos
	var parts []SelectorPart
	var args []Expr
	for p.peek().Kind == TokKeyword {
		kt := p.next()
		parts = append(parts, SelectorPart{Name: p.intern(kt.Text), Pos: kt.Pos})
		args = append(args, p.parseUnaryChain(fn))
	}
	return &Send{
		exprBase: exprBase{pos: pos},
		Pattern:  PatternKeyword,
		Parts:    parts,
		Receiver: receiver,
		Args:     args,
		InMethod: p.curMethod,
	}
}

func (p *Parser) parseUnaryChain(fn interface{}) Expr {
	recv := p.parsePrimary(fn)
	for p.peek().Kind == TokIdent {
		t := p.next()
		recv = &Send{
			exprBase: exprBase{pos: t.Pos},
			Pattern:  PatternUnary,
			Parts:    []SelectorPart{{Name: p.intern(t.Text), Pos: t.Pos}},
			Receiver: recv,
			InMethod: p.curMethod,
		}
	}
	return recv
}

func (p *Parser) parsePrimary(fn interface{}) Expr {
	t := p.peek()
	switch t.Kind {
	case TokMinus:
		n := p.peek2()
		if n.Kind == TokInteger || n.Kind == TokReal {
			p.next()
			numTok := p.next()
			if numTok.Kind == TokInteger {
				return &IntLit{exprBase: exprBase{pos: t.Pos}, Text: "-" + numTok.Text}
			}
			return &RealLit{exprBase: exprBase{pos: t.Pos}, Text: "-" + numTok.Text}
		}
		p.errf(t.Pos, "unexpected token %q", t.Text)
		p.next()
		return nil
	case TokInteger:
		p.next()
		return &IntLit{exprBase: exprBase{pos: t.Pos}, Text: t.Text}
	case TokReal:
		p.next()
		return &RealLit{exprBase: exprBase{pos: t.Pos}, Text: t.Text}
	case TokString:
		p.next()
		return &StringLit{exprBase: exprBase{pos: t.Pos}, Value: t.Text}
	case TokChar:
		p.next()
		return &CharLit{exprBase: exprBase{pos: t.Pos}, Value: t.Text[0]}
	case TokSymbol:
		p.next()
		return &SymbolLit{exprBase: exprBase{pos: t.Pos}, Name: p.intern(t.Text)}
	case TokHash:
		p.next()
		return p.parseArray(t.Pos)
	case TokLPar:
		p.next()
		e := p.parseExpr(fn)
		p.expectKind(TokRPar, "')'")
		return e
	case TokLBrack:
		return p.parseBlock(fn)
	case TokIdent:
		p.next()
		if kw, ok := reservedKeywords[t.Text]; ok {
			return &KeywordExpr{exprBase: exprBase{pos: t.Pos}, Keyword: kw}
		}
		return &Ident{exprBase: exprBase{pos: t.Pos}, Name: p.intern(t.Text), Use: UseUndefined, InMethod: p.curMethod}
	default:
		p.errf(t.Pos, "unexpected token %q", t.Text)
		p.next()
		return nil
	}
}

func (p *Parser) parseArray(pos SourcePos) Expr {
	if _, ok := p.expectKind(TokLPar, "'('"); !ok {
		return &ArrayLit{exprBase: exprBase{pos: pos}}
	}
	var elems []Expr
	for p.peek().Kind != TokRPar && p.peek().Kind != TokEOF {
		elems = append(elems, p.parseArrayElem())
	}
	p.expectKind(TokRPar, "')'")
	return &ArrayLit{exprBase: exprBase{pos: pos}, Elements: elems}
}

func (p *Parser) parseArrayElem() Expr {
	t := p.peek()
	switch {
	case t.Kind == TokMinus && (p.peek2().Kind == TokInteger || p.peek2().Kind == TokReal):
		p.next()
		n := p.next()
		if n.Kind == TokInteger {
			return &IntLit{exprBase: exprBase{pos: t.Pos}, Text: "-" + n.Text}
		}
		return &RealLit{exprBase: exprBase{pos: t.Pos}, Text: "-" + n.Text}
	case t.Kind == TokInteger:
		p.next()
		return &IntLit{exprBase: exprBase{pos: t.Pos}, Text: t.Text}
	case t.Kind == TokReal:
		p.next()
		return &RealLit{exprBase: exprBase{pos: t.Pos}, Text: t.Text}
	case t.Kind == TokString:
		p.next()
		return &StringLit{exprBase: exprBase{pos: t.Pos}, Value: t.Text}
	case t.Kind == TokChar:
		p.next()
		return &CharLit{exprBase: exprBase{pos: t.Pos}, Value: t.Text[0]}
	case t.Kind == TokSymbol:
		p.next()
		return &SymbolLit{exprBase: exprBase{pos: t.Pos}, Name: p.intern(t.Text)}
	case t.Kind == TokHash:
		p.next()
		return p.parseArray(t.Pos)
	case t.Kind == TokLPar:
		return p.parseArray(t.Pos)
	case t.Kind == TokIdent:
		p.next()
		return &SymbolLit{exprBase: exprBase{pos: t.Pos}, Name: p.intern(t.Text)}
	case t.Kind == TokKeyword:
		p.next()
		return &SymbolLit{exprBase: exprBase{pos: t.Pos}, Name: p.intern(t.Text)}
	case isBinOpToken(t.Kind):
		p.next()
		return &SymbolLit{exprBase: exprBase{pos: t.Pos}, Name: p.intern(t.Text)}
	default:
		p.errf(t.Pos, "unexpected token %q in array literal", t.Text)
		p.next()
		return &SymbolLit{exprBase: exprBase{pos: t.Pos}}
	}
}

func (p *Parser) parseBlock(fn interface{}) Expr {
	lbTok, _ := p.expectKind(TokLBrack, "'['")

	b := &Block{exprBase: exprBase{pos: lbTok.Pos}, HomeMethod: p.curMethod, Parent: fn}
	if len(p.blockStack) > 0 {
		b.SyntaxDepth = p.blockStack[len(p.blockStack)-1].SyntaxDepth + 1
	} else {
		b.SyntaxDepth = 1
	}
	p.blockStack = append(p.blockStack, b)

	if p.peek().Kind == TokColon {
		for p.peek().Kind == TokColon {
			p.next()
			argTok, ok := p.expectKind(TokIdent, "block parameter name")
			if ok {
				b.Params = append(b.Params, &Variable{Kind: VarArgument, Name: p.intern(argTok.Text), Owner: b})
			}
		}
		p.expectKind(TokBar, "'|'")
	}
	b.Locals = p.parseLocalDecls(b, b.Params)
	b.Body = p.parseBody(b)

	p.blockStack = p.blockStack[:len(p.blockStack)-1]

	if len(b.Body) == 0 {
		p.errf(lbTok.Pos, "block has an empty body")
	}
	p.expectKind(TokRBrack, "']'")
	return b
}
