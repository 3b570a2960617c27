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

// Resolver is C5: it binds every identifier in a loaded class's method
// bodies to a Variable, a global class or the predeclared system object;
// assigns slot numbers to instance and class variables continuing through
// the superclass chain; detects which control-flow sends can be inlined;
// and classifies every `^expr` as needing the non-local-return protocol or
// not. It mutates the AST it is given in place, the same way the model and
// its cross-reference indices are filled in during a single walk rather
// than rebuilt into a second tree.
type Resolver struct {
	model *Model
	diag  *Diagnostics
	st    *symtab

	selfSym  Sym
	superSym Sym

	instSlotCache  map[*Class]int
	classSlotCache map[*Class]int
}

func NewResolver(model *Model, diag *Diagnostics, st *symtab) *Resolver {
	return &Resolver{
		model:          model,
		diag:           diag,
		st:             st,
		selfSym:        st.intern("self"),
		superSym:       st.intern("super"),
		instSlotCache:  make(map[*Class]int),
		classSlotCache: make(map[*Class]int),
	}
}

// scope is one lexical frame: a method body, or a block body. inlinedOwner
// is the nearest enclosing *Method or *Block that will still be a real
// function frame after inline expansion; it equals owner itself unless
// owner is a Block marked Inline, in which case it is inherited unchanged
// from the parent scope.
type scope struct {
	vars         map[Sym]*Variable
	owner        interface{}
	inlinedOwner interface{}
	syntaxDepth  int
	inlinedDepth int
	parent       *scope
}

func (s *scope) lookup(name Sym) (*Variable, *scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, cur, true
		}
	}
	return nil, nil, false
}

// ResolveAll runs slot assignment and identifier binding over every class
// the model has loaded, in load order so a superclass's slots are numbered
// before any subclass consults them.
func (r *Resolver) ResolveAll() {
	for _, c := range r.model.LoadOrder() {
		r.model.Xref.recordClassDef(c)
		r.assignSlots(c)
	}
	for _, c := range r.model.LoadOrder() {
		for _, m := range c.Methods {
			r.model.Xref.recordMethodDef(m)
			r.resolveMethod(m, c)
		}
		for _, m := range c.ClassMethods {
			r.model.Xref.recordMethodDef(m)
			r.resolveMethod(m, c)
		}
	}
}

func (r *Resolver) totalInstVars(c *Class) int {
	if c == nil {
		return 0
	}
	if n, ok := r.instSlotCache[c]; ok {
		return n
	}
	n := r.totalInstVars(c.Super) + len(c.InstVars)
	r.instSlotCache[c] = n
	return n
}

func (r *Resolver) totalClassVars(c *Class) int {
	if c == nil {
		return 0
	}
	if n, ok := r.classSlotCache[c]; ok {
		return n
	}
	n := r.totalClassVars(c.Super) + len(c.ClassVars)
	r.classSlotCache[c] = n
	return n
}

// assignSlots numbers c's own instance and class variables continuing from
// its superclass's slot count, so a subclass's fields never alias an
// inherited one.
func (r *Resolver) assignSlots(c *Class) {
	base := r.totalInstVars(c.Super)
	for i, v := range c.InstVars {
		v.Slot = base + i
	}
	cbase := r.totalClassVars(c.Super)
	for i, v := range c.ClassVars {
		v.Slot = cbase + i
	}
}

func (r *Resolver) lookupInstVar(c *Class, name Sym) *Variable {
	for cur := c; cur != nil; cur = cur.Super {
		if v := cur.FindInstVar(name); v != nil {
			return v
		}
	}
	return nil
}

func (r *Resolver) lookupClassVar(c *Class, name Sym) *Variable {
	for cur := c; cur != nil; cur = cur.Super {
		if v := cur.FindClassVar(name); v != nil {
			return v
		}
	}
	return nil
}

func (r *Resolver) resolveMethod(m *Method, c *Class) {
	m.Owner = c
	m.SelfVar = &Variable{Kind: VarArgument, Name: r.selfSym, Owner: m}

	vars := make(map[Sym]*Variable, len(m.Params)+len(m.Locals))
	for i, p := range m.Params {
		p.Kind = VarArgument
		p.Slot = i
		p.Owner = m
		p.InlinedOwner = m
		vars[p.Name] = p
	}
	base := len(m.Params)
	for i, l := range m.Locals {
		l.Kind = VarTemporary
		l.Slot = base + i
		l.Owner = m
		l.InlinedOwner = m
		vars[l.Name] = l
	}

	sc := &scope{vars: vars, owner: m, inlinedOwner: m}
	for _, e := range m.Body {
		r.resolveExpr(e, sc, m)
	}
}

func (r *Resolver) resolveExpr(e Expr, sc *scope, m *Method) {
	switch n := e.(type) {
	case *Ident:
		r.resolveIdent(n, sc, m, UseRHS)
	case *KeywordExpr:
		if n.Keyword == KwSelf || n.Keyword == KwSuper {
			n.SelfVar = m.SelfVar
		}
	case *IntLit, *RealLit, *CharLit, *StringLit, *SymbolLit:
		// literals carry no bindings
	case *ArrayLit:
		for _, el := range n.Elements {
			r.resolveExpr(el, sc, m)
		}
	case *Assign:
		r.resolveAssign(n, sc, m)
	case *Send:
		r.resolveSend(n, sc, m)
	case *Cascade:
		r.resolveExpr(n.Receiver, sc, m)
		for _, call := range n.Calls {
			r.resolveSend(call, sc, m)
		}
	case *Block:
		r.resolveBlock(n, sc, m)
	case *Return:
		r.resolveReturn(n, sc, m)
	}
}

func (r *Resolver) resolveIdent(id *Ident, sc *scope, m *Method, use IdentUse) {
	id.Use = use
	id.InMethod = m
	if v, owningScope, ok := sc.lookup(id.Name); ok {
		id.Resolved = v
		if owningScope.inlinedOwner != sc.inlinedOwner {
			v.IsUpvalueSource = true
		}
		r.model.Xref.recordVarRef(v, id.Pos())
		return
	}
	if m != nil && m.Owner != nil {
		if v := r.lookupInstVar(m.Owner, id.Name); v != nil {
			id.Resolved = v
			r.model.Xref.recordVarRef(v, id.Pos())
			return
		}
		if v := r.lookupClassVar(m.Owner, id.Name); v != nil {
			id.Resolved = v
			r.model.Xref.recordVarRef(v, id.Pos())
			return
		}
	}
	if cls, isSystem, ok := r.model.Lookup(id.Name); ok {
		if !isSystem {
			id.Global = cls
		}
		return
	}
	r.diag.Errorf(id.Pos(), PhaseResolve, "undeclared identifier %q", id.Name.String())
}

func (r *Resolver) resolveAssign(a *Assign, sc *scope, m *Method) {
	a.Lhs.InMethod = m
	a.Lhs.Use = UseAssignTarget

	if v, owningScope, ok := sc.lookup(a.Lhs.Name); ok {
		a.Lhs.Resolved = v
		if owningScope.inlinedOwner != sc.inlinedOwner {
			v.IsUpvalueSource = true
		}
		r.model.Xref.recordVarRef(v, a.Lhs.Pos())
	} else if v := r.fieldLookup(m, a.Lhs.Name); v != nil {
		a.Lhs.Resolved = v
		r.model.Xref.recordVarRef(v, a.Lhs.Pos())
	} else {
		r.diag.Errorf(a.Lhs.Pos(), PhaseResolve, "cannot assign to undeclared name %q", a.Lhs.Name.String())
	}
	r.resolveExpr(a.Rhs, sc, m)
}

func (r *Resolver) fieldLookup(m *Method, name Sym) *Variable {
	if m == nil || m.Owner == nil {
		return nil
	}
	if v := r.lookupInstVar(m.Owner, name); v != nil {
		return v
	}
	return r.lookupClassVar(m.Owner, name)
}

// flowBlockArgs reports which argument indices of a Send with the given
// flow tag are candidates for inlining as control-flow blocks.
func flowBlockArgs(flow FlowTag) []int {
	switch flow {
	case FlowIfTrue, FlowIfFalse, FlowWhileTrue, FlowWhileFalse:
		return []int{0}
	case FlowIfElse:
		return []int{0, 1}
	default:
		return nil
	}
}

func isLiteralBlock(e Expr) bool {
	_, ok := e.(*Block)
	return ok
}

// classifyFlow decides whether a Send's selector and argument shapes match
// one of the inlinable control-flow patterns, purely syntactically: no
// resolution is required since the test only looks at node kinds.
func classifyFlow(s *Send) FlowTag {
	switch s.Selector() {
	case "ifTrue:":
		if len(s.Args) == 1 && isLiteralBlock(s.Args[0]) {
			return FlowIfTrue
		}
	case "ifFalse:":
		if len(s.Args) == 1 && isLiteralBlock(s.Args[0]) {
			return FlowIfFalse
		}
	case "ifTrue:ifFalse:":
		if len(s.Args) == 2 && isLiteralBlock(s.Args[0]) && isLiteralBlock(s.Args[1]) {
			return FlowIfElse
		}
	case "whileTrue:":
		if isLiteralBlock(s.Receiver) && len(s.Args) == 1 && isLiteralBlock(s.Args[0]) {
			return FlowWhileTrue
		}
	case "whileFalse:":
		if isLiteralBlock(s.Receiver) && len(s.Args) == 1 && isLiteralBlock(s.Args[0]) {
			return FlowWhileFalse
		}
	}
	return FlowNone
}

func (r *Resolver) resolveSend(s *Send, sc *scope, m *Method) {
	s.InMethod = m
	s.Flow = classifyFlow(s)

	if (s.Flow == FlowWhileTrue || s.Flow == FlowWhileFalse) {
		if blk, ok := s.Receiver.(*Block); ok {
			blk.Inline = true
			blk.Flow = s.Flow
		}
	}
	r.resolveExpr(s.Receiver, sc, m)

	inlineArgs := flowBlockArgs(s.Flow)
	for i, a := range s.Args {
		if blk, ok := a.(*Block); ok && containsInt(inlineArgs, i) {
			blk.Inline = true
			blk.Flow = s.Flow
		}
		r.resolveExpr(a, sc, m)
	}
	r.model.Xref.recordSend(s)
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (r *Resolver) resolveBlock(b *Block, sc *scope, m *Method) {
	b.HomeMethod = m
	b.Parent = sc.owner
	b.SyntaxDepth = sc.syntaxDepth + 1

	var inlinedOwner interface{}
	if b.Inline {
		b.InlinedDepth = sc.inlinedDepth
		inlinedOwner = sc.inlinedOwner
	} else {
		b.InlinedDepth = sc.inlinedDepth + 1
		inlinedOwner = b
	}

	vars := make(map[Sym]*Variable, len(b.Params)+len(b.Locals))
	for i, p := range b.Params {
		p.Kind = VarArgument
		p.Slot = i
		p.Owner = b
		p.InlinedOwner = inlinedOwner
		vars[p.Name] = p
	}
	base := len(b.Params)
	for i, l := range b.Locals {
		l.Kind = VarTemporary
		l.Slot = base + i
		l.Owner = b
		l.InlinedOwner = inlinedOwner
		vars[l.Name] = l
	}

	inner := &scope{
		vars:         vars,
		owner:        b,
		inlinedOwner: inlinedOwner,
		syntaxDepth:  b.SyntaxDepth,
		inlinedDepth: b.InlinedDepth,
		parent:       sc,
	}
	for _, e := range b.Body {
		r.resolveExpr(e, inner, m)
	}
}

func (r *Resolver) resolveReturn(ret *Return, sc *scope, m *Method) {
	r.resolveExpr(ret.What, sc, m)
	ret.Method = m

	if _, ok := sc.inlinedOwner.(*Method); ok {
		ret.NonLocalIfInlined = false
	} else {
		ret.NonLocalIfInlined = true
	}

	if m != nil {
		if ret.NonLocal {
			m.HasNonLocalReturn = true
		}
		if ret.NonLocalIfInlined {
			m.HasNonLocalReturnIfInlined = true
		}
	}
}
