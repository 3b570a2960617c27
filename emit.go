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

import "fmt"

// ConstKind tags one entry of a Proto's constant pool.
type ConstKind int

const (
	KInt ConstKind = iota
	KReal
	KString
	KSymbol
	KChar
	KClassRef
	KNilTag
	KTrueTag
	KFalseTag
)

// Const is one constant-pool entry, tagged so the VM knows which boxed
// value to materialize for a KSET.
type Const struct {
	Kind ConstKind
	Text string // KString/KSymbol/KClassRef/KInt/KReal raw text, KChar holds a one-byte string
}

// Proto is one compiled function body: a method, or a real (non-inlined)
// block closure. Grounded on the register-machine prototype shape
// surveyed across the pack's register-VM examples: flat instruction
// array, a local constant pool, and a nested-prototype table for FNEW.
type Proto struct {
	Name      string // method selector, or "block in <selector>"
	ClassName string
	NumParams int32 // includes the implicit self/home-value at R(0)
	NumRegs   int32

	Code   []Instr
	Consts []Const
	Protos []*Proto // nested block closures, indexed for FNEW's Bx

	UpvalNames []string // debug only: name of each captured upvalue, by index

	IsMethod           bool
	HasNonLocalReturn  bool
	CallConventionB    bool // records that the parameter-table calling convention (convention B) was requested; the emitted code is the up-value convention (A) either way
}

func (p *Proto) addConst(c Const) int32 {
	for i, existing := range p.Consts {
		if existing == c {
			return int32(i)
		}
	}
	p.Consts = append(p.Consts, c)
	return int32(len(p.Consts) - 1)
}

func (p *Proto) emit(i Instr) {
	p.Code = append(p.Code, i)
}

// regAlloc is a simple LIFO free-slot register allocator: registers freed
// by an expression whose value has already been consumed are handed back
// out to the next allocation instead of growing NumRegs forever.
type regAlloc struct {
	next int32
	max  int32
	free []int32
}

func (ra *regAlloc) alloc() int32 {
	if n := len(ra.free); n > 0 {
		r := ra.free[n-1]
		ra.free = ra.free[:n-1]
		return r
	}
	r := ra.next
	ra.next++
	if ra.next > ra.max {
		ra.max = ra.next
	}
	return r
}

func (ra *regAlloc) release(r int32) {
	ra.free = append(ra.free, r)
}

// reserve hands back n freshly bumped, contiguous registers, bypassing the
// free list. CALL requires its whole argument window to be adjacent, which
// the free list (registers freed out of order by earlier expressions) can't
// promise, so a call site reserves its window up front instead of building
// it out of individual alloc() calls.
func (ra *regAlloc) reserve(n int32) int32 {
	base := ra.next
	ra.next += n
	if ra.next > ra.max {
		ra.max = ra.next
	}
	return base
}

// funcCtx is the emitter's state for one real function frame (a method,
// or a block that was not inlined). Inlined control-flow blocks share
// their enclosing funcCtx instead of getting one of their own.
type funcCtx struct {
	proto  *Proto
	ra     *regAlloc
	parent *funcCtx

	regs   map[*Variable]int32
	upvals map[*Variable]int32

	selfReg int32
	home    *Method
}

func newFuncCtx(proto *Proto, parent *funcCtx, home *Method) *funcCtx {
	return &funcCtx{
		proto:  proto,
		ra:     &regAlloc{},
		parent: parent,
		regs:   make(map[*Variable]int32),
		upvals: make(map[*Variable]int32),
		home:   home,
	}
}

// upvalIndex returns the upvalue slot in fc capturing v, appending a new
// slot to fc on the first reference. Only fc's own table grows: no slot is
// added to any enclosing frame, and the Proto records just the captured
// variable's name, not where in an enclosing frame its value lives.
func (fc *funcCtx) upvalIndex(v *Variable) int32 {
	if idx, ok := fc.upvals[v]; ok {
		return idx
	}
	idx := int32(len(fc.upvals))
	fc.upvals[v] = idx
	fc.proto.UpvalNames = append(fc.proto.UpvalNames, v.Name.String())
	return idx
}

// MethodProto pairs a compiled Proto with the class and selector it was
// compiled from, so the loader/linker side of the VM can wire dispatch
// tables without re-deriving names from the AST.
type MethodProto struct {
	ClassName string
	Selector  string
	ClassSide bool
	Proto     *Proto
}

// ClassInfo is the serializable description of one materialized class,
// paired 1:1 with an RtClass but without the AST pointers RtClass carries
// (those don't survive gob round-tripping and aren't needed by the VM).
type ClassInfo struct {
	Name       string
	Super      string
	Fields     []string
	MetaFields []string
}

// Module is the complete compiled output of one compilation: every
// class's field layout plus every method's bytecode, in a form that can
// be gob-serialized independently of the AST that produced it.
type Module struct {
	Classes    []ClassInfo
	Methods    []MethodProto
	MainClass  string
}

// Emitter is C7: it walks a materialized *ObjectModel and produces a
// *Module of compiled Protos, one per method actually defined (not
// inherited-and-copied) in each loaded class.
type Emitter struct {
	om       *ObjectModel
	model    *Model
	diag     *Diagnostics
	convB    bool // copied into every Proto's CallConventionB; emission itself does not depend on it
}

func NewEmitter(om *ObjectModel, model *Model, diag *Diagnostics, useConventionB bool) *Emitter {
	return &Emitter{om: om, model: model, diag: diag, convB: useConventionB}
}

// EmitModule compiles every method of every class the loader registered.
func (e *Emitter) EmitModule(mainClass string) *Module {
	mod := &Module{MainClass: mainClass}
	for _, c := range e.model.LoadOrder() {
		rt := e.om.Classes[c.Name]
		info := ClassInfo{Name: c.Name.String(), Fields: symStrings(rt.Fields)}
		if c.Super != nil {
			info.Super = c.Super.Name.String()
		} else {
			info.Super = "nil"
		}
		info.MetaFields = symStrings(rt.Meta.Fields)
		mod.Classes = append(mod.Classes, info)

		for _, m := range c.Methods {
			mod.Methods = append(mod.Methods, e.emitMethodProto(c, m, false))
		}
		for _, m := range c.ClassMethods {
			mod.Methods = append(mod.Methods, e.emitMethodProto(c, m, true))
		}
	}
	return mod
}

func symStrings(syms []Sym) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.String()
	}
	return out
}

func (e *Emitter) emitMethodProto(c *Class, m *Method, classSide bool) MethodProto {
	proto := &Proto{
		Name:              m.Selector(),
		ClassName:         c.Name.String(),
		NumParams:         int32(len(m.Params)) + 1,
		IsMethod:          true,
		HasNonLocalReturn: m.HasNonLocalReturnIfInlined,
		CallConventionB:   e.convB,
	}
	fc := newFuncCtx(proto, nil, m)
	fc.selfReg = fc.ra.alloc()
	fc.regs[m.SelfVar] = fc.selfReg
	for _, p := range m.Params {
		fc.regs[p] = fc.ra.alloc()
	}
	for _, l := range m.Locals {
		fc.regs[l] = fc.ra.alloc()
	}

	e.emitBody(m.Body, fc)
	e.emitImplicitReturn(fc)

	proto.NumRegs = fc.ra.max
	return MethodProto{ClassName: c.Name.String(), Selector: m.Selector(), ClassSide: classSide, Proto: proto}
}

// emitImplicitReturn appends `^self` semantics for a method body that
// falls off the end without an explicit return.
func (e *Emitter) emitImplicitReturn(fc *funcCtx) {
	if n := len(fc.proto.Code); n > 0 && fc.proto.Code[n-1].Op == OpRet {
		return
	}
	fc.proto.emit(mkABC(OpRet, fc.selfReg, 2, 0))
}

func (e *Emitter) emitBody(body []Expr, fc *funcCtx) {
	for i, stmt := range body {
		reg, ok := e.emitExpr(stmt, fc)
		if ok && i < len(body)-1 {
			fc.ra.release(reg)
		}
	}
}

// emitExpr compiles e into fc's instruction stream and returns the
// register holding its value. ok is false for expressions (inlined
// non-local control flow, e.g. a Return) that never produce a value the
// caller should free.
func (e *Emitter) emitExpr(expr Expr, fc *funcCtx) (int32, bool) {
	switch n := expr.(type) {
	case *IntLit:
		return e.emitConst(fc, Const{Kind: KInt, Text: n.Text}), true
	case *RealLit:
		return e.emitConst(fc, Const{Kind: KReal, Text: n.Text}), true
	case *StringLit:
		return e.emitConst(fc, Const{Kind: KString, Text: n.Value}), true
	case *CharLit:
		return e.emitConst(fc, Const{Kind: KChar, Text: string(n.Value)}), true
	case *SymbolLit:
		return e.emitConst(fc, Const{Kind: KSymbol, Text: n.Name.String()}), true
	case *ArrayLit:
		return e.emitArray(n, fc), true
	case *KeywordExpr:
		return e.emitKeyword(n, fc), true
	case *Ident:
		return e.emitLoad(n, fc), true
	case *Assign:
		return e.emitAssign(n, fc), true
	case *Send:
		return e.emitSend(n, fc)
	case *Cascade:
		return e.emitCascade(n, fc), true
	case *Block:
		return e.emitBlockLiteral(n, fc), true
	case *Return:
		e.emitReturn(n, fc)
		return 0, false
	default:
		panic(fmt.Sprintf("emit: unhandled expr %T", expr))
	}
}

func (e *Emitter) emitConst(fc *funcCtx, c Const) int32 {
	idx := fc.proto.addConst(c)
	dest := fc.ra.alloc()
	fc.proto.emit(mkABx(OpKSet, dest, idx))
	return dest
}

func (e *Emitter) emitKeyword(n *KeywordExpr, fc *funcCtx) int32 {
	switch n.Keyword {
	case KwSelf, KwSuper:
		return fc.selfReg
	case KwNil:
		return e.emitConst(fc, Const{Kind: KNilTag})
	case KwTrue:
		return e.emitConst(fc, Const{Kind: KTrueTag})
	case KwFalse:
		return e.emitConst(fc, Const{Kind: KFalseTag})
	default:
		return e.emitConst(fc, Const{Kind: KNilTag})
	}
}

func (e *Emitter) emitArray(n *ArrayLit, fc *funcCtx) int32 {
	dest := fc.ra.alloc()
	fc.proto.emit(mkABC(OpTNew, dest, int32(len(n.Elements)), 0))
	for i, el := range n.Elements {
		r, ok := e.emitExpr(el, fc)
		if !ok {
			continue
		}
		fc.proto.emit(mkABC(OpTSetI, dest, int32(i+1), r))
		fc.ra.release(r)
	}
	return dest
}

// resolveRegister returns the register holding a local/argument variable
// when it lives in fc's own frame. It looks at fc only, not at enclosing
// frames; for any other variable it reports local=false and the caller
// reads it through an upvalue of fc.
func resolveRegister(fc *funcCtx, v *Variable) (reg int32, local bool) {
	if r, ok := fc.regs[v]; ok {
		return r, true
	}
	return 0, false
}

func (e *Emitter) emitLoad(id *Ident, fc *funcCtx) int32 {
	dest := fc.ra.alloc()
	switch {
	case id.Resolved != nil && id.Resolved.Kind == VarInstance:
		fieldIdx := e.fieldSlot(fc.home.Owner, id.Resolved.Name, false)
		fc.proto.emit(mkABC(OpTGetI, dest, fc.selfReg, fieldIdx))
	case id.Resolved != nil && id.Resolved.Kind == VarClass:
		fieldIdx := e.fieldSlot(fc.home.Owner, id.Resolved.Name, true)
		fc.proto.emit(mkABC(OpTGetI, dest, fc.selfReg, fieldIdx))
	case id.Resolved != nil:
		if r, ok := resolveRegister(fc, id.Resolved); ok {
			fc.ra.release(dest)
			return r
		}
		idx := fc.upvalIndex(id.Resolved)
		fc.proto.emit(mkABC(OpUGet, dest, idx, 0))
	case id.Global != nil:
		kidx := fc.proto.addConst(Const{Kind: KClassRef, Text: id.Global.Name.String()})
		fc.proto.emit(mkABx(OpGGet, dest, kidx))
	default:
		kidx := fc.proto.addConst(Const{Kind: KClassRef, Text: id.Name.String()})
		fc.proto.emit(mkABx(OpGGet, dest, kidx))
	}
	return dest
}

func (e *Emitter) fieldSlot(owner *Class, name Sym, classSide bool) int32 {
	if owner == nil {
		return -1
	}
	rt := e.om.Classes[owner.Name]
	if classSide {
		rt = rt.Meta
	}
	return int32(rt.FindField(name))
}

func (e *Emitter) emitAssign(a *Assign, fc *funcCtx) int32 {
	rhs, ok := e.emitExpr(a.Rhs, fc)
	if !ok {
		rhs = e.emitConst(fc, Const{Kind: KNilTag})
	}
	v := a.Lhs.Resolved
	switch {
	case v != nil && v.Kind == VarInstance:
		fieldIdx := e.fieldSlot(fc.home.Owner, v.Name, false)
		fc.proto.emit(mkABC(OpTSetI, fc.selfReg, fieldIdx, rhs))
	case v != nil && v.Kind == VarClass:
		fieldIdx := e.fieldSlot(fc.home.Owner, v.Name, true)
		fc.proto.emit(mkABC(OpTSetI, fc.selfReg, fieldIdx, rhs))
	case v != nil:
		if r, ok := resolveRegister(fc, v); ok {
			fc.proto.emit(mkABC(OpMov, r, rhs, 0))
		} else {
			idx := fc.upvalIndex(v)
			fc.proto.emit(mkABC(OpUSet, idx, rhs, 0))
		}
	}
	return rhs
}

func (e *Emitter) emitCascade(n *Cascade, fc *funcCtx) int32 {
	var last int32
	for i, call := range n.Calls {
		r, ok := e.emitSend(call, fc)
		if ok {
			if i > 0 {
				fc.ra.release(last)
			}
			last = r
		}
	}
	return last
}

// emitSend compiles a message send. Inlinable control-flow sends
// (Send.Flow != FlowNone) expand directly into conditional-jump and
// loop-back instructions instead of a CALL, per the inlining the
// resolver already decided.
//
// A real send allocates a contiguous nargs+2 CALL window, fetches the
// selector's method with a TGET on the receiver (or, for a super send,
// with a GGET of the statically known superclass/metaclass table), moves
// the receiver into arg-0, and calls. Every such CALL comes back with two
// values — the result and a non-local-return cookie — which
// emitCallResult inspects before the send's result register is handed to
// the caller.
func (e *Emitter) emitSend(s *Send, fc *funcCtx) (int32, bool) {
	switch s.Flow {
	case FlowIfTrue:
		return e.emitIf(s.Receiver, s.Args[0].(*Block), nil, fc), true
	case FlowIfFalse:
		return e.emitIf(s.Receiver, nil, s.Args[0].(*Block), fc), true
	case FlowIfElse:
		return e.emitIf(s.Receiver, s.Args[0].(*Block), s.Args[1].(*Block), fc), true
	case FlowWhileTrue:
		e.emitWhile(s.Receiver.(*Block), s.Args[0].(*Block), true, fc)
		return e.emitKeyword(&KeywordExpr{Keyword: KwNil}, fc), true
	case FlowWhileFalse:
		e.emitWhile(s.Receiver.(*Block), s.Args[0].(*Block), false, fc)
		return e.emitKeyword(&KeywordExpr{Keyword: KwNil}, fc), true
	}

	nargs := int32(len(s.Args))
	base := fc.ra.reserve(nargs + 2)

	isSuper := isSuperReceiver(s.Receiver)
	if isSuper {
		fc.proto.emit(mkABC(OpMov, base+1, fc.selfReg, 0))
	} else {
		recv, ok := e.emitExpr(s.Receiver, fc)
		if !ok {
			recv = e.emitConst(fc, Const{Kind: KNilTag})
		}
		fc.proto.emit(mkABC(OpMov, base+1, recv, 0))
		fc.ra.release(recv)
	}

	argRegs := make([]int32, len(s.Args))
	for i, a := range s.Args {
		r, ok := e.emitExpr(a, fc)
		if !ok {
			r = e.emitConst(fc, Const{Kind: KNilTag})
		}
		fc.proto.emit(mkABC(OpMov, base+2+int32(i), r, 0))
		argRegs[i] = r
	}

	selConst := fc.proto.addConst(Const{Kind: KSymbol, Text: EncodeSelector(s.Pattern, s.Selector())})
	selReg := fc.ra.alloc()
	fc.proto.emit(mkABx(OpKSet, selReg, selConst))

	if isSuper {
		e.emitSuperLookup(s, fc, base, selReg)
	} else {
		fc.proto.emit(mkABC(OpTGet, base, base+1, selReg))
	}

	fc.ra.release(selReg)
	for _, r := range argRegs {
		fc.ra.release(r)
	}

	fc.proto.emit(mkABC(OpCall, base, nargs+2, 3))
	return e.emitCallResult(fc, base), true
}

// isSuperReceiver reports whether a send's receiver expression is the
// `super` pseudo-variable, which dispatches statically instead of through
// the receiver's own method table.
func isSuperReceiver(recv Expr) bool {
	kw, ok := recv.(*KeywordExpr)
	return ok && kw.Keyword == KwSuper
}

// emitSuperLookup fetches a super send's method from the statically known
// superclass (or, inside a class-side method, metaclass) table instead of
// the dynamic TGET an ordinary send uses, per the super-send rule: the
// method comes from the lexical superclass, never from the receiver's
// actual runtime class.
func (e *Emitter) emitSuperLookup(s *Send, fc *funcCtx, base, selReg int32) {
	owner := fc.home.Owner
	if owner == nil || owner.Super == nil {
		e.diag.Errorf(s.Pos(), PhaseEmit, "super send %q has no statically known superclass", s.Selector())
		fc.proto.emit(mkABx(OpKSet, base, fc.proto.addConst(Const{Kind: KNilTag})))
		return
	}
	refName := owner.Super.Name.String()
	if fc.home.ClassLevel {
		refName += "_class"
	}
	kidx := fc.proto.addConst(Const{Kind: KClassRef, Text: refName})
	superTbl := fc.ra.alloc()
	fc.proto.emit(mkABx(OpGGet, superTbl, kidx))
	fc.proto.emit(mkABC(OpTGet, base, superTbl, selReg))
	fc.ra.release(superTbl)
}

// emitCallResult implements the caller side of the non-local-return
// protocol: after a CALL, R(base) holds the ordinary result and R(base+1)
// the cookie (nil for an ordinary return). A nil cookie just falls
// through. A non-nil cookie means some block's `^` is unwinding past this
// call: if this frame is a block (not a real method) or its home method
// never has a non-local return to catch, the cookie can't be ours, so it
// re-RETs both values to keep propagating. Otherwise it compares the
// cookie against this method's own identity: equal means the return has
// reached its home, so this method returns the single value in R(base);
// unequal means propagate further.
func (e *Emitter) emitCallResult(fc *funcCtx, base int32) int32 {
	eligible := fc.proto.IsMethod && fc.home != nil && fc.home.HasNonLocalReturnIfInlined

	fc.proto.emit(mkABC(OpIsF, base+1, 0, 0)) // skip the jump (enter handling) when cookie is truthy
	jmpOrdinary := len(fc.proto.Code)
	fc.proto.emit(Instr{})

	if !eligible {
		fc.proto.emit(mkABC(OpRet, base, 3, 0))
	} else {
		homeConst := fc.proto.addConst(Const{Kind: KString, Text: fc.home.Selector()})
		homeReg := fc.ra.alloc()
		fc.proto.emit(mkABx(OpKSet, homeReg, homeConst))
		fc.proto.emit(mkABC(OpIsEq, 0, base+1, homeReg)) // skip the jump (fall through to the home RET) when equal
		jmpPropagate := len(fc.proto.Code)
		fc.proto.emit(Instr{})
		fc.proto.emit(mkABC(OpRet, base, 2, 0)) // home reached: return the value from this method
		propagateStart := len(fc.proto.Code)
		fc.proto.emit(mkABC(OpRet, base, 3, 0))
		fc.proto.Code[jmpPropagate] = mkAsBx(OpJmp, 0, int32(propagateStart-jmpPropagate-1))
		fc.ra.release(homeReg)
	}

	end := len(fc.proto.Code)
	fc.proto.Code[jmpOrdinary] = mkAsBx(OpJmp, 0, int32(end-jmpOrdinary-1))
	return base
}

func (e *Emitter) emitIf(cond Expr, thenBlk, elseBlk *Block, fc *funcCtx) int32 {
	condReg, ok := e.emitExpr(cond, fc)
	if !ok {
		condReg = e.emitConst(fc, Const{Kind: KNilTag})
	}
	dest := fc.ra.alloc()

	fc.proto.emit(mkABC(OpIsF, condReg, 0, 0))
	jmpToElse := len(fc.proto.Code)
	fc.proto.emit(Instr{}) // placeholder JMP

	if thenBlk != nil {
		e.emitInlineBody(thenBlk, fc, dest)
	} else {
		fc.proto.emit(mkABC(OpMov, dest, e.emitConst(fc, Const{Kind: KNilTag}), 0))
	}
	jmpToEnd := len(fc.proto.Code)
	fc.proto.emit(Instr{})

	elseStart := len(fc.proto.Code)
	if elseBlk != nil {
		e.emitInlineBody(elseBlk, fc, dest)
	} else {
		fc.proto.emit(mkABC(OpMov, dest, e.emitConst(fc, Const{Kind: KNilTag}), 0))
	}
	end := len(fc.proto.Code)

	fc.proto.Code[jmpToElse] = mkAsBx(OpJmp, 0, int32(elseStart-jmpToElse-1))
	fc.proto.Code[jmpToEnd] = mkAsBx(OpJmp, 0, int32(end-jmpToEnd-1))

	fc.ra.release(condReg)
	return dest
}

func (e *Emitter) emitWhile(condBlk, bodyBlk *Block, whileTrue bool, fc *funcCtx) {
	loopStart := len(fc.proto.Code)
	condReg := e.emitInlineBodyValue(condBlk, fc)

	if whileTrue {
		fc.proto.emit(mkABC(OpIsF, condReg, 0, 0))
	} else {
		fc.proto.emit(mkABC(OpIsT, condReg, 0, 0))
	}
	jmpOut := len(fc.proto.Code)
	fc.proto.emit(Instr{})

	fc.ra.release(condReg)
	e.emitInlineBodyDiscard(bodyBlk, fc)

	fc.proto.emit(mkAsBx(OpLoop, 0, int32(loopStart-len(fc.proto.Code)-1)))
	end := len(fc.proto.Code)
	fc.proto.Code[jmpOut] = mkAsBx(OpJmp, 0, int32(end-jmpOut-1))
}

// emitInlineBody compiles an inlined block's statements directly into the
// current function frame (no FNEW, no new funcCtx) and moves the value of
// its last statement into dest.
func (e *Emitter) emitInlineBody(b *Block, fc *funcCtx, dest int32) {
	r := e.emitInlineBodyValue(b, fc)
	fc.proto.emit(mkABC(OpMov, dest, r, 0))
	fc.ra.release(r)
}

func (e *Emitter) emitInlineBodyValue(b *Block, fc *funcCtx) int32 {
	for _, p := range b.Params {
		fc.regs[p] = fc.ra.alloc()
	}
	for _, l := range b.Locals {
		fc.regs[l] = fc.ra.alloc()
	}
	var last int32 = -1
	for i, stmt := range b.Body {
		r, ok := e.emitExpr(stmt, fc)
		if !ok {
			continue
		}
		if i == len(b.Body)-1 {
			last = r
		} else {
			fc.ra.release(r)
		}
	}
	if last == -1 {
		last = e.emitConst(fc, Const{Kind: KNilTag})
	}
	return last
}

func (e *Emitter) emitInlineBodyDiscard(b *Block, fc *funcCtx) {
	r := e.emitInlineBodyValue(b, fc)
	fc.ra.release(r)
}

// emitBlockLiteral compiles a Block that was NOT inlined into its own
// nested Proto and emits an FNEW capturing it as a closure.
func (e *Emitter) emitBlockLiteral(b *Block, fc *funcCtx) int32 {
	proto := &Proto{
		Name:            fmt.Sprintf("block in %s", fc.home.Selector()),
		ClassName:       fc.proto.ClassName,
		NumParams:       int32(len(b.Params)) + 1,
		CallConventionB: fc.proto.CallConventionB,
	}
	inner := newFuncCtx(proto, fc, fc.home)
	inner.selfReg = fc.selfReg
	for _, p := range b.Params {
		inner.regs[p] = inner.ra.alloc()
	}
	for _, l := range b.Locals {
		inner.regs[l] = inner.ra.alloc()
	}
	e.emitBody(b.Body, inner)
	e.emitImplicitReturn(inner)
	proto.NumRegs = inner.ra.max

	idx := int32(len(fc.proto.Protos))
	fc.proto.Protos = append(fc.proto.Protos, proto)

	dest := fc.ra.alloc()
	fc.proto.emit(mkABx(OpFNew, dest, idx))
	return dest
}

func (e *Emitter) emitReturn(ret *Return, fc *funcCtx) {
	r, ok := e.emitExpr(ret.What, fc)
	if !ok {
		r = e.emitConst(fc, Const{Kind: KNilTag})
	}
	if ret.NonLocalIfInlined {
		// Two-value RET: R(A) carries the returned value and R(A+1) a
		// cookie holding the home method's selector, the order
		// emitCallResult reads them in.
		base := fc.ra.reserve(2)
		fc.proto.emit(mkABC(OpMov, base, r, 0))
		fc.proto.emit(mkABx(OpKSet, base+1, fc.proto.addConst(Const{Kind: KString, Text: ret.Method.Selector()})))
		fc.proto.emit(mkABC(OpRet, base, 3, 0))
		return
	}
	fc.proto.emit(mkABC(OpRet, r, 2, 0))
}
