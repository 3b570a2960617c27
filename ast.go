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

// This file defines the typed AST produced by the parser (C2) and later
// annotated in place by the resolver (C5): variable bindings, flow-control
// tags and non-local-return bits all live on these same node values, the
// same way a tree-walking front end keeps one mutable node per AST site
// instead of building a second, separate "resolved" tree.

// ExprKind is the closed set of expression variants in the data model.
type ExprKind int

const (
	EIdent ExprKind = iota
	EKeyword
	EInteger
	EReal
	EChar
	EString
	ESymbol
	EArray
	EAssign
	ESend
	ECascade
	EBlock
	EReturn
)

// Expr is satisfied by every expression node.
type Expr interface {
	Pos() SourcePos
	ExprKind() ExprKind
}

type exprBase struct {
	pos SourcePos
}

func (e exprBase) Pos() SourcePos { return e.pos }

// KeywordKind distinguishes the reserved pseudo-variables.
type KeywordKind int

const (
	KwNone KeywordKind = iota
	KwNil
	KwTrue
	KwFalse
	KwSelf
	KwSuper
	KwPrimitive
)

var reservedKeywords = map[string]KeywordKind{
	"nil":       KwNil,
	"true":      KwTrue,
	"false":     KwFalse,
	"self":      KwSelf,
	"super":     KwSuper,
	"primitive": KwPrimitive,
}

// KeywordExpr is the literal expression for nil/true/false/self/super/primitive.
type KeywordExpr struct {
	exprBase
	Keyword KeywordKind
	// SelfVar is filled in by the resolver: the implicit self variable of
	// the enclosing method, bound here for both self and super references.
	SelfVar *Variable
}

func (*KeywordExpr) ExprKind() ExprKind { return EKeyword }

// IdentUse classifies how an identifier reference is used, set by the
// resolver once it has bound the name.
type IdentUse int

const (
	UseUndefined IdentUse = iota
	UseDeclaration
	UseAssignTarget
	UseMsgReceiver
	UseRHS
)

// Ident is a reference to a non-reserved name: a variable, or (if nothing
// local binds it) a global/class name.
type Ident struct {
	exprBase
	Name     Sym
	Use      IdentUse
	Resolved *Variable // set by the resolver on success
	Global   *Class    // set instead of Resolved when the name binds to a loaded class
	InMethod *Method
}

func (*Ident) ExprKind() ExprKind { return EIdent }

type IntLit struct {
	exprBase
	Text string
}

func (*IntLit) ExprKind() ExprKind { return EInteger }

type RealLit struct {
	exprBase
	Text string
}

func (*RealLit) ExprKind() ExprKind { return EReal }

type CharLit struct {
	exprBase
	Value byte
}

func (*CharLit) ExprKind() ExprKind { return EChar }

type StringLit struct {
	exprBase
	Value string
}

func (*StringLit) ExprKind() ExprKind { return EString }

type SymbolLit struct {
	exprBase
	Name Sym
}

func (*SymbolLit) ExprKind() ExprKind { return ESymbol }

type ArrayLit struct {
	exprBase
	Elements []Expr
}

func (*ArrayLit) ExprKind() ExprKind { return EArray }

type Assign struct {
	exprBase
	Lhs *Ident
	Rhs Expr
}

func (*Assign) ExprKind() ExprKind { return EAssign }

// PatternKind is a method/send's selector shape.
type PatternKind int

const (
	PatternNone PatternKind = iota
	PatternUnary
	PatternBinary
	PatternKeyword
)

func (k PatternKind) String() string {
	switch k {
	case PatternUnary:
		return "unary"
	case PatternBinary:
		return "binary"
	case PatternKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// SelectorPart is one piece of a (possibly multi-keyword) selector, with
// the source position of that piece alone.
type SelectorPart struct {
	Name Sym
	Pos  SourcePos
}

// FlowTag marks a Send that the resolver has determined can be inlined.
type FlowTag int

const (
	FlowNone FlowTag = iota
	FlowIfTrue
	FlowIfFalse
	FlowIfElse
	FlowWhileTrue
	FlowWhileFalse
)

// Send is a message send: unary, binary or keyword.
type Send struct {
	exprBase
	Pattern  PatternKind
	Parts    []SelectorPart
	Receiver Expr
	Args     []Expr
	InMethod *Method
	Flow     FlowTag
}

func (*Send) ExprKind() ExprKind { return ESend }

// Selector renders the send's full selector text, e.g. "at:put:" or "+".
func (s *Send) Selector() string {
	switch s.Pattern {
	case PatternUnary, PatternBinary:
		if len(s.Parts) == 0 {
			return ""
		}
		return s.Parts[0].Name.String()
	case PatternKeyword:
		out := ""
		for _, p := range s.Parts {
			out += p.Name.String()
		}
		return out
	default:
		return ""
	}
}

// Cascade is kept in the AST even though SOM's own compiler never emits
// one; all Calls share the same logical receiver (the first call's).
type Cascade struct {
	exprBase
	Receiver Expr
	Calls    []*Send
}

func (*Cascade) ExprKind() ExprKind { return ECascade }

// Return is a `^expr` statement. Both NonLocal and NonLocalIfInlined are
// retained: the parser sets NonLocal as soon as it sees `^` lexically
// inside a block, and the resolver separately sets NonLocalIfInlined once
// it knows whether the enclosing block survived as a real frame or was
// inlined away. Keeping both lets the emitter answer "is this syntactically
// nested in a block" and "does this actually need the NLR protocol"
// independently.
type Return struct {
	exprBase
	What              Expr
	NonLocal          bool
	NonLocalIfInlined bool
	Method            *Method // home method, for the NLR cookie
}

func (*Return) ExprKind() ExprKind { return EReturn }

// VarKind is the closed set of variable kinds.
type VarKind int

const (
	VarInstance VarKind = iota
	VarClass
	VarArgument
	VarTemporary
	VarGlobal
)

func (k VarKind) String() string {
	switch k {
	case VarInstance:
		return "instance"
	case VarClass:
		return "class"
	case VarArgument:
		return "argument"
	case VarTemporary:
		return "temporary"
	case VarGlobal:
		return "global"
	default:
		return "?"
	}
}

// Variable is one binding site: an instance/class field, a method/block
// parameter or temporary, or a global.
type Variable struct {
	Kind VarKind
	Name Sym
	Slot int

	// Owner is the scope this variable is textually declared in: *Class
	// for instance/class vars, *Method or *Block for params/locals.
	Owner interface{}

	// InlinedOwner is the enclosing function after inline expansion of
	// control-flow blocks: the nearest non-inline enclosing *Method or
	// *Block. For variables owned directly by a method, or by a block
	// that was never inlined, InlinedOwner == Owner.
	InlinedOwner interface{}

	// IsUpvalueSource is set when some reference to this variable crosses
	// a (non-inlined) function boundary.
	IsUpvalueSource bool
}

// Block is a literal `[...]` expression: it owns a function-like nested
// scope (params, locals, body) the same way a Method does.
type Block struct {
	exprBase
	Params []*Variable
	Locals []*Variable
	Body   []Expr

	HomeMethod *Method      // enclosing method, always non-nil once parsed
	Parent     interface{}  // enclosing *Method or *Block (lexical parent)

	SyntaxDepth  int // source-level nesting: outermost block under a method is 1
	InlinedDepth int // nesting depth after inline expansion

	Inline bool    // set by the resolver
	Flow   FlowTag // flow tag of the send this block was inlined into, if any

	ID int // unique numbering for the emitter's function table
}

func (*Block) ExprKind() ExprKind { return EBlock }

func (b *Block) vars() []*Variable {
	all := make([]*Variable, 0, len(b.Params)+len(b.Locals))
	all = append(all, b.Params...)
	all = append(all, b.Locals...)
	return all
}

// Method is one method definition: unary, binary or keyword pattern.
type Method struct {
	Pattern PatternKind
	Parts   []SelectorPart // pattern parts, e.g. [at: put:]
	Sel     Sym            // interned full selector, e.g. "at:put:"
	Params  []*Variable
	Locals  []*Variable
	Body    []Expr

	ClassLevel bool
	Primitive  bool
	PrimitiveName string

	HasNonLocalReturn          bool
	HasNonLocalReturnIfInlined bool

	SelfVar *Variable
	Owner   *Class

	Pos      SourcePos
	EndPos   SourcePos
	Category string
	Comment  string

	ID int // unique numbering for the emitter's function table
}

// Selector renders the method's full selector text.
func (m *Method) Selector() string { return m.Sel.String() }

func (m *Method) vars() []*Variable {
	all := make([]*Variable, 0, len(m.Params)+len(m.Locals))
	all = append(all, m.Params...)
	all = append(all, m.Locals...)
	return all
}

// Class is one class declaration: name, super-name, ordered variable and
// method lists, and (after loading) a resolved super-class pointer.
type Class struct {
	Name      Sym
	SuperName Sym
	Super     *Class

	Category string
	Comment  string

	InstVars  []*Variable
	ClassVars []*Variable

	Methods      []*Method // instance-side
	ClassMethods []*Method // class-side

	Subclasses []*Class

	Pos SourcePos

	instVarIndex     map[Sym]*Variable
	classVarIndex    map[Sym]*Variable
	methodIndex      map[Sym]*Method
	classMethodIndex map[Sym]*Method
}

func newClass(name, superName Sym, pos SourcePos) *Class {
	return &Class{
		Name: name, SuperName: superName, Pos: pos,
		instVarIndex:     make(map[Sym]*Variable),
		classVarIndex:    make(map[Sym]*Variable),
		methodIndex:      make(map[Sym]*Method),
		classMethodIndex: make(map[Sym]*Method),
	}
}

// FindInstVar looks up a declared instance variable, this class only.
func (c *Class) FindInstVar(name Sym) *Variable { return c.instVarIndex[name] }

// FindClassVar looks up a declared class variable, this class only.
func (c *Class) FindClassVar(name Sym) *Variable { return c.classVarIndex[name] }

// FindMethod looks up an instance-side method by selector, this class only.
func (c *Class) FindMethod(sel Sym) *Method { return c.methodIndex[sel] }

// FindClassMethod looks up a class-side method by selector, this class only.
func (c *Class) FindClassMethod(sel Sym) *Method { return c.classMethodIndex[sel] }

func (c *Class) addInstVar(v *Variable) {
	c.InstVars = append(c.InstVars, v)
	c.instVarIndex[v.Name] = v
}

func (c *Class) addClassVar(v *Variable) {
	c.ClassVars = append(c.ClassVars, v)
	c.classVarIndex[v.Name] = v
}

// addMethod records m, letting this class's own definition overwrite an
// inherited one of the same selector and level. The caller (the parser, at
// first-definition time within one class body) is responsible for the
// duplicate-within-one-class recoverable-error check; addMethod itself is
// unconditional, so a second call with the same selector replaces the
// index entry (last write wins). Inherited methods are not added here:
// object-model materialization copies them into RtClass.Methods instead.
func (c *Class) addMethod(m *Method) {
	if m.ClassLevel {
		c.ClassMethods = append(c.ClassMethods, m)
		c.classMethodIndex[m.Sel] = m
	} else {
		c.Methods = append(c.Methods, m)
		c.methodIndex[m.Sel] = m
	}
}
