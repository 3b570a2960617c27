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

import "testing"

// buildModel parses every src string as a class and resolves the whole
// model, returning it along with the diagnostics accumulated.
func buildModel(t *testing.T, srcs ...string) (*Model, *Diagnostics, *symtab) {
	t.Helper()
	st := newSymtab()
	diag := &Diagnostics{}
	model := NewModel(st, diag)
	for i, src := range srcs {
		c := ParseClass(st, diag, "test.som", []byte(src))
		if !model.AddClass(c) {
			t.Fatalf("src[%d]: AddClass failed", i)
		}
	}
	model.wireSuperclasses()
	NewResolver(model, diag, st).ResolveAll()
	return model, diag, st
}

func TestResolverSlotInheritance(t *testing.T) {
	model, diag, st := buildModel(t,
		`Object = nil ()`,
		`A = Object ( | x y | )`,
		`B = A ( | z | )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	b := model.ClassByName(st.intern("B"))
	if len(b.InstVars) != 1 {
		t.Fatalf("got %d instvars on B, want 1", len(b.InstVars))
	}
	if b.InstVars[0].Slot != 2 {
		t.Fatalf("got slot %d for B.z, want 2 (after A's x,y)", b.InstVars[0].Slot)
	}
}

func TestResolverBindsFieldReference(t *testing.T) {
	model, diag, st := buildModel(t,
		`Object = nil ()`,
		`Counter = Object (
			| count |
			increment = ( count := count + 1 )
		)`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	c := model.ClassByName(st.intern("Counter"))
	m := c.FindMethod(st.intern("increment"))
	assign := m.Body[0].(*Assign)
	if assign.Lhs.Resolved == nil {
		t.Fatalf("count := ... did not resolve the field")
	}
	if assign.Lhs.Resolved.Kind != VarInstance {
		t.Fatalf("got kind %v, want VarInstance", assign.Lhs.Resolved.Kind)
	}
}

func TestResolverUndeclaredIdentIsError(t *testing.T) {
	_, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Foo = Object ( bar = ( ^nope ) )`,
	)
	if len(diag.Errors()) == 0 {
		t.Fatalf("expected an undeclared-identifier error")
	}
}

func TestResolverInlinesIfTrue(t *testing.T) {
	model, diag, st := buildModel(t,
		`Object = nil ()`,
		`Foo = Object ( bar = ( true ifTrue: [ ^1 ]. ^0 ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	c := model.ClassByName(st.intern("Foo"))
	m := c.FindMethod(st.intern("bar"))
	send := m.Body[0].(*Send)
	if send.Flow != FlowIfTrue {
		t.Fatalf("got flow %v, want FlowIfTrue", send.Flow)
	}
	block := send.Args[0].(*Block)
	if !block.Inline {
		t.Fatalf("ifTrue: block should be marked Inline")
	}
	ret := block.Body[0].(*Return)
	if ret.NonLocalIfInlined {
		t.Fatalf("return inside an inlined ifTrue: block should not need the NLR protocol")
	}
	if !m.HasNonLocalReturn {
		t.Fatalf("method should record HasNonLocalReturn since the ^ is lexically inside a block")
	}
	if m.HasNonLocalReturnIfInlined {
		t.Fatalf("method should not record HasNonLocalReturnIfInlined: the block was inlined away")
	}
}

func TestResolverNonLocalReturnSurvivesRealBlock(t *testing.T) {
	model, diag, st := buildModel(t,
		`Object = nil ()`,
		`Array = Object ( do: aBlock = ( ^self ) )`,
		`Foo = Object (
			find = ( self bar: [ :x | ^x ] )
			bar: aBlock = ( ^aBlock value: 1 )
		)`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	c := model.ClassByName(st.intern("Foo"))
	m := c.FindMethod(st.intern("find"))
	send := m.Body[0].(*Send)
	block := send.Args[0].(*Block)
	if block.Inline {
		t.Fatalf("block passed to a non-control-flow selector should not be inlined")
	}
	ret := block.Body[0].(*Return)
	if !ret.NonLocalIfInlined {
		t.Fatalf("return inside a real (non-inlined) block must use the NLR protocol")
	}
	if !m.HasNonLocalReturnIfInlined {
		t.Fatalf("enclosing method should record HasNonLocalReturnIfInlined")
	}
}
