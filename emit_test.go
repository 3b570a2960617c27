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

func findProto(mod *Module, class, selector string) *Proto {
	for _, mp := range mod.Methods {
		if mp.ClassName == class && mp.Selector == selector {
			return mp.Proto
		}
	}
	return nil
}

func TestEmitFieldAccessorUsesTGetI(t *testing.T) {
	model, diag, st := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Counter = Object ( | count | count = ( ^count ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	mod := NewEmitter(om, model, diag, false).EmitModule("Counter")

	proto := findProto(mod, "Counter", st.intern("count").String())
	if proto == nil {
		t.Fatalf("no proto compiled for Counter>>count")
	}
	var sawTGetI, sawRet bool
	for _, instr := range proto.Code {
		switch instr.Op {
		case OpTGetI:
			sawTGetI = true
		case OpRet:
			sawRet = true
		}
	}
	if !sawTGetI {
		t.Fatalf("expected OpTGetI loading the field, got %v", proto.Code)
	}
	if !sawRet {
		t.Fatalf("expected a OpRet, got %v", proto.Code)
	}
}

func TestEmitInlinedIfTrueProducesJumpNoCall(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Foo = Object ( bar = ( true ifTrue: [ ^1 ]. ^0 ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	mod := NewEmitter(om, model, diag, false).EmitModule("Foo")

	proto := findProto(mod, "Foo", "bar")
	if proto == nil {
		t.Fatalf("no proto compiled for Foo>>bar")
	}
	var sawJmp bool
	for _, instr := range proto.Code {
		if instr.Op == OpCall {
			t.Fatalf("ifTrue: should inline to a jump, not a CALL: %v", proto.Code)
		}
		if instr.Op == OpJmp {
			sawJmp = true
		}
	}
	if !sawJmp {
		t.Fatalf("expected at least one OpJmp from the inlined ifTrue:, got %v", proto.Code)
	}
}

func TestEmitNonLocalReturnUsesCookieProtocol(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Foo = Object (
			find = ( self bar: [ :x | ^x ] )
			bar: aBlock = ( ^aBlock value: 1 )
		)`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	mod := NewEmitter(om, model, diag, false).EmitModule("Foo")

	outer := findProto(mod, "Foo", "find")
	if outer == nil || len(outer.Protos) != 1 {
		t.Fatalf("expected find's block to compile to a nested Proto")
	}
	inner := outer.Protos[0]
	var rets int
	for i, instr := range inner.Code {
		if instr.Op == OpRet {
			rets++
			if instr.B != 3 {
				t.Fatalf("non-local return at index %d should use the 2-value cookie RET (B=3), got B=%d", i, instr.B)
			}
		}
	}
	if rets == 0 {
		t.Fatalf("expected at least one RET in the block's proto")
	}
}

func TestEmitSendDispatchesViaTGetAndCallsTheLookedUpMethod(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Foo = Object ( bar = ( ^self baz ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	mod := NewEmitter(om, model, diag, false).EmitModule("Foo")

	proto := findProto(mod, "Foo", "bar")
	if proto == nil {
		t.Fatalf("no proto compiled for Foo>>bar")
	}
	var tget, call *Instr
	for i := range proto.Code {
		switch proto.Code[i].Op {
		case OpTGet:
			if tget == nil {
				tget = &proto.Code[i]
			}
		case OpCall:
			if call == nil {
				call = &proto.Code[i]
			}
		}
	}
	if tget == nil {
		t.Fatalf("expected a TGET dispatching the send, got %v", proto.Code)
	}
	if call == nil {
		t.Fatalf("expected a CALL, got %v", proto.Code)
	}
	if call.A != tget.A {
		t.Fatalf("CALL should invoke the method TGET fetched (R(%d)), but calls R(%d)", tget.A, call.A)
	}
}

func TestEmitSuperSendLooksUpStaticSuperclassTable(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`A = Object ( foo = ( ^self ) )`,
		`B = A ( foo = ( ^super foo ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	mod := NewEmitter(om, model, diag, false).EmitModule("B")

	proto := findProto(mod, "B", "foo")
	if proto == nil {
		t.Fatalf("no proto compiled for B>>foo")
	}
	var sawGGetA bool
	for _, c := range proto.Consts {
		if c.Kind == KClassRef && c.Text == "A" {
			sawGGetA = true
		}
	}
	if !sawGGetA {
		t.Fatalf("expected a KClassRef constant for the statically known superclass A, consts=%v", proto.Consts)
	}
	var sawGGet, sawTGet bool
	for _, instr := range proto.Code {
		switch instr.Op {
		case OpGGet:
			sawGGet = true
		case OpTGet:
			sawTGet = true
		}
	}
	if !sawGGet || !sawTGet {
		t.Fatalf("expected super send to GGET the superclass table and TGET the method, got %v", proto.Code)
	}
}

func TestEmitNonLocalReturnCallerSideCatchesAndPropagates(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Foo = Object (
			find = ( self bar: [ :x | ^x ] )
			bar: aBlock = ( ^aBlock value: 1 )
		)`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	mod := NewEmitter(om, model, diag, false).EmitModule("Foo")

	// bar: is never the lexical home of any non-local return, so it must
	// always propagate an incoming cookie: a CALL followed eventually by
	// an unconditional 2-value RET, with no cookie comparison.
	barProto := findProto(mod, "Foo", "bar:")
	if barProto == nil {
		t.Fatalf("no proto compiled for Foo>>bar:")
	}
	var barSawCall, barSawCookieRet, barSawIsEq bool
	for _, instr := range barProto.Code {
		switch instr.Op {
		case OpCall:
			barSawCall = true
		case OpIsEq:
			barSawIsEq = true
		case OpRet:
			if instr.B == 3 {
				barSawCookieRet = true
			}
		}
	}
	if !barSawCall {
		t.Fatalf("expected a CALL in Foo>>bar:, got %v", barProto.Code)
	}
	if barSawIsEq {
		t.Fatalf("bar: has no non-local return of its own, should always propagate without comparing cookies")
	}
	if !barSawCookieRet {
		t.Fatalf("expected bar: to re-RET both values to propagate the cookie, got %v", barProto.Code)
	}

	// find is the lexical home of the block's ^, so its own call site must
	// compare the incoming cookie against its identity before treating the
	// result as ordinary.
	findProtoFn := findProto(mod, "Foo", "find")
	if findProtoFn == nil {
		t.Fatalf("no proto compiled for Foo>>find")
	}
	var findSawCall, findSawIsEq bool
	for _, instr := range findProtoFn.Code {
		switch instr.Op {
		case OpCall:
			findSawCall = true
		case OpIsEq:
			findSawIsEq = true
		}
	}
	if !findSawCall {
		t.Fatalf("expected a CALL in Foo>>find, got %v", findProtoFn.Code)
	}
	if !findSawIsEq {
		t.Fatalf("expected find to compare the returning cookie against its own identity, got %v", findProtoFn.Code)
	}
}
