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

func parseOne(t *testing.T, src string) (*Class, *Diagnostics) {
	t.Helper()
	st := newSymtab()
	diag := &Diagnostics{}
	c := ParseClass(st, diag, "test.som", []byte(src))
	return c, diag
}

func TestParseSimpleClass(t *testing.T) {
	src := `Counter = Object (
		| count |
		count = ( ^count )
		increment = ( count := count + 1 )
	)`
	c, diag := parseOne(t, src)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	if c.Name.String() != "Counter" {
		t.Fatalf("got name %q, want Counter", c.Name.String())
	}
	if c.SuperName.String() != "Object" {
		t.Fatalf("got super %q, want Object", c.SuperName.String())
	}
	if len(c.InstVars) != 1 || c.InstVars[0].Name.String() != "count" {
		t.Fatalf("got instvars %v", c.InstVars)
	}
	if len(c.Methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(c.Methods))
	}
}

func TestParseKeywordSelector(t *testing.T) {
	src := `Dict = Object (
		at: key put: value = ( ^self )
	)`
	c, diag := parseOne(t, src)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	m := c.Methods[0]
	if m.Pattern != PatternKeyword {
		t.Fatalf("got pattern %v, want keyword", m.Pattern)
	}
	if m.Selector() != "at:put:" {
		t.Fatalf("got selector %q, want at:put:", m.Selector())
	}
	if len(m.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(m.Params))
	}
}

func TestParseBinarySelector(t *testing.T) {
	src := `Point = Object (
		+ other = ( ^self )
	)`
	c, _ := parseOne(t, src)
	m := c.Methods[0]
	if m.Pattern != PatternBinary || m.Selector() != "+" {
		t.Fatalf("got pattern=%v selector=%q", m.Pattern, m.Selector())
	}
}

func TestParseClassSideMethods(t *testing.T) {
	src := `Foo = Object (
		----
		new = ( ^self )
	)`
	c, diag := parseOne(t, src)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	if len(c.ClassMethods) != 1 {
		t.Fatalf("got %d class methods, want 1", len(c.ClassMethods))
	}
}

func TestParseBlockAndNonLocalReturn(t *testing.T) {
	src := `Foo = Object (
		find = ( true ifTrue: [ ^1 ]. ^0 )
	)`
	c, diag := parseOne(t, src)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	m := c.Methods[0]
	send, ok := m.Body[0].(*Send)
	if !ok {
		t.Fatalf("body[0] is %T, want *Send", m.Body[0])
	}
	block, ok := send.Args[0].(*Block)
	if !ok {
		t.Fatalf("arg is %T, want *Block", send.Args[0])
	}
	ret, ok := block.Body[0].(*Return)
	if !ok {
		t.Fatalf("block body[0] is %T, want *Return", block.Body[0])
	}
	if !ret.NonLocal {
		t.Fatalf("expected NonLocal=true for ^ inside a block")
	}
}

func TestParseNegativeLiteralFoldsAcrossWhitespace(t *testing.T) {
	src := `Foo = Object (
		bar = ( ^- 5 )
	)`
	c, diag := parseOne(t, src)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	m := c.Methods[0]
	ret, ok := m.Body[0].(*Return)
	if !ok {
		t.Fatalf("body[0] is %T, want *Return", m.Body[0])
	}
	lit, ok := ret.What.(*IntLit)
	if !ok {
		t.Fatalf("return value is %T, want *IntLit", ret.What)
	}
	if lit.Text != "-5" {
		t.Fatalf("got %q, want -5", lit.Text)
	}
}

func TestParseDuplicateMethodIsRecoverableError(t *testing.T) {
	src := `Foo = Object (
		bar = ( ^1 )
		bar = ( ^2 )
	)`
	c, diag := parseOne(t, src)
	if len(diag.Errors()) == 0 {
		t.Fatalf("expected a duplicate-method error")
	}
	if len(c.Methods) != 1 {
		t.Fatalf("got %d methods after recovery, want 1", len(c.Methods))
	}
}
