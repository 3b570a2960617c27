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
	"testing"
)

func TestXrefQuerySelectorFindsSendSites(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Foo = Object ( bar = ( ^self baz ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	var sb strings.Builder
	model.Xref.QuerySelector(&sb, "baz")
	if !strings.Contains(sb.String(), "send baz") {
		t.Fatalf("QuerySelector(baz) = %q, want a send baz line", sb.String())
	}
}

func TestXrefQueryNameFindsMethodAndClassDefs(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Foo = Object ( bar = ( ^self ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	var sb strings.Builder
	model.Xref.QueryName(&sb, "Foo")
	if !strings.Contains(sb.String(), "class Foo") {
		t.Fatalf("QueryName(Foo) = %q, want a class Foo line", sb.String())
	}

	sb.Reset()
	model.Xref.QueryName(&sb, "bar")
	if !strings.Contains(sb.String(), "method bar") {
		t.Fatalf("QueryName(bar) = %q, want a method bar line", sb.String())
	}
}

func TestParseQuery(t *testing.T) {
	kind, arg, ok := ParseQuery("selector=baz")
	if !ok || kind != "selector" || arg != "baz" {
		t.Fatalf("got kind=%q arg=%q ok=%v", kind, arg, ok)
	}
	if _, _, ok := ParseQuery("malformed"); ok {
		t.Fatalf("expected ok=false for a query with no '='")
	}
}
