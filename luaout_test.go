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

	"github.com/sergi/go-diff/diffmatchpatch"
)

// assertContainsLine fails with a readable diff (grounded on kati's own
// run_test.go, which diffs expected vs. actual output the same way) when
// want is not found verbatim in got.
func assertContainsLine(t *testing.T, got, want string) {
	t.Helper()
	if strings.Contains(got, want) {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Fatalf("missing expected line %q in generated Lua source\ndiff (want -> got):\n%s", want, dmp.DiffPrettyText(diffs))
}

func TestLuaEmitterClassAndMethod(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Counter = Object ( | count | count = ( ^count ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	out := NewLuaEmitter(om, model).Emit("Counter")

	assertContainsLine(t, out, "local Counter = setmetatable({}, {__index = Object})")
	assertContainsLine(t, out, "function Counter:count()")
	assertContainsLine(t, out, "return self.count")
}

func TestLuaEmitterEncodesBinarySelector(t *testing.T) {
	model, diag, _ := buildModel(t,
		`Object = nil ()`,
		`Class = Object ()`,
		`Point = Object ( + other = ( ^self ) )`,
	)
	if len(diag.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diag.Errors())
	}
	om := Materialize(model)
	out := NewLuaEmitter(om, model).Emit("Point")

	assertContainsLine(t, out, "function Point:_0p(other)")
}
