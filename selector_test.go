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

func TestEncodeSelectorUnary(t *testing.T) {
	if got := EncodeSelector(PatternUnary, "isNil"); got != "isNil" {
		t.Fatalf("got %q, want isNil", got)
	}
}

func TestEncodeSelectorUnaryReservedWordGetsPrefixed(t *testing.T) {
	if got := EncodeSelector(PatternUnary, "end"); got != "_end" {
		t.Fatalf("got %q, want _end", got)
	}
	if got := EncodeSelector(PatternUnary, "and"); got != "_and" {
		t.Fatalf("got %q, want _and", got)
	}
}

func TestEncodeSelectorKeyword(t *testing.T) {
	if got := EncodeSelector(PatternKeyword, "at:put:"); got != "at_put_" {
		t.Fatalf("got %q, want at_put_", got)
	}
}

func TestEncodeSelectorBinary(t *testing.T) {
	tests := []struct {
		sel  string
		want string
	}{
		{"+", "_0p"},
		{"-", "_0m"},
		{"=", "_0q"},
		{"~=", "_0tq"},
		{"<=", "_0lq"},
		{">=", "_0gq"},
	}
	for _, tc := range tests {
		if got := EncodeSelector(PatternBinary, tc.sel); got != tc.want {
			t.Errorf("EncodeSelector(binary, %q) = %q, want %q", tc.sel, got, tc.want)
		}
	}
}
