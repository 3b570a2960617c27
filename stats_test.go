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

func TestPhaseTraceDisabledIsNoop(t *testing.T) {
	pt := NewPhaseTrace(false)
	end := pt.Begin("load")
	end()
	var sb strings.Builder
	pt.WriteTo(&sb)
	if sb.Len() != 0 {
		t.Fatalf("disabled trace should write nothing, got %q", sb.String())
	}
}

func TestPhaseTraceRecordsNamedPhases(t *testing.T) {
	pt := NewPhaseTrace(true)
	pt.Begin("resolve")()
	pt.Begin("load")()
	var sb strings.Builder
	pt.WriteTo(&sb)
	out := sb.String()
	if !strings.Contains(out, "load") || !strings.Contains(out, "resolve") {
		t.Fatalf("expected both phases in trace output, got %q", out)
	}
	if strings.Index(out, "load") > strings.Index(out, "resolve") {
		t.Fatalf("expected phases sorted by name, got %q", out)
	}
}
