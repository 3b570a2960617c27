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
	"fmt"
	"sort"

	"github.com/golang/glog"
)

// Phase identifies which pipeline stage raised a CompileError.
type Phase int

const (
	PhaseLex Phase = iota
	PhaseParse
	PhaseLoad
	PhaseResolve
	PhaseEmit
)

func (p Phase) String() string {
	switch p {
	case PhaseLex:
		return "lex"
	case PhaseParse:
		return "parse"
	case PhaseLoad:
		return "load"
	case PhaseResolve:
		return "resolve"
	case PhaseEmit:
		return "emit"
	default:
		return "?"
	}
}

// CompileError is one accumulated diagnostic, carrying enough position
// information to print a conventional "file:line:col: message" line.
type CompileError struct {
	Pos     SourcePos
	Phase   Phase
	Message string
	Warning bool
}

func (e *CompileError) Error() string {
	kind := "error"
	if e.Warning {
		kind = "warning"
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, kind, e.Message)
}

// Diagnostics accumulates errors and warnings across every phase of one
// compilation. No phase aborts on the first error: each phase runs to
// completion and appends to the same list, matching the propagation model
// described for the pipeline as a whole.
type Diagnostics struct {
	errs []*CompileError
}

func (d *Diagnostics) Errorf(pos SourcePos, phase Phase, format string, a ...interface{}) {
	e := &CompileError{Pos: pos, Phase: phase, Message: fmt.Sprintf(format, a...)}
	d.errs = append(d.errs, e)
	if glog.V(1) {
		glog.Infof("%s", e.Error())
	}
}

func (d *Diagnostics) Warnf(pos SourcePos, phase Phase, format string, a ...interface{}) {
	e := &CompileError{Pos: pos, Phase: phase, Message: fmt.Sprintf(format, a...), Warning: true}
	d.errs = append(d.errs, e)
	if glog.V(1) {
		glog.Infof("%s", e.Error())
	}
}

// HasErrors reports whether any non-warning diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	for _, e := range d.errs {
		if !e.Warning {
			return true
		}
	}
	return false
}

// All returns every recorded diagnostic, stably ordered by source position.
func (d *Diagnostics) All() []*CompileError {
	out := make([]*CompileError, len(d.errs))
	copy(out, d.errs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.less(out[j].Pos)
	})
	return out
}

// Errors returns only the non-warning diagnostics, in the same order as All.
func (d *Diagnostics) Errors() []*CompileError {
	var out []*CompileError
	for _, e := range d.All() {
		if !e.Warning {
			out = append(out, e)
		}
	}
	return out
}
