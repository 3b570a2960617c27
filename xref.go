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
	"strings"
)

// DefSite records where a name (class, method selector, or variable) is
// declared.
type DefSite struct {
	Pos SourcePos
}

// RefSite records where a name is used.
type RefSite struct {
	Pos SourcePos
}

// Xref holds the cross-reference indices named in the model's
// responsibilities: name -> defining sites, selector -> send sites, and
// variable -> reference sites, each keyed by interned handle so unrelated
// identically-spelled names in different scopes never collide unless the
// caller wants them to (callers key variable lookups by *Variable, not by
// name, to keep shadowed locals distinct).
type Xref struct {
	classDefs  map[Sym][]DefSite
	methodDefs map[Sym][]DefSite // keyed by selector
	sendSites  map[Sym][]RefSite // keyed by selector
	varRefs    map[*Variable][]RefSite
}

func newXref() *Xref {
	return &Xref{
		classDefs:  make(map[Sym][]DefSite),
		methodDefs: make(map[Sym][]DefSite),
		sendSites:  make(map[Sym][]RefSite),
		varRefs:    make(map[*Variable][]RefSite),
	}
}

func (x *Xref) recordClassDef(c *Class) {
	x.classDefs[c.Name] = append(x.classDefs[c.Name], DefSite{Pos: c.Pos})
}

func (x *Xref) recordMethodDef(m *Method) {
	x.methodDefs[m.Sel] = append(x.methodDefs[m.Sel], DefSite{Pos: m.Pos})
}

func (x *Xref) recordSend(s *Send) {
	sel := s.Selector()
	if sel == "" {
		return
	}
	key := Sym{s: sel}
	x.sendSites[key] = append(x.sendSites[key], RefSite{Pos: s.Pos()})
}

func (x *Xref) recordVarRef(v *Variable, pos SourcePos) {
	x.varRefs[v] = append(x.varRefs[v], RefSite{Pos: pos})
}

// QuerySelector answers "-query selector=NAME": every send site of a given
// selector text, grounded on the same name -> site lookup idea as the
// teacher's query.go, applied to selectors instead of build targets.
func (x *Xref) QuerySelector(w interface{ WriteString(string) (int, error) }, selector string) {
	sites := x.sendSites[Sym{s: selector}]
	sorted := make([]RefSite, len(sites))
	copy(sorted, sites)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pos.less(sorted[j].Pos) })
	for _, s := range sorted {
		fmt.Fprintf(sbWriter{w}, "%s: send %s\n", s.Pos, selector)
	}
}

// QueryName answers "-query name=NAME": every defining site of a class or
// method selector named NAME.
func (x *Xref) QueryName(w interface{ WriteString(string) (int, error) }, name string) {
	key := Sym{s: name}
	for _, d := range x.classDefs[key] {
		fmt.Fprintf(sbWriter{w}, "%s: class %s\n", d.Pos, name)
	}
	for _, d := range x.methodDefs[key] {
		fmt.Fprintf(sbWriter{w}, "%s: method %s\n", d.Pos, name)
	}
}

// QueryVariable answers "-query variable=NAME": every reference site of
// every variable named NAME (there may be several distinct variables
// sharing a spelling in different scopes).
func (x *Xref) QueryVariable(w interface{ WriteString(string) (int, error) }, name string) {
	for v, sites := range x.varRefs {
		if v.Name.String() != name {
			continue
		}
		sorted := make([]RefSite, len(sites))
		copy(sorted, sites)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pos.less(sorted[j].Pos) })
		for _, s := range sorted {
			fmt.Fprintf(sbWriter{w}, "%s: ref %s (%s)\n", s.Pos, name, v.Kind)
		}
	}
}

// sbWriter adapts a WriteString-only sink to io.Writer for fmt.Fprintf.
type sbWriter struct {
	w interface {
		WriteString(string) (int, error)
	}
}

func (s sbWriter) Write(p []byte) (int, error) { return s.w.WriteString(string(p)) }

// ParseQuery splits a "-query" flag value of the form "kind=arg".
func ParseQuery(q string) (kind, arg string, ok bool) {
	i := strings.IndexByte(q, '=')
	if i < 0 {
		return "", "", false
	}
	return q[:i], q[i+1:], true
}
