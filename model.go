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

import "sort"

// Model is the cross-class registry (C4): the global scope, the mapping
// from class name to class, and the cross-reference indices the resolver
// and object-model builder both consume.
type Model struct {
	st   *symtab
	diag *Diagnostics

	classes   map[Sym]*Class
	loadOrder []*Class // registration order; super-before-subclass once wireSuperclasses has run

	systemSym Sym // predeclared global "system"

	Xref *Xref
}

func NewModel(st *symtab, diag *Diagnostics) *Model {
	return &Model{
		st:        st,
		diag:      diag,
		classes:   make(map[Sym]*Class),
		systemSym: st.intern("system"),
		Xref:      newXref(),
	}
}

// AddClass registers c. At most one class exists per class-name: if the
// name is already taken, the new declaration is rejected (warning
// recorded) and the first registration wins, per the model's invariant.
func (m *Model) AddClass(c *Class) bool {
	if c.Name.IsZero() {
		return false
	}
	if existing, ok := m.classes[c.Name]; ok {
		m.diag.Warnf(c.Pos, PhaseLoad, "class %q already loaded from %s; keeping first definition", c.Name.String(), existing.Pos.Source)
		return false
	}
	m.classes[c.Name] = c
	m.loadOrder = append(m.loadOrder, c)
	return true
}

// Lookup resolves a global name: a loaded class, or the predeclared
// "system" global (reported via ok=true, class=nil).
func (m *Model) Lookup(name Sym) (c *Class, isSystem bool, ok bool) {
	if name == m.systemSym {
		return nil, true, true
	}
	if c, found := m.classes[name]; found {
		return c, false, true
	}
	return nil, false, false
}

// ClassByName returns the class named name, or nil.
func (m *Model) ClassByName(name Sym) *Class { return m.classes[name] }

// Classes returns every registered class, sorted by name for determinism.
func (m *Model) Classes() []*Class {
	out := make([]*Class, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.String() < out[j].Name.String() })
	return out
}

// LoadOrder returns every registered class. Before wireSuperclasses runs
// this is registration order; afterwards it is the topological
// (super-before-subclass) order that object-model materialization walks.
func (m *Model) LoadOrder() []*Class {
	out := make([]*Class, len(m.loadOrder))
	copy(out, m.loadOrder)
	return out
}

// wireSuperclasses resolves every class's SuperName to a *Class pointer and
// appends it to that superclass's Subclasses list. Object's SuperName is
// "nil" and is left unresolved (Super == nil). It then reorders the load
// order so every superclass precedes its subclasses. Called once all
// reachable classes have been loaded.
func (m *Model) wireSuperclasses() {
	for _, c := range m.loadOrder {
		if c.SuperName.String() == "nil" {
			continue
		}
		super := m.classes[c.SuperName]
		if super == nil {
			m.diag.Errorf(c.Pos, PhaseLoad, "class %q: superclass %q not found", c.Name.String(), c.SuperName.String())
			continue
		}
		c.Super = super
		super.Subclasses = append(super.Subclasses, c)
	}
	for _, c := range m.loadOrder {
		sort.Slice(c.Subclasses, func(i, j int) bool {
			return c.Subclasses[i].Name.String() < c.Subclasses[j].Name.String()
		})
	}
	var ordered []*Class
	seen := make(map[*Class]bool)
	var visit func(c *Class)
	visit = func(c *Class) {
		if c == nil || seen[c] {
			return
		}
		seen[c] = true
		visit(c.Super)
		ordered = append(ordered, c)
	}
	for _, c := range m.loadOrder {
		visit(c)
	}
	m.loadOrder = ordered
}
