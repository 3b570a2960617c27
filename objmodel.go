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

// RtClass is one materialized class or metaclass table (C6): the object
// model's runtime view of a *Class, with every inherited field and method
// already copied down so a dispatch or field access never has to walk the
// superclass chain again. Grounded on the two-step "build a graph, then an
// executable view of it" shape of depgraph.go's Load followed by
// exec.go's NewExecutor: *Model is the graph, *ObjectModel is the
// executable view.
type RtClass struct {
	Name  Sym
	Super *RtClass
	Meta  *RtClass // the metaclass object describing this class, nil on a metaclass itself
	Src   *Class   // the parsed class this RtClass (or its metaclass) was built from
	IsMeta bool

	Fields  []Sym          // inherited + own, in slot order
	Methods map[Sym]*Method // inherited + own, own wins
}

// FindField returns the slot index of name in this class's field layout,
// or -1.
func (c *RtClass) FindField(name Sym) int {
	for i, f := range c.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// FindMethod looks up a selector, already flattened across the inheritance
// chain.
func (c *RtClass) FindMethod(sel Sym) *Method { return c.Methods[sel] }

// ObjectModel is the fully materialized set of runtime classes and their
// metaclasses, ready for the emitter.
type ObjectModel struct {
	Classes map[Sym]*RtClass // instance-side, keyed by class name
}

// Materialize builds an *ObjectModel from every class the model has
// loaded. It requires model.LoadOrder() to be topological (superclass
// registered before subclass), an invariant the loader maintains.
func Materialize(model *Model) *ObjectModel {
	om := &ObjectModel{Classes: make(map[Sym]*RtClass)}

	order := model.LoadOrder()

	for _, c := range order {
		var super *RtClass
		if c.Super != nil {
			super = om.Classes[c.Super.Name]
		}
		om.Classes[c.Name] = buildInstanceSide(c, super)
	}

	for _, c := range order {
		ic := om.Classes[c.Name]
		var metaSuper *RtClass
		if c.Super != nil {
			metaSuper = om.Classes[c.Super.Name].Meta
		} else {
			// Object class's superclass is Class, per the standard
			// Smalltalk metaclass hierarchy.
			metaSuper = om.Classes[classNameSym(model)]
		}
		ic.Meta = buildMetaSide(c, metaSuper)
	}

	return om
}

// classNameSym avoids hard-coding a second interned symbol table lookup
// path: it asks the model's own symtab for "Class", the one name the
// metaclass hierarchy's root always needs.
func classNameSym(model *Model) Sym { return model.st.intern("Class") }

func buildInstanceSide(c *Class, super *RtClass) *RtClass {
	rt := &RtClass{Name: c.Name, Super: super, Src: c, Methods: make(map[Sym]*Method)}
	if super != nil {
		rt.Fields = append(rt.Fields, super.Fields...)
		for sel, m := range super.Methods {
			rt.Methods[sel] = m
		}
	}
	for _, v := range c.InstVars {
		rt.Fields = append(rt.Fields, v.Name)
	}
	for _, m := range c.Methods {
		rt.Methods[m.Sel] = m
	}
	return rt
}

func buildMetaSide(c *Class, metaSuper *RtClass) *RtClass {
	rt := &RtClass{Name: c.Name, Super: metaSuper, Src: c, IsMeta: true, Methods: make(map[Sym]*Method)}
	if metaSuper != nil {
		rt.Fields = append(rt.Fields, metaSuper.Fields...)
		for sel, m := range metaSuper.Methods {
			rt.Methods[sel] = m
		}
	}
	for _, v := range c.ClassVars {
		rt.Fields = append(rt.Fields, v.Name)
	}
	for _, m := range c.ClassMethods {
		rt.Methods[m.Sel] = m
	}
	return rt
}
