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

// Options configures one compilation run.
type Options struct {
	SearchPath      []string // -cp entries, in order, for classes that are not in the embedded bootstrap library
	Trace           bool
	ConventionB     bool // recorded on each Proto as CallConventionB; the emitted code uses up-values either way
	LoaderWorkers   int  // concurrency for loader.go's batched file reads
}

// Compiler bundles the per-compilation state that would otherwise have to
// be threaded through every phase function by hand: the intern pool, the
// diagnostics sink, the class model and the phase tracer. One Compiler
// compiles exactly one program; nothing here is safe to share between
// concurrent compilations, the same way kati builds one *Evaluator per
// invocation instead of keeping mutable eval state package-global.
type Compiler struct {
	Symtab *symtab
	Diag   *Diagnostics
	Model  *Model
	Trace  *PhaseTrace

	opts Options
}

// NewCompiler builds a Compiler ready to load and compile one program.
func NewCompiler(opts Options) *Compiler {
	st := newSymtab()
	diag := &Diagnostics{}
	return &Compiler{
		Symtab: st,
		Diag:   diag,
		Model:  NewModel(st, diag),
		Trace:  NewPhaseTrace(opts.Trace),
		opts:   opts,
	}
}

// Result is the compiled output of one successful run.
type Result struct {
	ObjectModel *ObjectModel
	Module      *Module
	LuaSource   string
}

// Compile loads mainClass and its transitive superclass chain, resolves
// every loaded class, materializes the object model and emits bytecode
// (and, if emitLua is set, Lua source text). It always returns whatever it
// managed to build; callers should check c.Diag.HasErrors() before
// trusting the result the same way every phase here keeps going after a
// recoverable error instead of aborting.
func (c *Compiler) Compile(mainClass string, emitLua bool) *Result {
	end := c.Trace.Begin("load")
	loader := NewLoader(c.Symtab, c.Diag, c.Model, c.opts.SearchPath, c.opts.LoaderWorkers)
	loader.LoadMain(mainClass)
	end()

	end = c.Trace.Begin("resolve")
	NewResolver(c.Model, c.Diag, c.Symtab).ResolveAll()
	end()

	if c.Diag.HasErrors() {
		return &Result{}
	}

	end = c.Trace.Begin("materialize")
	om := Materialize(c.Model)
	end()

	end = c.Trace.Begin("emit")
	mod := NewEmitter(om, c.Model, c.Diag, c.opts.ConventionB).EmitModule(mainClass)
	end()

	res := &Result{ObjectModel: om, Module: mod}
	if emitLua {
		res.LuaSource = NewLuaEmitter(om, c.Model).Emit(mainClass)
	}
	return res
}
