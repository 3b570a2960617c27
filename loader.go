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
	"os"
	"path/filepath"
	"sync"
)

// forceLoaded is the set of library classes that must be resolved before
// the main class, regardless of whether anything in the program text
// refers to them directly.
var forceLoaded = []string{
	"Object", "Metaclass", "Class", "System",
	"Boolean", "True", "False", "Nil", "Block",
	"String", "Symbol", "Integer", "Double", "Array",
	"Method", "Primitive",
}

type namedSource struct {
	name string // path, for diagnostics
	data []byte
}

// Loader resolves class names to source bytes across an ordered search
// path and the embedded bootstrap library, parses and registers them with
// a *Model, and follows superclass references transitively. Grounded on
// the directory-scan-with-cache discipline of pathutil.go's fsCache: a
// resolved class name never triggers a second stat of the same path.
type Loader struct {
	st    *symtab
	diag  *Diagnostics
	model *Model

	searchPath []string // -cp entries, then the main file's own directory

	statCache sync.Map // map[string]string: class name -> resolved file path ("" = not found)

	pending  map[string]bool // class names requested but not yet loaded
	concurrency int
}

// NewLoader builds a Loader. A built-in class name is always read from
// the embedded built-in library; searchPath is consulted, in order, only
// for other names, so a file on the search path cannot replace a built-in
// class.
func NewLoader(st *symtab, diag *Diagnostics, model *Model, searchPath []string, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		st:          st,
		diag:        diag,
		model:       model,
		searchPath:  searchPath,
		pending:     make(map[string]bool),
		concurrency: concurrency,
	}
}

// resolvePath finds the .som file for class name, searching searchPath in
// order and falling back to nothing (bootstrap classes are served from the
// embedded FS, not the filesystem).
func (l *Loader) resolvePath(name string) (string, bool) {
	if v, ok := l.statCache.Load(name); ok {
		s := v.(string)
		return s, s != ""
	}
	for _, dir := range l.searchPath {
		candidate := filepath.Join(dir, name+".som")
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			l.statCache.Store(name, candidate)
			return candidate, true
		}
	}
	l.statCache.Store(name, "")
	return "", false
}

func isBootstrapClass(name string) bool {
	for _, n := range bootstrapOrder {
		if n == name {
			return true
		}
	}
	return false
}

// readBatch reads the source bytes for a batch of class names concurrently,
// bounded by l.concurrency goroutines: parsing and everything after stays
// strictly single-threaded, run only once every read in the batch has
// landed. This is the one place file I/O, not compilation, runs in
// parallel.
func (l *Loader) readBatch(names []string) map[string]namedSource {
	type result struct {
		name string
		src  namedSource
		err  error
	}
	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < l.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				data, err := l.readOne(name)
				results <- result{name: name, src: namedSource{name: name, data: data}, err: err}
			}
		}()
	}
	go func() {
		for _, n := range names {
			jobs <- n
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]namedSource, len(names))
	for r := range results {
		if r.err != nil {
			l.diag.Errorf(SourcePos{}, PhaseLoad, "%s", r.err)
			continue
		}
		out[r.name] = r.src
	}
	return out
}

func (l *Loader) readOne(name string) ([]byte, error) {
	if isBootstrapClass(name) {
		data, err := bootstrapFS.ReadFile("lib/" + name + ".som")
		if err != nil {
			return nil, fmt.Errorf("class %q: bootstrap source missing: %w", name, err)
		}
		return data, nil
	}
	path, ok := l.resolvePath(name)
	if !ok {
		return nil, fmt.Errorf("class %q: not found on search path", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("class %q: %w", name, err)
	}
	return data, nil
}

// LoadMain drives the whole load: bootstrap classes first, then mainClass
// and everything its superclass chain transitively requires.
func (l *Loader) LoadMain(mainClass string) {
	l.loadNames(forceLoaded)
	l.loadNames([]string{mainClass})
	l.resolveUnloadedSupers()
	l.model.wireSuperclasses()
}

// loadNames loads a batch of class names not yet registered, following
// their SuperName chains until every reachable class is in the model.
func (l *Loader) loadNames(names []string) {
	var batch []string
	for _, n := range names {
		sym := l.st.intern(n)
		if l.model.ClassByName(sym) != nil || l.pending[n] {
			continue
		}
		l.pending[n] = true
		batch = append(batch, n)
	}
	for len(batch) > 0 {
		sources := l.readBatch(batch)
		var next []string
		for _, n := range batch {
			src, ok := sources[n]
			if !ok {
				continue
			}
			class := ParseClass(l.st, l.diag, src.name, src.data)
			if !l.model.AddClass(class) {
				continue
			}
			superName := class.SuperName.String()
			if superName == "nil" {
				if class.Name.String() != "Object" {
					l.diag.Errorf(class.Pos, PhaseLoad, "class %q: only Object may name nil as its superclass", class.Name.String())
				}
				continue
			}
			superSym := l.st.intern(superName)
			if l.model.ClassByName(superSym) == nil && !l.pending[superName] {
				l.pending[superName] = true
				next = append(next, superName)
			}
		}
		batch = next
	}
}

// resolveUnloadedSupers re-checks every loaded class's superclass name
// once no more batches are pending: a class whose superclass never
// resolved is a load error, reported here once per class;
// wireSuperclasses later reports the same class a second time.
func (l *Loader) resolveUnloadedSupers() {
	for _, c := range l.model.LoadOrder() {
		if c.SuperName.String() == "nil" {
			continue
		}
		if l.model.ClassByName(c.SuperName) == nil {
			l.diag.Errorf(c.Pos, PhaseLoad, "class %q: superclass %q could not be loaded", c.Name.String(), c.SuperName.String())
		}
	}
}
