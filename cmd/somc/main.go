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

// Command somc compiles a SOM program to register-machine bytecode (and,
// optionally, Lua source text).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-som/somc"
)

var (
	cpFlag         string
	nojitFlag      bool
	luaFlag        bool
	traceFlag      bool
	saveImageFlag  string
	loadImageFlag  string
	queryFlag      string
	conventionBFlag bool
)

func init() {
	flag.StringVar(&cpFlag, "cp", "", "class search paths for classes outside the built-in library")
	flag.BoolVar(&nojitFlag, "nojit", false, "disable target-VM JIT (passed through, not interpreted)")
	flag.BoolVar(&luaFlag, "lua", false, "also emit Lua source text")
	flag.BoolVar(&traceFlag, "trace", false, "enable phase tracing")
	flag.StringVar(&saveImageFlag, "save-image", "", "gob-serialize the compiled object model to FILE")
	flag.StringVar(&loadImageFlag, "load-image", "", "load a previously saved compiled image instead of recompiling")
	flag.StringVar(&queryFlag, "query", "", "KIND=ARG cross-reference query (selector=, name=, variable=)")
	flag.BoolVar(&conventionBFlag, "param-table-calls", false, "record the parameter-table calling convention on each compiled function (emitted code uses up-values either way)")
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: somc [flags] <main.som> [program-args...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(args[0]); err != nil {
		fmt.Fprintln(os.Stderr, "somc:", err)
		os.Exit(1)
	}
}

func run(mainFile string) error {
	if loadImageFlag != "" {
		mod, err := som.LoadImage(loadImageFlag)
		if err != nil {
			return err
		}
		fmt.Printf("loaded image: %d classes, %d methods\n", len(mod.Classes), len(mod.Methods))
		return nil
	}

	mainClass := strings.TrimSuffix(filepath.Base(mainFile), ".som")
	searchPath := searchPathOf(mainFile)

	c := som.NewCompiler(som.Options{
		SearchPath:    searchPath,
		Trace:         traceFlag,
		ConventionB:   conventionBFlag,
		LoaderWorkers: 4,
	})

	res := c.Compile(mainClass, luaFlag)
	c.Trace.WriteTo(os.Stderr)

	for _, e := range c.Diag.All() {
		fmt.Fprintln(os.Stderr, e.Error())
	}
	if c.Diag.HasErrors() {
		return fmt.Errorf("compilation failed with %d error(s)", len(c.Diag.Errors()))
	}

	if queryFlag != "" {
		runQuery(c.Model.Xref, queryFlag)
	}

	if saveImageFlag != "" {
		if err := som.SaveImage(res.Module, saveImageFlag); err != nil {
			return err
		}
	}

	if luaFlag {
		fmt.Print(res.LuaSource)
	}

	return nil
}

func searchPathOf(mainFile string) []string {
	dir := filepath.Dir(mainFile)
	if cpFlag == "" {
		return []string{dir}
	}
	return append(strings.Split(cpFlag, ":"), dir)
}

func runQuery(x *som.Xref, q string) {
	kind, arg, ok := som.ParseQuery(q)
	if !ok {
		fmt.Fprintf(os.Stderr, "somc: malformed -query %q, want KIND=ARG\n", q)
		return
	}
	switch kind {
	case "selector":
		x.QuerySelector(os.Stdout, arg)
	case "name":
		x.QueryName(os.Stdout, arg)
	case "variable":
		x.QueryVariable(os.Stdout, arg)
	default:
		fmt.Fprintf(os.Stderr, "somc: unknown query kind %q\n", kind)
	}
}
