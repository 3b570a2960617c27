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

import "embed"

//go:embed lib/*.som
var bootstrapFS embed.FS

// bootstrapOrder lists the built-in library classes, every superclass
// ahead of its subclasses. The loader uses it only to tell which names are
// served from the embedded sources; the order classes are force-loaded in
// is forceLoaded's, and the final load order is set by wireSuperclasses.
var bootstrapOrder = []string{
	"Object",
	"Class",
	"Metaclass",
	"Nil",
	"Boolean",
	"True",
	"False",
	"Block",
	"String",
	"Symbol",
	"Integer",
	"Double",
	"Array",
	"Method",
	"Primitive",
	"System",
}

// bootstrapSources returns the embedded library sources in bootstrapOrder, the
// same shape as a fixed search path entry that is always present
// regardless of -cp, mirroring how a default makefile is parsed before any
// user input.
func bootstrapSources() ([]namedSource, error) {
	out := make([]namedSource, 0, len(bootstrapOrder))
	for _, name := range bootstrapOrder {
		path := "lib/" + name + ".som"
		data, err := bootstrapFS.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, namedSource{name: path, data: data})
	}
	return out, nil
}
