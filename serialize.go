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
	"encoding/gob"
	"os"
	"time"

	"github.com/golang/glog"
)

// SaveImage gob-serializes mod to filename, so a driver can cache or
// transport a compiled module without recompiling it from source.
// Grounded directly on kati's serialize.go gobLoadSaver.Save, which
// gob-encodes a *DepGraph the same way.
func SaveImage(mod *Module, filename string) error {
	start := time.Now()
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(mod); err != nil {
		return err
	}
	glog.V(1).Infof("save-image %s: %s", filename, time.Since(start))
	return nil
}

// LoadImage reads back a *Module saved by SaveImage.
func LoadImage(filename string) (*Module, error) {
	start := time.Now()
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mod Module
	if err := gob.NewDecoder(f).Decode(&mod); err != nil {
		return nil, err
	}
	glog.V(1).Infof("load-image %s: %s", filename, time.Since(start))
	return &mod, nil
}
