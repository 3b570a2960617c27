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

import "strings"

// binSelectorChars maps every binary-selector character to the letter a
// generated Lua identifier uses in its place. Verified character-by-
// character against the transpiler this scheme is lifted from: unary
// selectors pass through untouched, keyword selectors join their parts
// with underscores in place of colons, and binary selectors get a "_0"
// prefix followed by one substituted letter per character.
var binSelectorChars = map[rune]rune{
	'~': 't', '&': 'a', '|': 'b', '*': 's', '/': 'h', '\\': 'B',
	'+': 'p', '=': 'q', '>': 'g', '<': 'l', ',': 'c', '@': 'A',
	'%': 'r', '-': 'm',
}

// EncodeSelector renders sel (the full selector text of a method or send,
// e.g. "at:put:" or "+") as a valid target-language identifier fragment.
func EncodeSelector(pattern PatternKind, sel string) string {
	switch pattern {
	case PatternKeyword:
		return strings.ReplaceAll(sel, ":", "_")
	case PatternBinary:
		var sb strings.Builder
		sb.WriteString("_0")
		for _, r := range sel {
			if mapped, ok := binSelectorChars[r]; ok {
				sb.WriteRune(mapped)
			} else {
				sb.WriteRune(r)
			}
		}
		return sb.String()
	default: // PatternUnary, PatternNone
		if luaKeywords[sel] {
			return "_" + sel
		}
		return sel
	}
}
