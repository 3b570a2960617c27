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

import "fmt"

// SourcePos is the location of one AST node or token: byte offset, line,
// column and length all refer to the same source id. The invariant carried
// from the data model is that Length always spans exactly the lexical
// extent of whatever node or token owns this position.
type SourcePos struct {
	Source string
	Offset int
	Line   int
	Column int
	Length int
}

func (p SourcePos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
}

func (p SourcePos) less(q SourcePos) bool {
	if p.Source != q.Source {
		return p.Source < q.Source
	}
	return p.Offset < q.Offset
}

// TokKind is the closed set of token kinds the lexer produces.
type TokKind int

const (
	TokInvalid TokKind = iota
	TokError
	TokEOF
	TokColon
	TokHat
	TokHash
	TokAssign // :=
	TokTilde
	TokAt
	TokPercent
	TokAmp
	TokStar
	TokMinus
	TokPlus
	TokEq
	TokBar
	TokBackslash
	TokLt
	TokGt
	TokComma
	TokQMark
	TokSlash
	TokDot
	TokSemi
	TokLPar
	TokRPar
	TokLBrack
	TokRBrack
	TokString
	TokChar
	TokIdent
	TokInteger
	TokReal
	TokComment
	TokSymbol
	TokBinSelector
	TokSeparator
	TokKeyword
)

var tokKindNames = map[TokKind]string{
	TokInvalid:     "invalid",
	TokError:       "error",
	TokEOF:         "eof",
	TokColon:       "colon",
	TokHat:         "hat",
	TokHash:        "hash",
	TokAssign:      "assign",
	TokTilde:       "tilde",
	TokAt:          "at",
	TokPercent:     "percent",
	TokAmp:         "amp",
	TokStar:        "star",
	TokMinus:       "minus",
	TokPlus:        "plus",
	TokEq:          "eq",
	TokBar:         "bar",
	TokBackslash:   "backslash",
	TokLt:          "lt",
	TokGt:          "gt",
	TokComma:       "comma",
	TokQMark:       "qmark",
	TokSlash:       "slash",
	TokDot:         "dot",
	TokSemi:        "semi",
	TokLPar:        "lpar",
	TokRPar:        "rpar",
	TokLBrack:      "lbrack",
	TokRBrack:      "rbrack",
	TokString:      "string",
	TokChar:        "char",
	TokIdent:       "ident",
	TokInteger:     "integer",
	TokReal:        "real",
	TokComment:     "comment",
	TokSymbol:      "symbol",
	TokBinSelector: "bin-selector",
	TokSeparator:   "separator",
	TokKeyword:     "keyword",
}

func (k TokKind) String() string {
	if s, ok := tokKindNames[k]; ok {
		return s
	}
	return "?"
}

// Token is one lexeme: its kind, the raw text it covers and its position.
type Token struct {
	Kind TokKind
	Text string
	Pos  SourcePos
}
