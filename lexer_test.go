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

import "testing"

func lexAll(src string) []Token {
	l := NewLexer("test", []byte(src))
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == TokEOF {
			return toks
		}
	}
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		src  string
		want []TokKind
	}{
		{"foo", []TokKind{TokIdent, TokEOF}},
		{"at:put:", []TokKind{TokKeyword, TokKeyword, TokEOF}},
		{":=", []TokKind{TokAssign, TokEOF}},
		{"42", []TokKind{TokInteger, TokEOF}},
		{"3.14", []TokKind{TokReal, TokEOF}},
		{"-5", []TokKind{TokMinus, TokInteger, TokEOF}},
		{"'hi'", []TokKind{TokString, TokEOF}},
		{"$a", []TokKind{TokChar, TokEOF}},
		{"#foo", []TokKind{TokSymbol, TokEOF}},
		{"#at:put:", []TokKind{TokSymbol, TokEOF}},
		{"#(1 2)", []TokKind{TokHash, TokLPar, TokInteger, TokInteger, TokRPar, TokEOF}},
		{"+", []TokKind{TokPlus, TokEOF}},
		{"<=", []TokKind{TokBinSelector, TokEOF}},
		{"----", []TokKind{TokSeparator, TokEOF}},
		{"\"a comment\" foo", []TokKind{TokComment, TokIdent, TokEOF}},
	}
	for _, tc := range tests {
		toks := lexAll(tc.src)
		if len(toks) != len(tc.want) {
			t.Errorf("lex(%q): got %d tokens %v, want %d", tc.src, len(toks), toks, len(tc.want))
			continue
		}
		for i, k := range tc.want {
			if toks[i].Kind != k {
				t.Errorf("lex(%q)[%d]: got %v, want %v", tc.src, i, toks[i].Kind, k)
			}
		}
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	l := NewLexer("test", []byte("foo bar"))
	p0 := l.Peek(0)
	p1 := l.Peek(1)
	if p0.Text != "foo" || p1.Text != "bar" {
		t.Fatalf("Peek(0)=%q Peek(1)=%q, want foo/bar", p0.Text, p1.Text)
	}
	n := l.Next()
	if n.Text != "foo" {
		t.Fatalf("Next() after peeking = %q, want foo", n.Text)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	toks := lexAll("'unterminated")
	if toks[0].Kind != TokError {
		t.Fatalf("got %v, want TokError", toks[0].Kind)
	}
}

func TestLexerLineColumnTracking(t *testing.T) {
	l := NewLexer("test", []byte("foo\nbar"))
	l.Next()
	tok := l.Next()
	if tok.Pos.Line != 2 || tok.Pos.Column != 1 {
		t.Fatalf("got line=%d col=%d, want line=2 col=1", tok.Pos.Line, tok.Pos.Column)
	}
}
