// Copyright 2026 The NexusDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fulltext implements the inverted full-text index: an
// analyzer pipeline of splitters and filters that turns document
// content into terms, and the Td/Dl posting keys (internal/keys) a
// table+index's postings live under. Indexing resolves or allocates a
// DocId, tokenizes, writes one Td posting per distinct term and one
// Dl length entry per document; un-indexing walks the same terms in
// reverse.
package fulltext

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Token is one tokenizer output: the term text plus its byte-range
// offsets into the original content, used when the index has
// highlighting enabled.
type Token struct {
	Term  string
	Start int
	End   int
}

// Splitter breaks one content string into an initial token stream.
type Splitter func(content string) []Token

// Filter transforms a token stream, possibly changing Term (owned
// replacement strings) or fanning a token out into several (n-grams).
type Filter func(tokens []Token) []Token

// SplitBlank splits on Unicode whitespace runs.
func SplitBlank(content string) []Token {
	var out []Token
	start := -1
	for i, r := range content {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, Token{Term: content[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, Token{Term: content[start:], Start: start, End: len(content)})
	}
	return out
}

// SplitCase splits additionally on a lower-to-upper case transition
// within a run of letters, e.g. "camelCase" ->
// "camel", "Case".
func SplitCase(content string) []Token {
	var out []Token
	for _, blank := range SplitBlank(content) {
		runes := []rune(blank.Term)
		start := 0
		for i := 1; i < len(runes); i++ {
			if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
				out = append(out, subToken(blank, runes, start, i))
				start = i
			}
		}
		out = append(out, subToken(blank, runes, start, len(runes)))
	}
	return out
}

// SplitClass splits on any change of Unicode character class (letter,
// digit, punctuation, other) within a run.
func SplitClass(content string) []Token {
	var out []Token
	for _, blank := range SplitBlank(content) {
		runes := []rune(blank.Term)
		start := 0
		for i := 1; i < len(runes); i++ {
			if runeClass(runes[i]) != runeClass(runes[i-1]) {
				out = append(out, subToken(blank, runes, start, i))
				start = i
			}
		}
		out = append(out, subToken(blank, runes, start, len(runes)))
	}
	return out
}

func runeClass(r rune) int {
	switch {
	case unicode.IsLetter(r):
		return 0
	case unicode.IsDigit(r):
		return 1
	case unicode.IsPunct(r):
		return 2
	default:
		return 3
	}
}

func subToken(parent Token, runes []rune, start, end int) Token {
	if start >= end {
		return Token{Term: "", Start: parent.Start, End: parent.Start}
	}
	term := string(runes[start:end])
	byteStart := parent.Start + len(string(runes[:start]))
	return Token{Term: term, Start: byteStart, End: byteStart + len(term)}
}

// FilterLowercase lowercases every term.
func FilterLowercase(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = Token{Term: strings.ToLower(t.Term), Start: t.Start, End: t.End}
	}
	return out
}

// FilterAscii folds common Latin diacritics to their plain ASCII
// equivalent.
func FilterAscii(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		var b strings.Builder
		b.Grow(len(t.Term))
		for _, r := range t.Term {
			b.WriteRune(foldASCII(r))
		}
		out[i] = Token{Term: b.String(), Start: t.Start, End: t.End}
	}
	return out
}

var asciiFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ñ': 'n', 'ç': 'c', 'ý': 'y',
}

func foldASCII(r rune) rune {
	if folded, ok := asciiFold[unicode.ToLower(r)]; ok {
		if unicode.IsUpper(r) {
			return unicode.ToUpper(folded)
		}
		return folded
	}
	return r
}

// snowballLangs maps the language codes a DEFINE ANALYZER can name to
// the stemmer's full language identifiers.
var snowballLangs = map[string]string{
	"en": "english", "english": "english",
	"es": "spanish", "spanish": "spanish",
	"fr": "french", "french": "french",
	"ru": "russian", "russian": "russian",
	"sv": "swedish", "swedish": "swedish",
	"no": "norwegian", "norwegian": "norwegian",
	"hu": "hungarian", "hungarian": "hungarian",
}

// FilterSnowball stems each token with the Snowball stemmer for lang.
// An unsupported language makes the filter a no-op, and a term the
// stemmer rejects passes through unchanged; either way the token's
// source offsets are kept. The stemmer lowercases as part of
// stemming, so pipelines that also carry a Lowercase filter see the
// same terms regardless of filter order.
func FilterSnowball(lang string) Filter {
	name, supported := snowballLangs[strings.ToLower(lang)]
	return func(tokens []Token) []Token {
		if !supported {
			return tokens
		}
		out := make([]Token, len(tokens))
		for i, t := range tokens {
			stemmed, err := snowball.Stem(t.Term, name, false)
			if err != nil || stemmed == "" {
				out[i] = t
				continue
			}
			out[i] = Token{Term: stemmed, Start: t.Start, End: t.End}
		}
		return out
	}
}

// FilterEdgeNgram emits, for every token, every prefix of length
// [min,max], used for prefix and autocomplete search.
func FilterEdgeNgram(min, max int) Filter {
	return func(tokens []Token) []Token {
		var out []Token
		for _, t := range tokens {
			runes := []rune(t.Term)
			for n := min; n <= max && n <= len(runes); n++ {
				out = append(out, Token{Term: string(runes[:n]), Start: t.Start, End: t.Start + n})
			}
			if len(runes) < min {
				out = append(out, t)
			}
		}
		return out
	}
}

// FilterNgram emits every contiguous substring of length [min,max] of
// each token.
func FilterNgram(min, max int) Filter {
	return func(tokens []Token) []Token {
		var out []Token
		for _, t := range tokens {
			runes := []rune(t.Term)
			for n := min; n <= max && n <= len(runes); n++ {
				for i := 0; i+n <= len(runes); i++ {
					out = append(out, Token{Term: string(runes[i : i+n])})
				}
			}
			if len(runes) < min {
				out = append(out, t)
			}
		}
		return out
	}
}

// Analyzer chains a single splitter with an ordered list of filters.
type Analyzer struct {
	Split   Splitter
	Filters []Filter
}

// NewDefault returns the common-case analyzer: Blank splitting plus a
// Lowercase filter.
func NewDefault() *Analyzer {
	return &Analyzer{Split: SplitBlank, Filters: []Filter{FilterLowercase}}
}

// Tokenize runs content through the splitter and every filter in
// order, producing the final term stream.
func (a *Analyzer) Tokenize(content string) []Token {
	split := a.Split
	if split == nil {
		split = SplitBlank
	}
	tokens := split(content)
	for _, f := range a.Filters {
		tokens = f(tokens)
	}
	return tokens
}

// Resolve builds an Analyzer from a catalog analyzer definition's
// named splitter/filter pipeline. Unknown names are skipped rather
// than erroring — an unrecognized stage degrades to a no-op instead
// of failing the whole index, since this package doesn't own the DDL
// grammar that validates analyzer names at DEFINE ANALYZER time.
func Resolve(splitterNames, filterNames []string) *Analyzer {
	a := &Analyzer{Split: SplitBlank}
	for _, s := range splitterNames {
		switch strings.ToLower(s) {
		case "blank":
			a.Split = SplitBlank
		case "case":
			a.Split = SplitCase
		case "class":
			a.Split = SplitClass
		}
	}
	for _, f := range filterNames {
		name := strings.ToLower(f)
		switch {
		case name == "lowercase":
			a.Filters = append(a.Filters, FilterLowercase)
		case name == "ascii":
			a.Filters = append(a.Filters, FilterAscii)
		case name == "snowball":
			a.Filters = append(a.Filters, FilterSnowball("english"))
		case strings.HasPrefix(name, "snowball(") && strings.HasSuffix(name, ")"):
			a.Filters = append(a.Filters, FilterSnowball(name[len("snowball("):len(name)-1]))
		}
	}
	return a
}
