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

package fulltext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func terms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Term
	}
	return out
}

func TestSplitBlank(t *testing.T) {
	got := terms(SplitBlank("the quick  brown fox"))
	require.Equal(t, []string{"the", "quick", "brown", "fox"}, got)
}

func TestSplitCase(t *testing.T) {
	got := terms(SplitCase("camelCaseWord"))
	require.Equal(t, []string{"camel", "Case", "Word"}, got)
}

func TestSplitClass(t *testing.T) {
	got := terms(SplitClass("abc123!!"))
	require.Equal(t, []string{"abc", "123", "!!"}, got)
}

func TestFilterLowercase(t *testing.T) {
	got := terms(FilterLowercase(SplitBlank("Hello World")))
	require.Equal(t, []string{"hello", "world"}, got)
}

func TestFilterAscii(t *testing.T) {
	got := terms(FilterAscii(SplitBlank("café naïve")))
	require.Equal(t, []string{"cafe", "naive"}, got)
}

func TestFilterSnowball(t *testing.T) {
	stem := FilterSnowball("en")
	got := terms(stem(SplitBlank("running cats parties")))
	require.Equal(t, []string{"run", "cat", "parti"}, got)
}

func TestFilterSnowballHonorsLanguage(t *testing.T) {
	// The same surface form stems differently per language.
	es := FilterSnowball("es")
	got := terms(es(SplitBlank("corriendo gatos")))
	require.Equal(t, []string{"corr", "gat"}, got)
}

func TestFilterSnowballUnsupportedLanguageIsNoop(t *testing.T) {
	stem := FilterSnowball("tlh")
	got := terms(stem(SplitBlank("running cats")))
	require.Equal(t, []string{"running", "cats"}, got)
}

func TestFilterEdgeNgram(t *testing.T) {
	got := terms(FilterEdgeNgram(1, 3)(SplitBlank("cat")))
	require.Equal(t, []string{"c", "ca", "cat"}, got)
}

func TestFilterNgram(t *testing.T) {
	got := terms(FilterNgram(2, 2)(SplitBlank("cat")))
	require.Equal(t, []string{"ca", "at"}, got)
}

func TestAnalyzerTokenizeDefault(t *testing.T) {
	a := NewDefault()
	got := terms(a.Tokenize("Hello World"))
	require.Equal(t, []string{"hello", "world"}, got)
}

func TestResolveUnknownStagesDegradeToNoop(t *testing.T) {
	a := Resolve([]string{"bogus"}, []string{"bogus"})
	got := terms(a.Tokenize("Hello World"))
	require.Equal(t, []string{"Hello", "World"}, got)
}

func TestResolveBuildsNamedPipeline(t *testing.T) {
	a := Resolve([]string{"blank"}, []string{"lowercase", "ascii"})
	got := terms(a.Tokenize("CAFÉ"))
	require.Equal(t, []string{"cafe"}, got)
}
