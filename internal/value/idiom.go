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

package value

// PartKind discriminates an Idiom path segment. Method/Graph/Where parts belong
// to internal/expr, which evaluates expressions; value.Pick only needs
// the structural subset that walks plain data.
type PartKind int

const (
	PartField PartKind = iota
	PartIndex
	PartAll
	PartFirst
	PartLast
)

// Part is one segment of an Idiom path.
type Part struct {
	Kind  PartKind
	Field string
	Index int
}

func Field(name string) Part { return Part{Kind: PartField, Field: name} }
func Index(i int) Part       { return Part{Kind: PartIndex, Index: i} }
func All() Part              { return Part{Kind: PartAll} }
func First() Part            { return Part{Kind: PartFirst} }
func Last() Part             { return Part{Kind: PartLast} }
