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

package errs

// ControlFlow is a sum type for Break/Continue/Return signals raised
// inside FOREACH/block execution. It is carried through
// the same error-return channel as real errors so the executor doesn't
// need a second signaling path, but it is never reported to a caller
// as a failure — the nearest containing loop/block must catch it.
type ControlFlow struct {
	Signal ControlSignal
	Value  any // populated only for Return
}

type ControlSignal int

const (
	SignalBreak ControlSignal = iota
	SignalContinue
	SignalReturn
)

func (c *ControlFlow) Error() string {
	switch c.Signal {
	case SignalBreak:
		return "control flow: break"
	case SignalContinue:
		return "control flow: continue"
	case SignalReturn:
		return "control flow: return"
	default:
		return "control flow: unknown signal"
	}
}

// Break, Continue and Return build the three control-flow signals.
func Break() *ControlFlow    { return &ControlFlow{Signal: SignalBreak} }
func Continue() *ControlFlow { return &ControlFlow{Signal: SignalContinue} }
func Return(v any) *ControlFlow {
	return &ControlFlow{Signal: SignalReturn, Value: v}
}

// AsControlFlow reports whether err is a *ControlFlow signal, so the
// executor's catch sites can distinguish "stop this loop" from "this
// is a real failure that must abort the transaction".
func AsControlFlow(err error) (*ControlFlow, bool) {
	cf, ok := err.(*ControlFlow)
	return cf, ok
}
