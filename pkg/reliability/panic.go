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

package reliability

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/nexusdb/core/pkg/log"
)

var (
	// PanicCounter counts every panic recovered through this package.
	PanicCounter int64
	// PanicHandler, when set, is invoked after the built-in logging for
	// every recovered panic.
	PanicHandler func(goroutineName string, panicValue interface{}, stack []byte)
)

// RecoverPanic logs and swallows a panic. Deferred by SafeGo (which
// runs the commit coordinator and the durability flush loop) and by
// each shutdown hook; the compactor's goroutine does not use it.
func RecoverPanic(goroutineName string) {
	if r := recover(); r != nil {
		atomic.AddInt64(&PanicCounter, 1)

		stack := debug.Stack()

		log.Error("Panic recovered",
			log.Goroutine(goroutineName),
			log.String("panic_value", fmt.Sprintf("%v", r)),
			log.String("stack", string(stack)),
			log.Component("panic-recovery"))

		if PanicHandler != nil {
			PanicHandler(goroutineName, r, stack)
		}
	}
}

// SafeGo starts fn on a new goroutine with panic recovery installed.
func SafeGo(name string, fn func()) {
	go func() {
		defer RecoverPanic(name)
		fn()
	}()
}

// SafeGoWithRestart starts fn on a goroutine that restarts itself
// after a panic, up to maxRestarts times (0 = unlimited).
func SafeGoWithRestart(name string, fn func(), maxRestarts int) {
	restartCount := 0

	var worker func()
	worker = func() {
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&PanicCounter, 1)
				stack := debug.Stack()

				log.Error("Panic recovered in auto-restart goroutine",
					log.Goroutine(name),
					log.Int("restart_count", restartCount),
					log.String("panic_value", fmt.Sprintf("%v", r)),
					log.String("stack", string(stack)),
					log.Component("panic-recovery"))

				if PanicHandler != nil {
					PanicHandler(name, r, stack)
				}

				restartCount++
				if maxRestarts == 0 || restartCount <= maxRestarts {
					log.Info("Restarting goroutine",
						log.Goroutine(name),
						log.Int("attempt", restartCount+1),
						log.Component("panic-recovery"))
					go worker()
				} else {
					log.Warn("Goroutine reached max restarts, not restarting",
						log.Goroutine(name),
						log.Int("max_restarts", maxRestarts),
						log.Component("panic-recovery"))
				}
			}
		}()

		fn()
	}

	go worker()
}

// GetPanicCount returns the number of panics recovered so far.
func GetPanicCount() int64 {
	return atomic.LoadInt64(&PanicCounter)
}

// ResetPanicCount zeroes the recovered-panic counter.
func ResetPanicCount() {
	atomic.StoreInt64(&PanicCounter, 0)
}

// RecoverToError converts a panic inside handler into a returned
// error, so one misbehaving statement can't take down the session
// loop driving it.
func RecoverToError(name string, handler func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&PanicCounter, 1)
			stack := debug.Stack()

			log.Error("Panic recovered in handler",
				log.Goroutine(name),
				log.String("panic_value", fmt.Sprintf("%v", r)),
				log.String("stack", string(stack)),
				log.Component("panic-recovery"))

			if PanicHandler != nil {
				PanicHandler(name, r, stack)
			}

			err = fmt.Errorf("internal error: panic recovered")
		}
	}()

	err = handler()
	return
}
