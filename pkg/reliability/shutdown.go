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
	"context"
	"fmt"
	"github.com/nexusdb/core/pkg/log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownHook is one step of the shutdown sequence.
type ShutdownHook func(ctx context.Context) error

// ShutdownPhase orders hooks into stages.
type ShutdownPhase int

const (
	// PhaseStopAccepting stops admitting new work.
	PhaseStopAccepting ShutdownPhase = iota
	// PhaseDrainConnections drains in-flight work.
	PhaseDrainConnections
	// PhasePersistState persists state that must survive.
	PhasePersistState
	// PhaseCloseResources releases files, stores and sockets.
	PhaseCloseResources
)

// GracefulShutdown runs registered hooks, phase by phase, when the
// process receives a termination signal.
type GracefulShutdown struct {
	mu      sync.RWMutex
	hooks   map[ShutdownPhase][]ShutdownHook
	timeout time.Duration
	done    chan struct{}
	signals chan os.Signal
}

// NewGracefulShutdown builds a shutdown manager with the given
// overall timeout.
func NewGracefulShutdown(timeout time.Duration) *GracefulShutdown {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	gs := &GracefulShutdown{
		hooks:   make(map[ShutdownPhase][]ShutdownHook),
		timeout: timeout,
		done:    make(chan struct{}),
		signals: make(chan os.Signal, 1),
	}

	// Register for termination signals.
	signal.Notify(gs.signals, syscall.SIGTERM, syscall.SIGINT)

	return gs
}

// RegisterHook adds a hook to the given phase.
func (gs *GracefulShutdown) RegisterHook(phase ShutdownPhase, hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.hooks[phase] = append(gs.hooks[phase], hook)
}

// Wait blocks until a termination signal arrives, then runs the
// shutdown sequence.
func (gs *GracefulShutdown) Wait() {
	sig := <-gs.signals
	log.Info("Received shutdown signal",
		log.String("signal", sig.String()),
		log.Component("shutdown"))
	gs.Shutdown()
}

// Shutdown runs every registered hook in phase order.
func (gs *GracefulShutdown) Shutdown() {
	gs.mu.Lock()
	select {
	case <-gs.done:
		// Already shutting down.
		gs.mu.Unlock()
		return
	default:
		close(gs.done)
	}
	gs.mu.Unlock()

	// Bound the whole sequence by the configured timeout.
	ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
	defer cancel()

	phases := []ShutdownPhase{
		PhaseStopAccepting,
		PhaseDrainConnections,
		PhasePersistState,
		PhaseCloseResources,
	}

	for _, phase := range phases {
		phaseName := gs.phaseName(phase)
		log.Info("Shutdown phase started",
			log.Phase(phaseName),
			log.Component("shutdown"))

		gs.mu.RLock()
		hooks := gs.hooks[phase]
		gs.mu.RUnlock()

		// Hooks within one phase run concurrently.
		if err := gs.executeHooks(ctx, hooks, phaseName); err != nil {
			log.Error("Shutdown phase failed",
				log.Phase(phaseName),
				log.Err(err),
				log.Component("shutdown"))
			// Later phases still run so resources get released.
		}
	}

	log.Info("Graceful shutdown completed",
		log.Component("shutdown"))
}

// executeHooks runs one phase's hooks concurrently.
func (gs *GracefulShutdown) executeHooks(ctx context.Context, hooks []ShutdownHook, phaseName string) error {
	if len(hooks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(hooks))

	for i, hook := range hooks {
		wg.Add(1)
		go func(idx int, h ShutdownHook) {
			defer wg.Done()
			defer RecoverPanic(fmt.Sprintf("shutdown-hook-%s-%d", phaseName, idx))

			if err := h(ctx); err != nil {
				errChan <- fmt.Errorf("hook %d failed: %w", idx, err)
			}
		}(i, hook)
	}

	// Wait for every hook.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(errChan)
		// Collect the errors.
		var errs []error
		for err := range errChan {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("phase %s had %d errors: %v", phaseName, len(errs), errs[0])
		}
		return nil

	case <-ctx.Done():
		return fmt.Errorf("phase %s timeout: %w", phaseName, ctx.Err())
	}
}

// phaseName names a phase for logging.
func (gs *GracefulShutdown) phaseName(phase ShutdownPhase) string {
	switch phase {
	case PhaseStopAccepting:
		return "Stop Accepting"
	case PhaseDrainConnections:
		return "Drain Connections"
	case PhasePersistState:
		return "Persist State"
	case PhaseCloseResources:
		return "Close Resources"
	default:
		return fmt.Sprintf("Unknown Phase %d", phase)
	}
}

// Done returns a channel closed as soon as shutdown starts, before any
// hook runs.
func (gs *GracefulShutdown) Done() <-chan struct{} {
	return gs.done
}

// IsShuttingDown reports whether shutdown has started.
func (gs *GracefulShutdown) IsShuttingDown() bool {
	select {
	case <-gs.done:
		return true
	default:
		return false
	}
}
