// Package lifeline provides the service lifecycle controller for a
// long-running dispatch service: a periodic file-based liveness
// heartbeat that external monitors poll to detect process health, and
// a coordinated shutdown sweep that cancels every dispatch left in a
// non-terminal status before the process exits.
//
// Lifeline is designed as a library, not a service. Import it,
// configure a store, and hand the supervisor your process context.
//
// # Quick Start
//
//	store := memory.New()
//	sup, err := supervisor.New(store,
//	    supervisor.WithConfig(lifeline.Config{
//	        HeartbeatInterval: 5 * time.Second,
//	        HeartbeatFile:     "/var/run/dispatcher/heartbeat",
//	    }),
//	)
//	go sup.Run(ctx)
//
// # Architecture
//
// Two leaf components cooperate through the supervisor. The heartbeat
// emitter overwrites a single marker file with "ALIVE <timestamp>" on
// a fixed interval while the process runs. On shutdown the sweeper
// enumerates all dispatches in the must-cancel status set via
// paginated listing calls and cancels each one; only after the last
// cancellation attempt does the supervisor write the terminal
// "DEAD <timestamp>" marker. External monitors therefore never observe
// DEAD while cancellable dispatches might still be running.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package lifeline
