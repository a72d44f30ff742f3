// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// A Handler waits for SIGINT, SIGTERM, an explicit Trigger (the REPL's
// exit command), or cancellation of the caller's context, then runs the
// registered hooks in reverse order under a timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return mgr.Dispose() })
//	go repl.Run(ctx)
//	err := h.Wait(ctx)
package shutdown
