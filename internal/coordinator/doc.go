// Package coordinator keeps the authoritative view of one heater's state.
//
// A Coordinator sits between the unreliable device and its consumers. It
// holds two slots: the last successful snapshot and the currently published
// one. Every refresh cycle is one of:
//
//   - success: the new snapshot fills both slots
//   - fallback: a communication error with a cached snapshot re-publishes the
//     cached one, so consumers keep seeing stale-but-valid data
//   - failed: an API error, or a communication error before anything was
//     cached, surfaces an *UpdateFailedError
//
// Concurrent Refresh calls share one in-flight fetch. Run drives periodic
// refreshes and Subscribe fans each outcome out to any number of observers.
//
// Wrapping the fetcher in a BreakerFetcher stops polling a heater that keeps
// timing out; skipped fetches count as communication errors, so the cache is
// still served.
//
//	coord := coordinator.New(heater.NewClient(host, nil))
//	go coord.Run(ctx, 30*time.Second)
//
//	updates, cancel := coord.Subscribe()
//	defer cancel()
//	for u := range updates {
//	    ...
//	}
package coordinator
