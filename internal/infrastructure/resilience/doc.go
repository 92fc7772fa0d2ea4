/*
Package resilience provides a circuit breaker for operations that fail in
runs, such as spawning a shell that is missing or misconfigured.

# Usage

	breaker := resilience.New("shell-spawn", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("breaker state changed", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	if err := breaker.Allow(); err != nil {
		return err // resilience.ErrCircuitOpen
	}
	err := spawn()
	breaker.Record(err)

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[trial ok]-> Closed
	                                                      |
	                                               [trial fails]
	                                                      v
	                                                    Open

Half-open admits one trial call at a time. A nil *Breaker admits every call.
*/
package resilience
