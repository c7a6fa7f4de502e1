// Package utils provides small generic helpers shared across the service.
package utils //nolint:revive // var-naming: utils is an acceptable package name for shared utilities

import "sync"

// MergeErrorChans merges multiple error channels into a single output channel.
// Nil inputs are ignored. The output channel is closed once every input is closed.
//
// Example:
//
//	merged := MergeErrorChans(httpErrs, metricsErrs)
//	for err := range merged {
//		log.Error("Listener failed", logger.ErrorField(err))
//	}
func MergeErrorChans(channels ...<-chan error) <-chan error {
	out := make(chan error)
	var wg sync.WaitGroup

	for _, ch := range channels {
		if ch == nil {
			continue
		}
		wg.Add(1)
		go func(c <-chan error) {
			defer wg.Done()
			for err := range c {
				out <- err
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
