package service

// sendLatest delivers v on a buffered channel without blocking, dropping
// the stale undelivered value if the consumer has not caught up. Every
// value sent through these streams is a complete snapshot, so only the
// newest one matters.
func sendLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
