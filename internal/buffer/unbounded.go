package buffer

// Unbounded creates a channel buffer that grows as needed, so producers
// (the network pipeline) never block on a slow consumer. It returns a
// write-only channel to feed data in, and a read-only channel to read
// data out.
//
// initialCap sizes the backing slice. hardLimit is a safety valve: past
// it the oldest item is dropped and onDrop (if non-nil) is told how many
// items have been lost so far. For a MUD client, dropping the oldest line
// is the least destructive recovery if the consumer is dead.
func Unbounded[T any](initialCap, hardLimit int, onDrop func(total int)) (chan<- T, <-chan T) {
	in := make(chan T, 10)
	out := make(chan T, 10)

	go func() {
		defer close(out)

		queue := make([]T, 0, initialCap)
		dropped := 0

		for {
			var next T
			var downstream chan T

			// Enable the send case only when there is data to send.
			if len(queue) > 0 {
				next = queue[0]
				downstream = out
			}

			select {
			case val, ok := <-in:
				if !ok {
					// Input closed. Flush the remaining queue, then exit.
					for _, item := range queue {
						out <- item
					}
					return
				}

				if len(queue) >= hardLimit {
					queue = queue[1:]
					dropped++
					if onDrop != nil {
						onDrop(dropped)
					}
				}

				queue = append(queue, val)

			case downstream <- next:
				queue = queue[1:]
			}
		}
	}()

	return in, out
}
