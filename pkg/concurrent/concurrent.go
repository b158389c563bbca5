package concurrent

import (
	"golang.org/x/sync/errgroup"
)

// Chunks splits [0, n) into at most workers contiguous half-open ranges of
// near-equal size. It returns nil when n <= 0.
func Chunks(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	out := make([][2]int, 0, workers)
	size, rest := n/workers, n%workers
	lo := 0
	for w := 0; w < workers; w++ {
		hi := lo + size
		if w < rest {
			hi++
		}
		out = append(out, [2]int{lo, hi})
		lo = hi
	}
	return out
}

// ForEachChunk runs action over contiguous chunks of [0, n) using at most
// workers goroutines. It waits for all chunks and returns the first error.
// With a single chunk the action runs on the calling goroutine.
func ForEachChunk(n, workers int, action func(lo, hi int) error) error {
	chunks := Chunks(n, workers)
	switch len(chunks) {
	case 0:
		return nil
	case 1:
		return action(chunks[0][0], chunks[0][1])
	}

	var group errgroup.Group
	group.SetLimit(len(chunks))
	for _, c := range chunks {
		c := c
		group.Go(func() error {
			return action(c[0], c[1])
		})
	}
	return group.Wait()
}
