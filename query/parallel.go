// Copyright 2026 The EmbedDB Authors.
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

package query

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
)

// chunkResult is one worker's contribution: matches found within its
// assigned [lo, hi) row range, tagged with the chunk's position so the
// coordinator can restore ascending row order after the fan-in (spec
// §4.7: "multi-threaded execution ... merged and re-sorted by chunk
// position to preserve the externally observable order").
type chunkResult struct {
	position int
	rows     []int
}

// RunParallel partitions [0, table.Size()) into workers chunks of
// roughly equal size and scans each concurrently, honoring limit as a
// cooperative stop signal once enough matches have accumulated (spec
// §5: "a query running in worker threads respects a cooperative stop
// flag set by the coordinator when limit is met"). workers <= 1 or a
// table smaller than workers falls back to a single-threaded scan.
func (q *Query) RunParallel(workers int, limit int) ([]int, error) {
	span, _ := opentracing.StartSpanFromContext(context.Background(), "query.RunParallel")
	defer span.Finish()
	span.SetTag("workers", workers)

	n := q.table.Size()
	if workers <= 1 || n == 0 || workers > n {
		span.SetTag("fallback", true)
		return q.FindAll(0, -1, limit)
	}

	chunkSize := (n + workers - 1) / workers
	jobs := make(chan int, workers)
	results := make(chan chunkResult, workers)
	var stop stopFlag

	var wg sync.WaitGroup
	var firstErr error
	var found int
	var errMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for position := range jobs {
				if stop.isSet() {
					results <- chunkResult{position: position}
					continue
				}
				lo := position * chunkSize
				hi := lo + chunkSize
				if hi > n {
					hi = n
				}
				rows, err := q.FindAll(lo, hi, -1)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					stop.set()
				} else if limit >= 0 {
					errMu.Lock()
					found += len(rows)
					enough := found >= limit
					errMu.Unlock()
					if enough {
						stop.set()
					}
				}
				results <- chunkResult{position: position, rows: rows}
			}
		}()
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	for c := 0; c < numChunks; c++ {
		jobs <- c
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([][]int, numChunks)
	for res := range results {
		ordered[res.position] = res.rows
	}
	if firstErr != nil {
		return nil, firstErr
	}

	var out []int
	for _, rows := range ordered {
		if limit >= 0 && len(out) >= limit {
			break
		}
		for _, row := range rows {
			if limit >= 0 && len(out) >= limit {
				break
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// stopFlag is the cooperative stop signal worker goroutines poll
// between chunks; it never touches accessor state, only this counter,
// per spec §5's "those threads never touch accessor state".
type stopFlag struct {
	mu      sync.Mutex
	stopped bool
}

func (s *stopFlag) set() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *stopFlag) isSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
