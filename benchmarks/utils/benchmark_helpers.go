package utils

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// BenchmarkRunner provides utilities for running benchmarks with metrics collection
type BenchmarkRunner struct {
	startTime      time.Time
	endTime        time.Time
	memStatsStart  runtime.MemStats
	memStatsEnd    runtime.MemStats
	goroutineStart int
	goroutineEnd   int

	operationCount int64
	errorCount     int64

	mu sync.RWMutex
}

// NewBenchmarkRunner creates a new benchmark runner
func NewBenchmarkRunner() *BenchmarkRunner {
	return &BenchmarkRunner{}
}

// Start begins the benchmark measurement
func (br *BenchmarkRunner) Start() {
	br.mu.Lock()
	defer br.mu.Unlock()

	br.startTime = time.Now()
	br.goroutineStart = runtime.NumGoroutine()

	runtime.GC()
	runtime.ReadMemStats(&br.memStatsStart)
}

// Stop ends the benchmark measurement
func (br *BenchmarkRunner) Stop() {
	br.mu.Lock()
	defer br.mu.Unlock()

	br.endTime = time.Now()
	br.goroutineEnd = runtime.NumGoroutine()

	runtime.GC()
	runtime.ReadMemStats(&br.memStatsEnd)
}

// IncrementOperations increments the operation counter
func (br *BenchmarkRunner) IncrementOperations(count int64) {
	atomic.AddInt64(&br.operationCount, count)
}

// IncrementErrors increments the error counter
func (br *BenchmarkRunner) IncrementErrors(count int64) {
	atomic.AddInt64(&br.errorCount, count)
}

// GetResults returns the benchmark results
func (br *BenchmarkRunner) GetResults() *BenchmarkResults {
	br.mu.RLock()
	defer br.mu.RUnlock()

	duration := br.endTime.Sub(br.startTime)
	operations := atomic.LoadInt64(&br.operationCount)

	var opsPerSecond float64
	if duration.Seconds() > 0 {
		opsPerSecond = float64(operations) / duration.Seconds()
	}

	return &BenchmarkResults{
		Duration:            duration,
		Operations:          operations,
		Errors:              atomic.LoadInt64(&br.errorCount),
		OperationsPerSecond: opsPerSecond,
		MemoryAllocated:     br.memStatsEnd.TotalAlloc - br.memStatsStart.TotalAlloc,
		MemoryAllocations:   br.memStatsEnd.Mallocs - br.memStatsStart.Mallocs,
		GoroutineLeak:       br.goroutineEnd - br.goroutineStart,
	}
}

// BenchmarkResults holds the results of a benchmark run
type BenchmarkResults struct {
	Duration            time.Duration `json:"duration_ns"`
	Operations          int64         `json:"operations"`
	Errors              int64         `json:"errors"`
	OperationsPerSecond float64       `json:"operations_per_second"`
	MemoryAllocated     uint64        `json:"memory_allocated_bytes"`
	MemoryAllocations   uint64        `json:"memory_allocations"`
	GoroutineLeak       int           `json:"goroutine_leak"`
}

// String returns a human-readable representation of the results
func (br *BenchmarkResults) String() string {
	return fmt.Sprintf(
		"Duration: %v, Ops: %d, Errors: %d, Ops/sec: %.2f, Memory: %d bytes, Allocs: %d, Goroutine leak: %d",
		br.Duration, br.Operations, br.Errors, br.OperationsPerSecond,
		br.MemoryAllocated, br.MemoryAllocations, br.GoroutineLeak,
	)
}

// ConcurrentTestRunner runs workerCount workers until duration elapses
type ConcurrentTestRunner struct {
	workerCount int
	duration    time.Duration
}

// NewConcurrentTestRunner creates a new concurrent test runner
func NewConcurrentTestRunner(workerCount int, duration time.Duration) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{workerCount: workerCount, duration: duration}
}

// RunTest executes workerFunc on every worker and collects their results
func (ctr *ConcurrentTestRunner) RunTest(workerFunc func(workerID int, stopSignal <-chan struct{}) *BenchmarkResults) []*BenchmarkResults {
	stop := make(chan struct{})
	results := make(chan *BenchmarkResults, ctr.workerCount)

	var wg sync.WaitGroup
	for i := 0; i < ctr.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if result := workerFunc(workerID, stop); result != nil {
				results <- result
			}
		}(i)
	}

	time.AfterFunc(ctr.duration, func() { close(stop) })
	wg.Wait()
	close(results)

	var out []*BenchmarkResults
	for result := range results {
		out = append(out, result)
	}
	return out
}

// Aggregate sums operations and errors across worker results
func Aggregate(results []*BenchmarkResults) (operations, errors int64) {
	for _, r := range results {
		operations += r.Operations
		errors += r.Errors
	}
	return operations, errors
}

// PayloadGenerator builds request payloads for validation and dispatch benchmarks
type PayloadGenerator struct{}

// NewPayloadGenerator creates a new payload generator
func NewPayloadGenerator() *PayloadGenerator {
	return &PayloadGenerator{}
}

// ValidUserInfo is a payload every rule accepts
func (pg *PayloadGenerator) ValidUserInfo(userID string) map[string]any {
	return map[string]any{
		"userInfo": map[string]any{"userID": userID, "nickname": "bench", "faceURL": ""},
		"userID":   userID,
		"nickname": "benchmark user",
		"faceURL":  "https://example.com/avatar.png",
		"gender":   1,
	}
}

// WideGroupPayload touches many ruled fields at once
func (pg *PayloadGenerator) WideGroupPayload(groupID string) map[string]any {
	return map[string]any{
		"groupID":        groupID,
		"groupName":      "benchmark group",
		"introduction":   strings.Repeat("i", 200),
		"notification":   strings.Repeat("n", 200),
		"faceURL":        "https://example.com/group.png",
		"ownerUserID":    "owner-1",
		"groupType":      2,
		"oldOwnerUserID": "owner-1",
		"newOwnerUserID": "owner-2",
		"handleResult":   1,
		"memberUserIDs":  []any{"u1", "u2", "u3"},
	}
}

// OverlongUserID fails the max-length rule on userID
func (pg *PayloadGenerator) OverlongUserID() map[string]any {
	return map[string]any{"userID": strings.Repeat("x", 65)}
}

// BadEnumeration fails the allowed-values rule on gender
func (pg *PayloadGenerator) BadEnumeration() map[string]any {
	return map[string]any{"userID": "u1", "gender": 9}
}
