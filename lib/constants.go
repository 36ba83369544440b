package libvmn

import (
	"errors"
	"os"
	"strconv"

	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/simul/monitor"
)

func init() {
	if v, ok := os.LookupEnv("VMN_PARALLELIZE"); ok {
		parallelize, err := strconv.ParseBool(v)
		if err == nil {
			PARALLELIZE = parallelize
		} else {
			log.Warn("Couldn't parse VMN_PARALLELIZE, using default value: ", PARALLELIZE)
		}
	}
	if v, ok := os.LookupEnv("VMN_TIME"); ok {
		TIME, _ = strconv.ParseBool(v)
	}
	if addr := os.Getenv("VMN_MONITOR"); TIME && addr != "" {
		if err := monitor.ConnectSink(addr); err != nil {
			log.Warn("Couldn't connect to monitor at", addr, ":", err)
		}
	}
}

// Global Variables
//______________________________________________________________________________________________________________________

// PARALLELIZE allows to evaluate the checks, the mix parties and long exponentiation products concurrently
var PARALLELIZE = true

// VPARALLELIZE allows to choose the level of parallelization in the vector computations
const VPARALLELIZE = 100

// TIME is true if the verification steps measure their duration. Measures go to the monitor sink at VMN_MONITOR.
var TIME = false

// StartTimer starts measurement of time
func StartTimer(name string) *monitor.TimeMeasure {
	if TIME {
		return monitor.NewTimeMeasure(name)
	}
	return nil
}

// EndTimer finishes measurement of time
func EndTimer(timer *monitor.TimeMeasure) {
	if TIME && timer != nil {
		timer.Record()
		log.Lvl1(timer.Wall.Name, "took", timer.Wall.Value, "s")
	}
}

// WaitGroupWithError is like a sync.WaitGroup, with an error channel
type WaitGroupWithError struct {
	waiter  chan error
	counter uint
}

// NewWaitGroupWithError creates a new WaitGroupWithError for the given count
func NewWaitGroupWithError(count uint) WaitGroupWithError {
	return WaitGroupWithError{
		waiter:  make(chan error, count),
		counter: count,
	}
}

// Done mark the end of a goroutine, it has to be called, even with nil error
func (wg WaitGroupWithError) Done(err error) {
	wg.waiter <- err
}

// Wait waits for all expected goroutine to finish, returning the first error encountered
func (wg WaitGroupWithError) Wait() error {
	var ret error

	for i := uint(0); i < wg.counter; i++ {
		if err := <-wg.waiter; ret == nil && err != nil {
			ret = err
		}
	}

	return ret
}

// StartParallelize starts parallelization by instanciating number of threads
func StartParallelize(nbrWg uint) WaitGroupWithError {
	return NewWaitGroupWithError(nbrWg)
}

// StartParallelizeWithInt starts parallelization by instanciating number of threads, channelling an error if nbrWg < 0
func StartParallelizeWithInt(nbrWg int) WaitGroupWithError {
	wrongArg := nbrWg < 0

	if wrongArg {
		nbrWg = 1
	}

	ret := NewWaitGroupWithError(uint(nbrWg))

	if wrongArg {
		ret.Done(errors.New("parallelization with negative number of worker"))
	}

	return ret
}

// EndParallelize waits for a number of threads to finish
func EndParallelize(wg WaitGroupWithError) error {
	return wg.Wait()
}

// Chunks returns the number of VPARALLELIZE-sized chunks needed to cover n items
func Chunks(n int) int {
	return (n + VPARALLELIZE - 1) / VPARALLELIZE
}

// ForChunks calls fn on consecutive [start, end) ranges of at most VPARALLELIZE items covering [0, n).
// The ranges run concurrently if PARALLELIZE is set; the first error is returned.
func ForChunks(n int, fn func(start, end int) error) error {
	if n >= 0 && (!PARALLELIZE || n <= VPARALLELIZE) {
		return fn(0, n)
	}

	chunks := Chunks(n)
	if n < 0 {
		chunks = n
	}
	wg := StartParallelizeWithInt(chunks)
	for c := 0; c < chunks; c++ {
		start := c * VPARALLELIZE
		end := start + VPARALLELIZE
		if end > n {
			end = n
		}
		go func(start, end int) {
			wg.Done(fn(start, end))
		}(start, end)
	}
	return EndParallelize(wg)
}
