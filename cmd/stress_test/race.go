package main

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type result struct {
	success int64
	fail    int64
	elapsed time.Duration
}

func race(settle func(i int) error) result {
	var successCount atomic.Int64
	var failCount atomic.Int64

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := settle(i); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	return result{success: successCount.Load(), fail: failCount.Load(), elapsed: time.Since(start)}
}

// report prints the results. finalStock < 0 means it could not be observed.
func (r result) report(finalStock int64) error {
	expected := min(initialStock/quantity, int64(totalRequests))

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", r.success)
	fmt.Printf("Failed:           %d\n", r.fail)
	fmt.Printf("Duration:         %v\n", r.elapsed)
	fmt.Println("==========================================")

	var failed bool
	if r.success == expected {
		fmt.Printf("PASS: Exactly %d settlements succeeded, %d failed\n", r.success, r.fail)
	} else {
		fmt.Printf("FAIL: Expected %d successes, got %d\n", expected, r.success)
		failed = true
	}

	if finalStock >= 0 {
		fmt.Printf("Final Stock:      %d\n", finalStock)
		if want := initialStock - expected*quantity; finalStock == want {
			fmt.Printf("PASS: Stock ended at %d\n", want)
		} else {
			fmt.Printf("FAIL: Expected stock %d, got %d\n", want, finalStock)
			failed = true
		}
	}

	if failed {
		return errors.New("stress test failed")
	}
	return nil
}
