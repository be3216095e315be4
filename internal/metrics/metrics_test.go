package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestNilCollector(t *testing.T) {
	var c *Collector

	// Every method must be a no-op on nil, not a panic.
	c.ResolvedLiteral()
	c.ResolvedLookup()
	c.DialAttempt()
	c.DialFailure()
	c.ConnectionOpened()
	c.BytesReceived(10)
	c.BytesSent(10)
	c.ErrorOccurred("x")

	if c.DialAttempts() != 0 {
		t.Error("nil collector reported attempts")
	}
	if snap := c.Snapshot(); snap.DialAttempts != 0 {
		t.Error("nil snapshot not zero")
	}
}

func TestCounters(t *testing.T) {
	c := New()
	c.ResolvedLiteral()
	c.DialAttempt()
	c.DialAttempt()
	c.DialFailure()
	c.ConnectionOpened()
	c.BytesReceived(100)
	c.BytesSent(40)
	c.ErrorOccurred("dial timed out")

	snap := c.Snapshot()
	if snap.ResolveLiteral != 1 || snap.DialAttempts != 2 || snap.DialFailures != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.BytesIn != 100 || snap.BytesOut != 40 {
		t.Errorf("bytes = %d/%d", snap.BytesIn, snap.BytesOut)
	}
	if snap.LastErrorMsg != "dial timed out" {
		t.Errorf("last error = %q", snap.LastErrorMsg)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.DialAttempt()
				c.BytesReceived(1)
			}
		}()
	}
	wg.Wait()

	if got := c.DialAttempts(); got != 1000 {
		t.Errorf("attempts = %d, want 1000", got)
	}
}

func TestJSON(t *testing.T) {
	c := New()
	c.ConnectionOpened()

	data, err := c.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Connections != 1 {
		t.Errorf("connections = %d", snap.Connections)
	}
}
