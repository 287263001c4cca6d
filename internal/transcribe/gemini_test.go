package transcribe

import (
	"context"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

// pollGemini builds a Gemini with instant sleeps and a scripted clock.
func pollGemini(timeout time.Duration) (*Gemini, *[]time.Duration) {
	var sleeps []time.Duration
	clock := time.Unix(0, 0)

	g := &Gemini{
		readyTimeout: timeout,
		sleep: func(d time.Duration) {
			sleeps = append(sleeps, d)
			clock = clock.Add(d)
		},
	}
	g.now = func() time.Time { return clock }
	return g, &sleeps
}

// TestWaitForFileActiveBackoff verifies the 1s base delay grows by 1.5x
// and caps at 5s until the file becomes active.
func TestWaitForFileActiveBackoff(t *testing.T) {
	g, sleeps := pollGemini(120 * time.Second)

	polls := 0
	stat := func(context.Context, string) (genai.FileState, error) {
		polls++
		if polls < 8 {
			return genai.FileStateProcessing, nil
		}
		return genai.FileStateActive, nil
	}

	if err := g.waitForFileActive(context.Background(), stat, "files/abc"); err != nil {
		t.Fatalf("wait: %v", err)
	}

	want := []time.Duration{
		1 * time.Second,
		1500 * time.Millisecond,
		2250 * time.Millisecond,
		3375 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	if len(*sleeps) != len(want) {
		t.Fatalf("slept %d times, want %d", len(*sleeps), len(want))
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Fatalf("sleep[%d] = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
}

// TestWaitForFileActiveFailedState verifies FAILED aborts immediately.
func TestWaitForFileActiveFailedState(t *testing.T) {
	g, sleeps := pollGemini(120 * time.Second)

	stat := func(context.Context, string) (genai.FileState, error) {
		return genai.FileStateFailed, nil
	}
	err := g.waitForFileActive(context.Background(), stat, "files/abc")
	if err == nil || !strings.Contains(err.Error(), "failed or timed out") {
		t.Fatalf("err = %v, want failure", err)
	}
	if len(*sleeps) != 0 {
		t.Fatal("should not sleep after a FAILED state")
	}
}

// TestWaitForFileActiveDeadline verifies the maximum wait duration.
func TestWaitForFileActiveDeadline(t *testing.T) {
	g, _ := pollGemini(10 * time.Second)

	stat := func(context.Context, string) (genai.FileState, error) {
		return genai.FileStateProcessing, nil
	}
	err := g.waitForFileActive(context.Background(), stat, "files/abc")
	if err == nil || !strings.Contains(err.Error(), "failed or timed out") {
		t.Fatalf("err = %v, want timeout", err)
	}
}
