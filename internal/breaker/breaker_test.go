package breaker

import (
	"testing"
	"time"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := New(3, 30*time.Second)
	if b.State() != StateClosed {
		t.Fatalf("expected closed state, got %s", b.State())
	}
	if !b.CanExecute() {
		t.Fatal("closed breaker should permit execution")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(3, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Fatalf("breaker opened too early: %s", b.State())
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected open state after 3 failures, got %s", b.State())
	}
	if b.CanExecute() {
		t.Fatal("open breaker should reject execution during cooldown")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(3, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	if b.State() != StateClosed {
		t.Fatalf("expected closed, consecutive count should have reset: %s", b.State())
	}
}

func TestHalfOpenProbeAfterCooldown(t *testing.T) {
	b := New(1, 30*time.Second)
	current := time.Unix(1000, 0)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	if b.CanExecute() {
		t.Fatal("expected open breaker to reject")
	}

	current = current.Add(31 * time.Second)
	if !b.CanExecute() {
		t.Fatal("expected half-open probe after cooldown")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half_open, got %s", b.State())
	}
}

func TestHalfOpenSuccessCloses(t *testing.T) {
	b := New(1, time.Second)
	current := time.Unix(1000, 0)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	current = current.Add(2 * time.Second)
	if !b.CanExecute() {
		t.Fatal("expected probe to be allowed")
	}

	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Fatalf("expected closed after successful probe, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(1, time.Second)
	current := time.Unix(1000, 0)
	b.now = func() time.Time { return current }

	b.RecordFailure()
	current = current.Add(2 * time.Second)
	if !b.CanExecute() {
		t.Fatal("expected probe to be allowed")
	}

	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected reopened breaker, got %s", b.State())
	}
	if b.CanExecute() {
		t.Fatal("reopened breaker should reject until cooldown passes again")
	}
}

func TestStatusSnapshot(t *testing.T) {
	b := New(2, 10*time.Second)
	b.RecordFailure()
	b.RecordFailure()

	status := b.Status()
	if status["state"] != string(StateOpen) {
		t.Fatalf("unexpected state in status: %v", status["state"])
	}
	if status["total_failures"] != int64(2) {
		t.Fatalf("unexpected failure total: %v", status["total_failures"])
	}
	if _, ok := status["seconds_until_retry"]; !ok {
		t.Fatal("open breaker status should include seconds_until_retry")
	}
}
