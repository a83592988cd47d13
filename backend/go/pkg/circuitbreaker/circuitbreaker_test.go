package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing() (interface{}, error) { return nil, errBoom }
func succeeding() (interface{}, error) { return "ok", nil }

func TestTripsAfterFailureThreshold(t *testing.T) {
	cb := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(failing); !errors.Is(err, errBoom) {
			t.Fatalf("Execute() error = %v, want %v", err, errBoom)
		}
	}
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	if _, err := cb.Execute(succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() on open circuit = %v, want ErrCircuitOpen", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Minute)

	cb.Execute(failing)
	cb.Execute(succeeding)
	cb.Execute(failing)

	if cb.State() != Closed {
		t.Errorf("state = %v, want Closed (failures not consecutive)", cb.State())
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)

	cb.Execute(failing)
	if cb.State() != Open {
		t.Fatalf("state = %v, want Open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// First trial request after the timeout runs in half-open state.
	if _, err := cb.Execute(succeeding); err != nil {
		t.Fatalf("Execute() after timeout error = %v", err)
	}
	if cb.State() != Closed {
		t.Errorf("state = %v, want Closed after successful trial", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)

	cb.Execute(failing)
	time.Sleep(20 * time.Millisecond)

	cb.Execute(failing)
	if cb.State() != Open {
		t.Errorf("state = %v, want Open after failed trial", cb.State())
	}
}
