package migrate

import (
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	if err := Run("", "up"); err == nil {
		t.Fatal("Run with empty DSN: want error")
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	err := Run("postgres://localhost/app", "sideways")
	if err == nil {
		t.Fatal("Run with invalid direction: want error")
	}
	if !strings.Contains(err.Error(), "direction must be up or down") {
		t.Errorf("Run: unexpected error %v", err)
	}
}
