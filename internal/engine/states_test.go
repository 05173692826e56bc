package engine

import (
	"testing"

	"pipeyard-storage-api-server/internal/models"
)

func TestRequestTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.RequestStatusPending, models.RequestStatusApproved, true},
		{models.RequestStatusPending, models.RequestStatusRejected, true},
		{models.RequestStatusApproved, models.RequestStatusPending, false},
		{models.RequestStatusApproved, models.RequestStatusRejected, false},
		{models.RequestStatusRejected, models.RequestStatusApproved, false},
		{"", models.RequestStatusApproved, false},
	}
	for _, c := range cases {
		if got := CanTransitionRequest(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionRequest(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestLoadTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.LoadStatusNew, models.LoadStatusApproved, true},
		{models.LoadStatusNew, models.LoadStatusRejected, true},
		{models.LoadStatusApproved, models.LoadStatusInTransit, true},
		{models.LoadStatusInTransit, models.LoadStatusCompleted, true},
		// Không được nhảy cóc hay đi lùi.
		{models.LoadStatusNew, models.LoadStatusInTransit, false},
		{models.LoadStatusNew, models.LoadStatusCompleted, false},
		{models.LoadStatusApproved, models.LoadStatusNew, false},
		{models.LoadStatusInTransit, models.LoadStatusApproved, false},
		{models.LoadStatusCompleted, models.LoadStatusInTransit, false},
		{models.LoadStatusRejected, models.LoadStatusApproved, false},
	}
	for _, c := range cases {
		if got := CanTransitionLoad(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionLoad(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalLoadStatus(t *testing.T) {
	terminal := map[string]bool{
		models.LoadStatusNew:       false,
		models.LoadStatusApproved:  false,
		models.LoadStatusInTransit: false,
		models.LoadStatusCompleted: true,
		models.LoadStatusRejected:  true,
	}
	for status, want := range terminal {
		if got := IsTerminalLoadStatus(status); got != want {
			t.Errorf("IsTerminalLoadStatus(%q) = %v, want %v", status, got, want)
		}
	}
}
