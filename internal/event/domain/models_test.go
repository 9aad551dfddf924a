package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ModerationStatus
		want     bool
	}{
		{ModerationPending, ModerationApproved, true},
		{ModerationPending, ModerationRejected, true},
		{ModerationApproved, ModerationRejected, true},
		{ModerationRejected, ModerationApproved, true},
		{ModerationApproved, ModerationApproved, false},
		{ModerationRejected, ModerationRejected, false},
		{ModerationApproved, ModerationPending, false},
		{ModerationStatus("archived"), ModerationApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
