package models

import (
	"encoding/json"
	"sort"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{AllocPending, AllocApproved, true},
		{AllocPending, AllocRejected, true},
		{AllocPending, AllocClaimed, false},
		{AllocApproved, AllocDispatched, true},
		{AllocApproved, AllocClaimed, true},
		{AllocApproved, AllocRejected, false},
		{AllocDispatched, AllocClaimed, true},
		{AllocClaimed, AllocServed, true},
		{AllocServed, AllocPending, false},
		{AllocRejected, AllocApproved, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSourcesFor(t *testing.T) {
	got := SourcesFor(AllocClaimed)
	sort.Strings(got)
	if len(got) != 2 || got[0] != AllocApproved || got[1] != AllocDispatched {
		t.Errorf("SourcesFor(claimed) = %v, want [approved dispatched]", got)
	}
	if got := SourcesFor(AllocPending); len(got) != 0 {
		t.Errorf("SourcesFor(pending) = %v, want none", got)
	}
}

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		flow, status, want string
	}{
		{FlowAssignment, AllocApproved, "accepted"},
		{FlowAssignment, AllocClaimed, "claimed"},
		{FlowRequest, AllocClaimed, "completed"},
		{FlowRequest, AllocApproved, "approved"},
		{FlowRequest, AllocPending, "pending"},
	}
	for _, tt := range tests {
		a := Allocation{Flow: tt.flow, Status: tt.status}
		if got := a.DisplayStatus(); got != tt.want {
			t.Errorf("%s/%s: got %q, want %q", tt.flow, tt.status, got, tt.want)
		}
	}
}

func TestAllocationMarshalJSON(t *testing.T) {
	a := Allocation{Flow: FlowAssignment, Status: AllocApproved, NumberOfStudents: 12}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if m["status"] != "accepted" {
		t.Errorf("status: got %v, want accepted", m["status"])
	}
	if m["state"] != AllocApproved {
		t.Errorf("state: got %v, want %s", m["state"], AllocApproved)
	}
	if m["number_of_students"] != float64(12) {
		t.Errorf("number_of_students: got %v, want 12", m["number_of_students"])
	}
}

func TestStatusForRemaining(t *testing.T) {
	if got := StatusForRemaining(0); got != DonationReserved {
		t.Errorf("StatusForRemaining(0) = %q, want %q", got, DonationReserved)
	}
	if got := StatusForRemaining(3); got != DonationAvailable {
		t.Errorf("StatusForRemaining(3) = %q, want %q", got, DonationAvailable)
	}
}

func TestCanonicalStatus_InvertsDisplayStatus(t *testing.T) {
	for _, flow := range []string{FlowRequest, FlowAssignment} {
		for _, st := range []string{AllocPending, AllocApproved, AllocDispatched, AllocClaimed, AllocServed, AllocRejected} {
			shown := Allocation{Flow: flow, Status: st}.DisplayStatus()
			if got := CanonicalStatus(flow, shown); got != st {
				t.Errorf("%s: CanonicalStatus(%q) = %q, want %q", flow, shown, got, st)
			}
		}
	}
	if got := CanonicalStatus(FlowRequest, "accepted"); got != "accepted" {
		t.Errorf("accepted is not a request-flow word, got %q", got)
	}
}
