package models

import (
	"errors"
	"fmt"
)

// CaseStatus is the lifecycle state of a case
type CaseStatus string

const (
	StatusFiled     CaseStatus = "Filed"
	StatusAdmission CaseStatus = "Admission"
	StatusHearing   CaseStatus = "Hearing"
	StatusAdjourned CaseStatus = "Adjourned"
	StatusReserved  CaseStatus = "Reserved"
	StatusAllowed   CaseStatus = "Allowed"
	StatusDismissed CaseStatus = "Dismissed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []CaseStatus{
	StatusFiled, StatusAdmission, StatusHearing, StatusAdjourned,
	StatusReserved, StatusAllowed, StatusDismissed,
}

// InitialStatus is the only state a new case may start in.
const InitialStatus = StatusFiled

// transitions is the complete adjacency table. Edges not listed here are illegal.
var transitions = map[CaseStatus][]CaseStatus{
	StatusFiled:     {StatusAdmission},
	StatusAdmission: {StatusHearing},
	StatusHearing:   {StatusAdjourned, StatusReserved, StatusAllowed, StatusDismissed},
	StatusAdjourned: {StatusHearing, StatusReserved, StatusAllowed, StatusDismissed},
	StatusReserved:  {StatusAllowed, StatusDismissed},
	StatusAllowed:   nil,
	StatusDismissed: nil,
}

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a rejected status change.
type TransitionError struct {
	From CaseStatus
	To   CaseStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move case from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func (s CaseStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s CaseStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Next returns the statuses reachable from s in one step.
func (s CaseStatus) Next() []CaseStatus {
	return append([]CaseStatus(nil), transitions[s]...)
}

// CanTransitionTo reports whether s -> to is an edge of the table.
func (s CaseStatus) CanTransitionTo(to CaseStatus) bool {
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a *TransitionError when from -> to is not allowed.
func CheckTransition(from, to CaseStatus) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// ParseCaseStatus rejects anything outside the enumeration.
func ParseCaseStatus(s string) (CaseStatus, error) {
	st := CaseStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown case status %q", s)
	}
	return st, nil
}

// TransitionPath returns the shortest sequence of statuses leading from
// from to to, excluding from itself. ok is false when to is unreachable.
func TransitionPath(from, to CaseStatus) (path []CaseStatus, ok bool) {
	if from == to {
		return nil, true
	}
	prev := map[CaseStatus]CaseStatus{from: ""}
	queue := []CaseStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range transitions[cur] {
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if n == to {
				for s := to; s != from; s = prev[s] {
					path = append([]CaseStatus{s}, path...)
				}
				return path, true
			}
			queue = append(queue, n)
		}
	}
	return nil, false
}
