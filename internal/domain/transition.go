package domain

// TransitionPolicy decides whether a status move is allowed. The default
// policy accepts any member of the status enum, matching the manual
// correction workflow the intake team relies on; stricter deployments can
// swap in the graph policy without touching callers.
type TransitionPolicy interface {
	Allowed(current, next RequestStatus) bool
}

// AllowAnyTransition permits every enum-to-enum move.
type AllowAnyTransition struct{}

func (AllowAnyTransition) Allowed(current, next RequestStatus) bool {
	return next.IsValid()
}

// StrictTransitionPolicy enforces the forward-only lifecycle graph.
type StrictTransitionPolicy struct{}

var strictTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusDraft:     {RequestStatusSubmitted, RequestStatusCancelled},
	RequestStatusSubmitted: {RequestStatusReviewing, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusReviewing: {RequestStatusAppraised, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusAppraised: {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusApproved:  {RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusCompleted: {},
	RequestStatusRejected:  {},
	RequestStatusCancelled: {},
}

func (StrictTransitionPolicy) Allowed(current, next RequestStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range strictTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// PolicyFromName maps a config value onto a policy, defaulting to free
// transitions.
func PolicyFromName(name string) TransitionPolicy {
	if name == "strict" {
		return StrictTransitionPolicy{}
	}
	return AllowAnyTransition{}
}
