package wizard

import (
	"errors"
	"fmt"
)

// Step enumerates the wizard screens in their fixed forward order.
type Step int

const (
	StepAuthorityInfo Step = iota + 1
	StepListingDetails
	StepAuthorityDetails
	StepDocuments
	StepPayment
	StepConfirmation
)

const stepCount = 6

func (s Step) String() string {
	switch s {
	case StepAuthorityInfo:
		return "authority_info"
	case StepListingDetails:
		return "listing_details"
	case StepAuthorityDetails:
		return "authority_details"
	case StepDocuments:
		return "documents"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

var (
	// ErrIdentifierRequired signals that neither an MC nor a DOT number is present.
	ErrIdentifierRequired = errors.New("wizard: at least one authority identifier is required")
	// ErrListingFieldsRequired signals missing title, price, or state on the listing step.
	ErrListingFieldsRequired = errors.New("wizard: title, price and state are required")
	// ErrStepNotReachable signals a jump to a step that has not been unlocked yet.
	ErrStepNotReachable = errors.New("wizard: step not reachable")
)

// Navigator enforces the step ordering and the step-local guard predicates.
// Guards live here, in the state machine, rather than in whatever surface
// renders the wizard.
type Navigator struct {
	form    *FormStore
	current Step
	visited map[Step]bool
}

func NewNavigator(form *FormStore) *Navigator {
	return &Navigator{
		form:    form,
		current: StepAuthorityInfo,
		visited: map[Step]bool{StepAuthorityInfo: true},
	}
}

// Current returns the active step.
func (n *Navigator) Current() Step {
	return n.current
}

// Advance moves one step forward. It is a no-op at the last step and fails
// when the current step's required fields are missing.
func (n *Navigator) Advance() error {
	if n.current >= stepCount {
		return nil
	}
	if err := n.guard(n.current); err != nil {
		return err
	}
	n.current++
	n.visited[n.current] = true
	return nil
}

// Retreat moves one step back. No-op at the first step. No guard applies;
// going back never loses data.
func (n *Navigator) Retreat() {
	if n.current > StepAuthorityInfo {
		n.current--
	}
}

// JumpTo moves directly to an already-visited step, or to the immediately
// next step when its guard passes.
func (n *Navigator) JumpTo(target Step) error {
	if target < StepAuthorityInfo || target > stepCount {
		return fmt.Errorf("wizard: invalid step %d", target)
	}
	if n.visited[target] {
		n.current = target
		return nil
	}
	if target == n.current+1 {
		return n.Advance()
	}
	return ErrStepNotReachable
}

// Force sets the step without guard checks. Reserved for excursion
// reconciliation, which must be able to land the session on the payment or
// confirmation step regardless of field state.
func (n *Navigator) Force(target Step) {
	n.current = target
	n.visited[target] = true
}

func (n *Navigator) guard(s Step) error {
	snap := n.form.Get()
	switch s {
	case StepAuthorityInfo:
		if !snap.HasIdentifier() {
			return ErrIdentifierRequired
		}
	case StepListingDetails:
		if snap.Title == "" || snap.Price == "" || snap.ListState == "" {
			return ErrListingFieldsRequired
		}
	}
	return nil
}
