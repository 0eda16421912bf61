package projects

import (
	"errors"
	"fmt"

	"github.com/clipforge/backend/internal/models"
)

// ErrInvalidTransition guards against out-of-order lifecycle mutations. It is
// always surfaced to callers, never swallowed.
var ErrInvalidTransition = errors.New("invalid project status transition")

// transitions is the complete lifecycle table. video_is_ready is only ever
// entered by the reconciliation sweep; accept and request-revision are user
// actions.
var transitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.StatusNew:                {models.StatusEditInProgress, models.StatusCancelled},
	models.StatusEditInProgress:     {models.StatusVideoIsReady},
	models.StatusRevisionInProgress: {models.StatusVideoIsReady},
	models.StatusVideoIsReady:       {models.StatusAccepted, models.StatusRevisionInProgress},
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to models.ProjectStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when the table forbids
// from -> to.
func ValidateTransition(from, to models.ProjectStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status models.ProjectStatus) bool {
	return len(transitions[status]) == 0
}

// AwaitingDelivery reports whether the reconciliation sweep should watch the
// project's remote folder for a new deliverable.
func AwaitingDelivery(status models.ProjectStatus) bool {
	return status == models.StatusEditInProgress || status == models.StatusRevisionInProgress
}
