package campaign

import "errors"

var (
	// ErrNotFound indicates an unknown campaign id.
	ErrNotFound = errors.New("campaign not found")
	// ErrIndexOutOfRange indicates a step index outside [0, len(steps)).
	ErrIndexOutOfRange = errors.New("step index out of range")
	// ErrInvalidTransition indicates a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyLaunching indicates a launch is already in flight for the campaign.
	ErrAlreadyLaunching = errors.New("campaign is already launching")
	// ErrCampaignBusy indicates a mutation was attempted during a launch.
	ErrCampaignBusy = errors.New("campaign is busy launching")
	// ErrInvalidStep indicates a structurally invalid step.
	ErrInvalidStep = errors.New("invalid step")
	// ErrInvalidThrottle indicates a throttle outside the accepted range.
	ErrInvalidThrottle = errors.New("invalid throttle")
	// ErrNotLaunching indicates a launch commit without a launch in progress.
	ErrNotLaunching = errors.New("campaign is not launching")
	// ErrDuplicateID indicates a seed reused an existing campaign id.
	ErrDuplicateID = errors.New("duplicate campaign id")
)
