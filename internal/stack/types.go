package stack

// Status tags a stack descriptor with the engine's view of the stack
// lifecycle. Decoded once at the engine boundary; callers branch on these
// constants, never on raw CloudFormation status strings.
type Status string

const (
	StatusCreated               Status = "CREATED"
	StatusExists                Status = "EXISTS"
	StatusExistsWithFailedState Status = "EXISTS_WITH_FAILED_STATE"
	StatusUpdated               Status = "UPDATED"
	StatusUpToDate              Status = "UP_TO_DATE"
	StatusFailed                Status = "FAILED"
)

// Descriptor is a read-only snapshot of the provisioned stack.
type Descriptor struct {
	Name        string
	ID          string
	Region      string
	Version     int
	Bucket      string
	KeyARN      string
	Status      Status
	StackStatus string
}

// StackCreated reports a successful first-time provisioning.
type StackCreated struct {
	StackID string
	Region  string
}

// StackUpdated reports a template upgrade.
type StackUpdated struct {
	PreviousVersion int
	NewVersion      int
}

// InitResult is the outcome of Init: exactly one arm is set.
type InitResult struct {
	Created *StackCreated
	Exists  *Descriptor
}

// UpdateResult is the outcome of Update: exactly one arm is set.
type UpdateResult struct {
	Updated  *StackUpdated
	UpToDate *Descriptor
}
