package enums

// RoleLookupOutcome classifies how a role lookup finished.
type RoleLookupOutcome string

const (
	RoleLookupElevated    RoleLookupOutcome = "elevated"
	RoleLookupNotElevated RoleLookupOutcome = "not_elevated"
	RoleLookupFailed      RoleLookupOutcome = "failed"
	RoleLookupStale       RoleLookupOutcome = "stale"
	RoleLookupAnonymous   RoleLookupOutcome = "anonymous"
)

func (o RoleLookupOutcome) String() string {
	return string(o)
}
