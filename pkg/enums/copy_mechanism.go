package enums

// CopyMechanism names the clipboard path that acknowledged a copy.
type CopyMechanism string

const (
	CopyMechanismPrimary  CopyMechanism = "primary"
	CopyMechanismFallback CopyMechanism = "fallback"
)

func (m CopyMechanism) String() string {
	return string(m)
}
