package domain

// AuthResult is the terminal outcome of one credential gate evaluation.
// Implementations: AuthenticationSuccess, AuthenticationFailed,
// AuthenticationError, HardwareUnavailable, AuthenticationNotSet.
type AuthResult interface {
	authResult()
	Unlocked() bool
	Retryable() bool
}

type AuthenticationSuccess struct{}

type AuthenticationFailed struct{}

type AuthenticationError struct {
	Message string
}

type HardwareUnavailable struct{}

type AuthenticationNotSet struct{}

func (AuthenticationSuccess) authResult() {}
func (AuthenticationFailed) authResult()  {}
func (AuthenticationError) authResult()   {}
func (HardwareUnavailable) authResult()   {}
func (AuthenticationNotSet) authResult()  {}

func (AuthenticationSuccess) Unlocked() bool { return true }
func (AuthenticationFailed) Unlocked() bool  { return false }
func (AuthenticationError) Unlocked() bool   { return false }
func (HardwareUnavailable) Unlocked() bool   { return false }
func (AuthenticationNotSet) Unlocked() bool  { return false }

func (AuthenticationSuccess) Retryable() bool { return false }
func (AuthenticationFailed) Retryable() bool  { return true }
func (AuthenticationError) Retryable() bool   { return true }
func (HardwareUnavailable) Retryable() bool   { return false }
func (AuthenticationNotSet) Retryable() bool  { return false }

type AuthCapability string

const (
	CapabilityAvailable     AuthCapability = "available"
	CapabilityNoneEnrolled  AuthCapability = "none_enrolled"
	CapabilityNoHardware    AuthCapability = "no_hardware"
	CapabilityHWUnavailable AuthCapability = "hw_unavailable"
)
