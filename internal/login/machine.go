package login

import "fmt"

// State is a node in the login flow. StateAuthenticated and StateRejected are
// terminal; everything else awaits a factor.
type State string

const (
	// StateStart is the implicit state before the password factor.
	StateStart State = "start"
	// StatePasswordChecked means the password factor passed and the
	// biometric factor is offered.
	StatePasswordChecked State = "password_checked"
	// StateOTPOffered means the biometric factor failed or was skipped and
	// a one-time code may be requested.
	StateOTPOffered State = "otp_offered"
	// StateOTPPending means a code was sent and the flow awaits it.
	StateOTPPending State = "otp_pending"

	StateAuthenticated State = "authenticated"
	StateRejected      State = "rejected"
)

// Terminal reports whether the state accepts no further events.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateRejected
}

// Event is an observed factor outcome fed into the machine.
type Event string

const (
	EventPasswordOK       Event = "password_ok"
	EventPasswordBad      Event = "password_bad"
	EventBiometricMatched Event = "biometric_matched"
	EventBiometricFailed  Event = "biometric_failed"
	EventBiometricSkipped Event = "biometric_skipped"
	EventOTPSent          Event = "otp_sent"
	EventOTPMatched       Event = "otp_matched"
	EventOTPFailed        Event = "otp_failed"
	EventAbandoned        Event = "abandoned"
)

// Rejection reasons. Password failures and unknown usernames share one reason
// so responses do not reveal which part was wrong.
const (
	ReasonInvalidCredentials = "invalid credentials"
	ReasonBadOTP             = "bad otp"
	ReasonCancelled          = "cancelled"
)

// Factor labels for tokens and metrics.
const (
	FactorPassword  = "password"
	FactorBiometric = "biometric"
	FactorOTP       = "otp"
)

// Machine is the pure login state machine. It holds no I/O; the service
// feeds it factor outcomes and persists the result. Value semantics: Apply
// returns the successor and leaves the receiver untouched.
type Machine struct {
	State  State
	Factor string
	Reason string
}

// NewMachine returns a machine at the start of the flow.
func NewMachine() Machine {
	return Machine{State: StateStart}
}

// Apply transitions the machine on an event. Events that are not legal in
// the current state return an error and no successor.
func (m Machine) Apply(event Event) (Machine, error) {
	if event == EventAbandoned && !m.State.Terminal() {
		m.State = StateRejected
		m.Reason = ReasonCancelled
		return m, nil
	}

	switch m.State {
	case StateStart:
		switch event {
		case EventPasswordOK:
			m.State = StatePasswordChecked
			m.Factor = FactorPassword
			return m, nil
		case EventPasswordBad:
			m.State = StateRejected
			m.Reason = ReasonInvalidCredentials
			return m, nil
		}
	case StatePasswordChecked:
		switch event {
		case EventBiometricMatched:
			m.State = StateAuthenticated
			m.Factor = FactorBiometric
			return m, nil
		case EventBiometricFailed, EventBiometricSkipped:
			m.State = StateOTPOffered
			return m, nil
		}
	case StateOTPOffered:
		if event == EventOTPSent {
			m.State = StateOTPPending
			return m, nil
		}
	case StateOTPPending:
		switch event {
		case EventOTPMatched:
			m.State = StateAuthenticated
			m.Factor = FactorOTP
			return m, nil
		case EventOTPFailed:
			m.State = StateRejected
			m.Reason = ReasonBadOTP
			return m, nil
		case EventOTPSent:
			// Re-requesting a code restarts the wait.
			return m, nil
		}
	}
	return Machine{}, fmt.Errorf("login: event %q not allowed in state %q", event, m.State)
}
