package engine

import (
	"sync"
	"time"
)

// StatusCode is the safety status reported to operators.
type StatusCode string

const (
	StatusOK             StatusCode = "OK"
	StatusWaitingForCirc StatusCode = "HEATER_WAITING_FOR_CIRC"
	StatusHiLimitFault   StatusCode = "HI_LIMIT_FAULT"
	StatusNoFlowFault    StatusCode = "NO_FLOW_FAULT"
	StatusMasterShutdown StatusCode = "MASTER_SHUTDOWN"
	StatusError          StatusCode = "ERROR"
)

// Latching reports whether the code is a lock reason.
func (c StatusCode) Latching() bool {
	switch c {
	case StatusHiLimitFault, StatusNoFlowFault, StatusMasterShutdown:
		return true
	}
	return false
}

// Phase is the fault machine state.
type Phase int

const (
	PhaseNormal Phase = iota
	PhaseWaitingForFlow
	PhaseLocked
)

func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseWaitingForFlow:
		return "waiting_for_flow"
	case PhaseLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// FaultState is a point-in-time copy of the fault machine.
type FaultState struct {
	Phase          Phase      `json:"-"`
	PhaseName      string     `json:"phase"`
	FlowErrorCount int        `json:"flow_error_count"`
	Locked         bool       `json:"system_locked"`
	Status         StatusCode `json:"safety_status"`
	Message        string     `json:"message,omitempty"`
	WaitingSince   time.Time  `json:"waiting_since,omitempty"`
	LockedAt       time.Time  `json:"locked_at,omitempty"`
}

// Text renders the status as a single human-readable line.
func (s FaultState) Text() string {
	if s.Message == "" {
		return string(s.Status)
	}
	return string(s.Status) + ": " + s.Message
}

// FaultMachine tracks flow debouncing and latched faults. It is safe for
// concurrent use: the engine worker drives it, reset and master-shutdown
// commands arrive from API goroutines.
type FaultMachine struct {
	mu           sync.Mutex
	maxFailures  int
	phase        Phase
	flowErrors   int
	status       StatusCode
	message      string
	waitingSince time.Time
	lockedAt     time.Time
}

// NewFaultMachine returns a machine in Normal that locks on the
// maxFailures-th consecutive failed flow check.
func NewFaultMachine(maxFailures int) *FaultMachine {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &FaultMachine{maxFailures: maxFailures, status: StatusOK}
}

func (m *FaultMachine) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == PhaseLocked
}

// BeginFlowWait enters WaitingForFlowConfirmation when circulation has just
// been commanded on.
func (m *FaultMachine) BeginFlowWait(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseLocked {
		return
	}
	m.phase = PhaseWaitingForFlow
	m.waitingSince = now
}

// FlowCheck feeds one post-grace flow check. A success returns the machine
// to Normal and clears the counter. It reports true when this check latched
// NO_FLOW_FAULT.
func (m *FaultMachine) FlowCheck(now time.Time, flowOK bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseLocked {
		return false
	}
	if flowOK {
		m.phase = PhaseNormal
		m.flowErrors = 0
		m.waitingSince = time.Time{}
		return false
	}
	m.flowErrors++
	if m.phase != PhaseWaitingForFlow {
		m.phase = PhaseWaitingForFlow
		m.waitingSince = now
	}
	if m.flowErrors >= m.maxFailures {
		m.lockLocked(now, StatusNoFlowFault, "no flow after consecutive checks")
		return true
	}
	return false
}

// Lock latches the machine with a lock reason. It reports whether the machine
// was unlocked before the call. A later lock replaces the reason.
func (m *FaultMachine) Lock(now time.Time, code StatusCode, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.phase == PhaseLocked
	m.lockLocked(now, code, msg)
	return !was
}

func (m *FaultMachine) lockLocked(now time.Time, code StatusCode, msg string) {
	m.phase = PhaseLocked
	m.status = code
	m.message = msg
	m.lockedAt = now
}

// Reset is the only way out of Locked. It clears counter and status.
func (m *FaultMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseNormal
	m.flowErrors = 0
	m.status = StatusOK
	m.message = ""
	m.waitingSince = time.Time{}
	m.lockedAt = time.Time{}
}

// SetStatus records a non-latching status. It never overwrites a lock.
func (m *FaultMachine) SetStatus(code StatusCode, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseLocked || code.Latching() {
		return
	}
	m.status = code
	m.message = msg
}

// State returns a copy of the current state.
func (m *FaultMachine) State() FaultState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FaultState{
		Phase:          m.phase,
		PhaseName:      m.phase.String(),
		FlowErrorCount: m.flowErrors,
		Locked:         m.phase == PhaseLocked,
		Status:         m.status,
		Message:        m.message,
		WaitingSince:   m.waitingSince,
		LockedAt:       m.lockedAt,
	}
}
