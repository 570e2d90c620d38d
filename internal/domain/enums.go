package domain

// PresentationMode selects which driver owns the current card.
type PresentationMode string

const (
	PresentationModeManual   PresentationMode = "MANUAL"
	PresentationModeAutoPlay PresentationMode = "AUTOPLAY"
)

func (m PresentationMode) String() string { return string(m) }

func (m PresentationMode) IsValid() bool {
	switch m {
	case PresentationModeManual, PresentationModeAutoPlay:
		return true
	}
	return false
}

// ManualPhase is the per-card step of a user-paced session.
type ManualPhase string

const (
	ManualPhaseIdle         ManualPhase = "IDLE"
	ManualPhaseCountingDown ManualPhase = "COUNTING_DOWN"
	ManualPhaseRevealed     ManualPhase = "REVEALED"
)

func (p ManualPhase) String() string { return string(p) }

func (p ManualPhase) IsValid() bool {
	switch p {
	case ManualPhaseIdle, ManualPhaseCountingDown, ManualPhaseRevealed:
		return true
	}
	return false
}

// AutoPhase is the per-card step of an auto-play cycle. Phases only move forward.
type AutoPhase string

const (
	AutoPhaseSource       AutoPhase = "SOURCE"
	AutoPhaseTargetFirst  AutoPhase = "TARGET_FIRST"
	AutoPhaseTargetRepeat AutoPhase = "TARGET_REPEAT"
)

func (p AutoPhase) String() string { return string(p) }

func (p AutoPhase) IsValid() bool {
	switch p {
	case AutoPhaseSource, AutoPhaseTargetFirst, AutoPhaseTargetRepeat:
		return true
	}
	return false
}

// AutoPhases lists the auto-play phases in execution order.
var AutoPhases = []AutoPhase{AutoPhaseSource, AutoPhaseTargetFirst, AutoPhaseTargetRepeat}

// ResumePolicy controls how a restored session re-arms its timers.
type ResumePolicy string

const (
	// ResumePolicyResume continues the countdown from the persisted value and
	// restarts an interrupted auto-play phase from its beginning.
	ResumePolicyResume ResumePolicy = "resume"
	// ResumePolicyManual shows the restored card revealed and arms nothing.
	ResumePolicyManual ResumePolicy = "manual"
)

func (p ResumePolicy) String() string { return string(p) }

func (p ResumePolicy) IsValid() bool {
	switch p {
	case ResumePolicyResume, ResumePolicyManual:
		return true
	}
	return false
}
