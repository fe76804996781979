package ui

import "github.com/jonoromo/turret"

// phase is the engagement as the operator sees it, followed from the firmware's events
type phase int

const (
	phaseNone phase = iota
	phaseHoming
	phaseSearching
	phaseAiming
	phaseFiring
	phaseDone
	phaseHalted
	phaseFault
)

func (p phase) String() string {
	switch p {
	case phaseHoming:
		return "Homing"
	case phaseSearching:
		return "Searching"
	case phaseAiming:
		return "Aiming"
	case phaseFiring:
		return "Firing"
	case phaseDone:
		return "Done"
	case phaseHalted:
		return "Halted"
	case phaseFault:
		return "Camera Fault"
	default:
		fallthrough
	case phaseNone:
		return "Waiting for turret"
	}
}

// next returns the phase after e. Events that do not change the phase return p.
func (p phase) next(e turret.Event) phase {
	switch e.Msg {
	case "turret.start", "axis.init":
		return phaseHoming
	case "move.done":
		if p == phaseHoming {
			return phaseSearching
		}
		return p
	case "aim", "axis.jog":
		if p == phaseDone {
			return p
		}
		return phaseAiming
	case "fire.start":
		return phaseFiring
	case "fire.done":
		return phaseDone
	case "axis.halt", "turret.stop":
		return phaseHalted
	case "axis.resume":
		return phaseAiming
	case "camera.fault":
		return phaseFault
	case "camera.rearm":
		if p == phaseFault {
			return phaseSearching
		}
		return p
	default:
		return p
	}
}
