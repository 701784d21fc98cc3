// ABOUTME: Player state machine
// ABOUTME: Stopped, Playing and Paused with explicit transitions only
package dynwave

// State is the playback state of a Player.
//
//	Stopped --Play--> Playing   start the device stream
//	Playing --Pause-> Paused    callback emits silence, buffer kept
//	Paused  --Play--> Playing   callback drains the buffer again
//	Playing/Paused --Stop--> Stopped   stop stream, clear buffer, reset ratio
//	any     --Queue-> unchanged buffer accumulates
//
// Requests for the current state are no-ops.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// callback modes read by the render function
const (
	modeSilence uint32 = iota
	modeDrain
)
