package policy

import "github.com/flux-sim/flux-sim/sim/trace"

// HintLadder tracks the highest hint level shown in one session, so hints
// only ever escalate. Not safe for concurrent use; one ladder per session.
type HintLadder struct {
	engine    *Engine
	challenge string
	level     int
}

// NewHintLadder starts a ladder for a challenge with no hint shown.
func (e *Engine) NewHintLadder(challenge string) *HintLadder {
	return &HintLadder{engine: e, challenge: challenge}
}

// Level is the highest hint level shown so far (0 for none).
func (l *HintLadder) Level() int { return l.level }

// Next returns a new hint if one above the current level is due.
func (l *HintLadder) Next(stepsSinceSuccess int, sessionAccuracy float64) (Hint, bool) {
	h, ok := l.engine.NextHint(l.challenge, stepsSinceSuccess, sessionAccuracy, l.level)
	if ok {
		l.level = h.Level
	}
	return h, ok
}

// NextFromLog derives the hint inputs from the session's event log.
func (l *HintLadder) NextFromLog(log []trace.StepRecord) (Hint, bool) {
	steps, accuracy := l.engine.SessionTelemetry(log)
	return l.Next(steps, accuracy)
}
