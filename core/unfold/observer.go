package unfold

// Observer is notified synchronously after every completed iteration. The
// state is a private copy; observers cannot influence the run.
type Observer interface {
	OnIterationComplete(IterationState)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(IterationState)

func (f ObserverFunc) OnIterationComplete(s IterationState) { f(s) }

// Recorder keeps every state it sees. Not safe for concurrent use.
type Recorder struct {
	States []IterationState
}

func (r *Recorder) OnIterationComplete(s IterationState) { r.States = append(r.States, s) }
