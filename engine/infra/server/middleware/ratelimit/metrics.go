package ratelimit

// Recorder counts blocked requests. *monitoring.Service satisfies it.
type Recorder interface {
	RateLimited(route string)
}

type noopRecorder struct{}

func (noopRecorder) RateLimited(string) {}

// NoopRecorder discards every event.
var NoopRecorder Recorder = noopRecorder{}
