package poller

// Kind represents the state a job wait ended in
type Kind int

const (
	// InProgress - job is still being processed
	InProgress Kind = iota + 1
	// Succeeded - job finished, transcript available
	Succeeded
	// Failed - job reported an error
	Failed
	// TimedOut - local waiting limit reached
	TimedOut
)

var (
	kindName = map[Kind]string{InProgress: "IN_PROGRESS", Succeeded: "SUCCEEDED",
		Failed: "FAILED", TimedOut: "TIMED_OUT"}
	nameKind = map[string]Kind{"IN_PROGRESS": InProgress, "SUCCEEDED": Succeeded,
		"FAILED": Failed, "TIMED_OUT": TimedOut}
)

func (k Kind) String() string {
	return kindName[k]
}

// From returns kind from string
func From(s string) Kind {
	return nameKind[s]
}

// Outcome is the result of waiting for a recognition job
type Outcome struct {
	Kind       Kind
	Transcript string
	// Message describes failure or timeout
	Message string
	// Detail is a user facing explanation, set on timeout
	Detail string
	// Handle is the operation name, set on timeout so the caller can resume watching
	Handle string
	// StillRunning is true when the job was seen unfinished after the last attempt
	StillRunning bool
	Attempts     int
}

const (
	msgFailedPrefix = "Speech-to-Text recognition failed: "
	msgStillRunning = "Speech-to-Text recognition is still in progress but exceeded our waiting time."
	msgStillDetail  = "The audio file is being processed but is taking longer than expected. " +
		"Please try again in a few minutes or use a shorter recording."
	msgTimedOut = "Speech-to-Text recognition timed out."
)
