package readiness

const (
	percentRequesting = 10.0
	percentAccepted   = 50.0
	percentCeiling    = 90.0
	percentStep       = 0.5
	percentDone       = 100.0
)

const (
	msgChecking   = "Checking repository status..."
	msgRequesting = "Fetching repository commit data..."
	msgAccepted   = "Repository processing in progress. This may take a minute or two..."
	msgDone       = "Repository processing completed successfully!"
)

// Progress is a cosmetic progress report for a running job.
type Progress struct {
	JobID    string
	Repo     string
	Phase    Phase
	Percent  float64
	Message  string
	Attempts int
}
