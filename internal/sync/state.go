package sync

// State names the position of one account in the pipeline. Every account
// walks the states in order; Aborted is terminal, entered when
// authentication, either listing, or staging preparation fails for that
// account.
type State string

const (
	StateIdle           State = "idle"
	StateAuthenticating State = "authenticating"
	StateListingRemote  State = "listing_remote"
	StateListingLocal   State = "listing_local"
	StateReconciling    State = "reconciling"
	StateDownloading    State = "downloading"
	StateImporting      State = "importing"
	StateCleaningUp     State = "cleaning_up"
	StateDone           State = "done"
	StateAborted        State = "aborted"
)

// AccountResult records the outcome of one account's pass through the
// pipeline.
type AccountResult struct {
	Nickname   string
	State      State
	Strategy   string
	Remote     int
	Local      int
	Planned    int
	Downloaded int
	Failed     int
	Imported   bool
	Err        error
}

// Succeeded reports whether the account reached Done.
func (r AccountResult) Succeeded() bool { return r.State == StateDone }

// Report aggregates every account's outcome for one run.
type Report struct {
	RunID   string
	Results []AccountResult
}

// Failed reports whether any account aborted.
func (r Report) Failed() bool {
	for _, result := range r.Results {
		if !result.Succeeded() {
			return true
		}
	}
	return false
}
