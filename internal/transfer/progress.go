package transfer

// Status is the lifecycle phase a progress event reports.
type Status string

const (
	StatusHashing     Status = "hashing"
	StatusUploading   Status = "uploading"
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
)

// Event is one progress update for a single transfer. Progress is a
// percentage in [0, 100]; for a failed transfer Message carries a
// human-readable reason. Events for one transfer arrive in non-decreasing
// Progress order.
type Event struct {
	ID       string
	Progress int64
	Status   Status
	Message  string
}

// Reporter receives progress events. Delivery is fire-and-forget: the
// engine never depends on the sink succeeding or being present.
type Reporter func(Event)

// emit delivers an event to the sink, tolerating a nil or panicking
// reporter. A broken sink must never abort a transfer.
func (e *Engine) emit(ev Event) {
	if e.report == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	e.report(ev)
}

// fail emits the terminating error event and passes the error through, so
// a UI observing only the event stream sees the same reason the caller
// receives.
func (e *Engine) fail(id string, err error) error {
	e.emit(Event{ID: id, Progress: 0, Status: StatusError, Message: err.Error()})
	return err
}
