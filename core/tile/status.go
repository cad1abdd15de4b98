package tile

import (
	"errors"
	"fmt"
)

// Status is the load state of a tile.
type Status int

const (
	// StatusNone is the state of a tile that has not been registered yet.
	StatusNone Status = iota
	StatusReadingScheduled
	StatusReading
	StatusDownloadScheduled
	StatusDownloading
	StatusValid
	StatusFileMissing
	StatusFileInvalid
	StatusDownloadFailed
)

var statusNames = map[Status]string{
	StatusNone:              "NONE",
	StatusReadingScheduled:  "READING_SCHEDULED",
	StatusReading:           "READING",
	StatusDownloadScheduled: "DOWNLOAD_SCHEDULED",
	StatusDownloading:       "DOWNLOADING",
	StatusValid:             "VALID",
	StatusFileMissing:       "FILE_MISSING",
	StatusFileInvalid:       "FILE_INVALID",
	StatusDownloadFailed:    "DOWNLOAD_FAILED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus parses the upper-case status name, e.g. "FILE_MISSING".
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusNone, fmt.Errorf("unknown tile status %q", name)
}

// IsTerminal reports whether no further progress happens without an explicit reset.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusValid, StatusFileMissing, StatusFileInvalid, StatusDownloadFailed:
		return true
	default:
		return false
	}
}

// Event drives a tile through its state machine.
type Event int

const (
	EventScheduleRead Event = iota
	EventStartRead
	EventReadSucceeded
	EventReadFailed
	EventScheduleDownload
	EventStartDownload
	EventDownloadSucceeded
	EventDownloadFailed
	EventMissing
)

var eventNames = [...]string{
	EventScheduleRead:      "schedule-read",
	EventStartRead:         "start-read",
	EventReadSucceeded:     "read-succeeded",
	EventReadFailed:        "read-failed",
	EventScheduleDownload:  "schedule-download",
	EventStartDownload:     "start-download",
	EventDownloadSucceeded: "download-succeeded",
	EventDownloadFailed:    "download-failed",
	EventMissing:           "missing",
}

func (e Event) String() string {
	if int(e) >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ErrIllegalTransition is returned when an event is not accepted in the current status.
var ErrIllegalTransition = errors.New("illegal tile status transition")

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusNone, EventScheduleRead}:     StatusReadingScheduled,
	{StatusNone, EventScheduleDownload}: StatusDownloadScheduled,
	{StatusNone, EventMissing}:          StatusFileMissing,

	{StatusReadingScheduled, EventStartRead}:  StatusReading,
	{StatusReadingScheduled, EventReadFailed}: StatusFileInvalid,
	{StatusReading, EventReadSucceeded}:       StatusValid,
	{StatusReading, EventReadFailed}:          StatusFileInvalid,

	// Fetchers are not required to report a start before the outcome.
	{StatusDownloadScheduled, EventStartDownload}:     StatusDownloading,
	{StatusDownloadScheduled, EventDownloadSucceeded}: StatusReadingScheduled,
	{StatusDownloadScheduled, EventDownloadFailed}:    StatusDownloadFailed,
	{StatusDownloading, EventDownloadSucceeded}:       StatusReadingScheduled,
	{StatusDownloading, EventDownloadFailed}:          StatusDownloadFailed,
}

// Transition returns the status reached by applying e to s.
func (s Status) Transition(e Event) (Status, error) {
	next, ok := transitions[transitionKey{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, e, s)
	}
	return next, nil
}
