// Package events fans lifecycle notifications out to live observers.
package events

import "time"

type Type string

const (
	SnapshotCreated  Type = "snapshot.created"
	SnapshotDeleted  Type = "snapshot.deleted"
	LogAppended      Type = "log.appended"
	SchedulerStarted Type = "scheduler.started"
	SchedulerStopped Type = "scheduler.stopped"
)

type Event struct {
	Type Type        `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`
}

func New(t Type, data interface{}) Event {
	return Event{Type: t, Time: time.Now().UTC(), Data: data}
}

// DeletedPayload is the body of a snapshot.deleted event.
type DeletedPayload struct {
	ID string `json:"id"`
}
