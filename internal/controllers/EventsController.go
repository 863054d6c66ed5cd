package controllers

import (
	"fmt"
	"listkeeper/internal/events"
	"listkeeper/internal/providers"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const defaultHeartbeat = 30 * time.Second

// EventsController streams bus events to a client as server-sent events.
type EventsController struct {
	bus       events.BusInterface
	logger    providers.Logger
	heartbeat time.Duration
}

func NewEventsController(bus events.BusInterface, logger providers.Logger) *EventsController {
	return &EventsController{bus: bus, logger: logger, heartbeat: defaultHeartbeat}
}

func (ec *EventsController) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, err := ec.bus.Subscribe()
	if err != nil {
		ec.logger.Errorf(providers.TypeGet, "Unable to subscribe client: %s", err)
		return
	}
	defer ec.bus.Unsubscribe(sub.ID)

	if err := ec.send(w, rc, "connected", map[string]string{"id": sub.ID}); err != nil {
		return
	}

	ticker := time.NewTicker(ec.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := ec.send(w, rc, string(event.Type), event); err != nil {
				ec.logger.Debugf(providers.TypeGet, "Subscriber %s went away: %s", sub.ID, err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			if err := ec.flush(rc); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (ec *EventsController) send(w http.ResponseWriter, rc *http.ResponseController, name string, data any) error {
	gson, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, gson); err != nil {
		return err
	}
	return ec.flush(rc)
}

// flush pushes buffered output and moves the write deadline past the next heartbeat,
// so the server write timeout does not cut a long-lived stream.
func (ec *EventsController) flush(rc *http.ResponseController) error {
	if err := rc.Flush(); err != nil {
		return err
	}
	_ = rc.SetWriteDeadline(time.Now().Add(2 * ec.heartbeat))
	return nil
}
