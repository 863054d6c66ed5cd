package controllers

import (
	"fmt"
	"listkeeper/internal/backup/interfaces"
	"listkeeper/internal/events"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	scheduler interfaces.SchedulerInterface
	bus       events.BusInterface
	startTime time.Time
}

type healthResponse struct {
	Status           string  `json:"status"`
	Uptime           string  `json:"uptime"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	AutoBackup       bool    `json:"auto_backup"`
	AutoBackupUser   string  `json:"auto_backup_user,omitempty"`
	EventSubscribers int     `json:"event_subscribers"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	status := hc.scheduler.Status()
	resp := healthResponse{
		Status:           "ok",
		Uptime:           formatDuration(uptime),
		UptimeSeconds:    uptime.Seconds(),
		AutoBackup:       status.Running,
		EventSubscribers: hc.bus.SubscriberCount(),
	}
	if status.Config != nil {
		resp.AutoBackupUser = status.Config.Username
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(scheduler interfaces.SchedulerInterface, bus events.BusInterface) *HealthController {
	return &HealthController{
		scheduler: scheduler,
		bus:       bus,
		startTime: time.Now(),
	}
}
