package models

import "time"

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	IsSuccess bool      `json:"is_success"`
}
