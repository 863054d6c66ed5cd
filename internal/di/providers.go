package di

import (
	"listkeeper/internal/backup/interfaces"
	"listkeeper/internal/services"
)

// provideRunner lets the scheduler drive backup cycles through the service.
func provideRunner(service services.BackupServiceInterface) interfaces.RunnerInterface {
	return service
}
