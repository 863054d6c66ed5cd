package internal

import (
	"listkeeper/internal/controllers"
	"listkeeper/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController, eventsController *controllers.EventsController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/backup", http.HandlerFunc(apiController.CreateBackup))
	routers.Post("/auto-backup", http.HandlerFunc(apiController.StartAutoBackup))
	routers.Post("/stop-auto-backup", http.HandlerFunc(apiController.StopAutoBackup))
	routers.Get("/auto-backup-status", http.HandlerFunc(apiController.AutoBackupStatus))
	routers.Get("/backups", http.HandlerFunc(apiController.ListBackups))
	routers.Get("/backup/{id}/stats", http.HandlerFunc(apiController.BackupStats))
	routers.Get("/backup/{id}/download", http.HandlerFunc(apiController.DownloadBackup))
	routers.Delete("/backup/{id}", http.HandlerFunc(apiController.DeleteBackup))
	routers.Get("/users/{username}/latest", http.HandlerFunc(apiController.LatestStats))
	routers.Get("/logs", http.HandlerFunc(apiController.GetLogs))
	routers.Post("/save-log", http.HandlerFunc(apiController.SaveLog))
	routers.Get("/events", http.HandlerFunc(eventsController.Stream))
	return routers
}
