package controllers

import (
	"errors"
	"listkeeper/internal/backup"
	"listkeeper/internal/backup/interfaces"
	"listkeeper/internal/catalog"
	"listkeeper/internal/models"
	"listkeeper/internal/providers"
	"listkeeper/internal/services"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// backupWriteTimeout covers a catalog fetch (rate-limiter wait plus request timeout) and the commit.
const backupWriteTimeout = 2 * time.Minute

type ApiController struct {
	logger    providers.Logger
	service   services.BackupServiceInterface
	scheduler interfaces.SchedulerInterface
}

func NewApiController(logger providers.Logger, service services.BackupServiceInterface, scheduler interfaces.SchedulerInterface) *ApiController {
	return &ApiController{
		logger:    logger,
		service:   service,
		scheduler: scheduler,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type backupRequest struct {
	Username string `json:"username"`
}

type saveLogRequest struct {
	Message   string `json:"message"`
	IsSuccess bool   `json:"isSuccess"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var transportErr *catalog.TransportError
	switch {
	case errors.Is(err, backup.ErrNotFound), errors.Is(err, catalog.ErrIdentityNotFound):
		return http.StatusNotFound
	case errors.Is(err, backup.ErrInvalidIdentity), errors.Is(err, backup.ErrConfigInvalid):
		return http.StatusBadRequest
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (ac *ApiController) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	t := providers.GetLogTypeByRequestType(r.Method)
	if status >= http.StatusInternalServerError {
		ac.logger.Errorf(t, "%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		ac.logger.Warnf(t, "%s %s: %s", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (ac *ApiController) CreateBackup(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// The server write timeout is shorter than a catalog fetch may take.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(backupWriteTimeout))

	meta, err := ac.service.CreateBackup(r.Context(), req.Username)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (ac *ApiController) StartAutoBackup(w http.ResponseWriter, r *http.Request) {
	var cfg models.SchedulerConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	if err := ac.scheduler.Start(cfg); err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ac.scheduler.Status())
}

func (ac *ApiController) StopAutoBackup(w http.ResponseWriter, r *http.Request) {
	if err := ac.scheduler.Stop(); err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Auto-backup stopped"})
}

func (ac *ApiController) AutoBackupStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ac.scheduler.Status())
}

func (ac *ApiController) ListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := ac.service.List(r.URL.Query().Get("username"))
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (ac *ApiController) BackupStats(w http.ResponseWriter, r *http.Request) {
	st, err := ac.service.Stats(r.PathValue("id"))
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (ac *ApiController) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	file, info, err := ac.service.Open(r.PathValue("id"))
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+info.Name()+`"`)
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

func (ac *ApiController) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := ac.service.Delete(id)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	if !removed {
		ac.fail(w, r, backup.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Backup " + id + " deleted"})
}

func (ac *ApiController) LatestStats(w http.ResponseWriter, r *http.Request) {
	meta, err := ac.service.Latest(r.PathValue("username"))
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (ac *ApiController) GetLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Logs())
}

func (ac *ApiController) SaveLog(w http.ResponseWriter, r *http.Request) {
	var req saveLogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	writeJSON(w, http.StatusCreated, ac.service.SaveLog(req.Message, req.IsSuccess))
}
