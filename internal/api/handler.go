package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bulkmail/internal/db"
	"bulkmail/internal/models"
	"bulkmail/internal/recipients"
)

// maxUploadBytes bounds the in-memory portion of a recipient file upload.
const maxUploadBytes = 10 << 20

type TemplateStore interface {
	CreateTemplate(ctx context.Context, name, subject, body string) (*models.EmailTemplate, error)
	GetTemplate(ctx context.Context, id int64) (*models.EmailTemplate, error)
	ListTemplates(ctx context.Context) ([]models.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, id int64, name, subject, body string) (*models.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, id int64) error
}

type LogStore interface {
	ListLogs(ctx context.Context) ([]models.EmailLog, error)
	DeleteLogs(ctx context.Context, ids []int64) (int64, error)
}

// BulkRunner drives one bulk send run over one file against one template.
type BulkRunner interface {
	Run(ctx context.Context, templateID int64, file io.Reader, fileName string) (models.Summary, error)
}

type Handler struct {
	Templates TemplateStore
	Logs      LogStore
	Runner    BulkRunner
	Log       *zap.Logger
}

func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/templates", h.ListTemplates).Methods("GET")
	r.HandleFunc("/api/templates", h.CreateTemplate).Methods("POST")
	r.HandleFunc("/api/templates/{id:[0-9]+}", h.GetTemplate).Methods("GET")
	r.HandleFunc("/api/templates/{id:[0-9]+}", h.UpdateTemplate).Methods("PUT")
	r.HandleFunc("/api/templates/{id:[0-9]+}", h.DeleteTemplate).Methods("DELETE")
	r.HandleFunc("/api/send", h.SendBulk).Methods("POST")
	r.HandleFunc("/api/logs", h.ListLogs).Methods("GET")
	r.HandleFunc("/api/logs/delete", h.DeleteLogs).Methods("POST")

	return r
}

type templateRequest struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (req *templateRequest) validate() error {
	if req.Name == "" || req.Subject == "" || req.Body == "" {
		return errors.New("fields 'name', 'subject' and 'body' are required")
	}
	return nil
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.ListTemplates(r.Context())
	if err != nil {
		h.Log.Error("failed to list templates", zap.Error(err))
		errorResponse(w, "Internal server error fetching templates", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusOK, "Email templates retrieved", templates)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpl, err := h.Templates.CreateTemplate(r.Context(), req.Name, req.Subject, req.Body)
	if err != nil {
		h.Log.Error("failed to create template", zap.Error(err))
		errorResponse(w, "Internal server error creating template", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusCreated, "Email template created", tmpl)
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	tmpl, err := h.Templates.GetTemplate(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		errorResponse(w, "Email template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("failed to fetch template", zap.Int64("id", id), zap.Error(err))
		errorResponse(w, "Internal server error fetching template", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusOK, "Email template retrieved", tmpl)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmpl, err := h.Templates.UpdateTemplate(r.Context(), id, req.Name, req.Subject, req.Body)
	if errors.Is(err, db.ErrNotFound) {
		errorResponse(w, "Email template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("failed to update template", zap.Int64("id", id), zap.Error(err))
		errorResponse(w, "Internal server error updating template", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusOK, "Email template updated", tmpl)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	err := h.Templates.DeleteTemplate(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		errorResponse(w, "Email template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("failed to delete template", zap.Int64("id", id), zap.Error(err))
		errorResponse(w, "Internal server error deleting template", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusOK, "Email template deleted", nil)
}

// SendBulk accepts a multipart form with a template_id field and a file
// upload, and runs the whole batch synchronously before responding.
func (h *Handler) SendBulk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		errorResponse(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	templateID, err := strconv.ParseInt(r.FormValue("template_id"), 10, 64)
	if err != nil {
		errorResponse(w, "Field 'template_id' must be an integer", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errorResponse(w, "A recipient file upload named 'file' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	summary, err := h.Runner.Run(r.Context(), templateID, file, header.Filename)
	if err != nil {
		h.handleRunError(w, templateID, err)
		return
	}

	successResponse(w, http.StatusOK,
		fmt.Sprintf("Bulk email process completed. Success: %d, Failed: %d",
			summary.SuccessCount, summary.ErrorCount),
		summary)
}

// handleRunError maps the pre-loop failure taxonomy to HTTP statuses. By the
// time any of these fire, no email has been sent and no log written.
func (h *Handler) handleRunError(w http.ResponseWriter, templateID int64, err error) {
	var malformed *recipients.MalformedInputError
	var schema *recipients.SchemaError

	switch {
	case errors.Is(err, db.ErrNotFound):
		errorResponse(w, "Email template not found", http.StatusNotFound)
	case errors.As(err, &malformed), errors.As(err, &schema):
		errorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		h.Log.Error("bulk send failed", zap.Int64("template_id", templateID), zap.Error(err))
		errorResponse(w, "Internal server error running bulk send", http.StatusInternalServerError)
	}
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logs.ListLogs(r.Context())
	if err != nil {
		h.Log.Error("failed to list email logs", zap.Error(err))
		errorResponse(w, "Internal server error fetching logs", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusOK, "Email logs retrieved", logs)
}

type deleteLogsRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *Handler) DeleteLogs(w http.ResponseWriter, r *http.Request) {
	var req deleteLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	deleted, err := h.Logs.DeleteLogs(r.Context(), req.IDs)
	if err != nil {
		h.Log.Error("failed to delete email logs", zap.Error(err))
		errorResponse(w, "Internal server error deleting logs", http.StatusInternalServerError)
		return
	}

	successResponse(w, http.StatusOK,
		fmt.Sprintf("Successfully deleted %d log(s)", deleted),
		map[string]int64{"deleted": deleted})
}

// pathID reads the {id} route variable. The route pattern guarantees digits.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}
