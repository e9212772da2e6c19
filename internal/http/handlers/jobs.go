package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mediaforge/internal/domain"
	"mediaforge/internal/facade"
)

type referenceImage struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Prompt          string           `json:"prompt"`
	Model           string           `json:"model"`
	AspectRatio     string           `json:"aspect_ratio"`
	Resolution      string           `json:"resolution,omitempty"`
	DurationSeconds int              `json:"duration_seconds,omitempty"`
	ReferenceImages []referenceImage `json:"reference_images,omitempty"`
}

type jobResponse struct {
	JobID         string     `json:"job_id"`
	Backend       string     `json:"backend"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ArtifactCount int        `json:"artifact_count,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func toJobResponse(view *facade.JobView) jobResponse {
	job := view.Job
	return jobResponse{
		JobID:         job.ID,
		Backend:       string(view.Backend),
		Status:        string(job.Status),
		CreatedAt:     job.CreatedAt,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		ExpiresAt:     job.ExpiresAt,
		ArtifactCount: job.Result.ArtifactCount(),
		Error:         job.Error,
	}
}

// CreateImage handles POST /v1/images.
func (a *App) CreateImage(w http.ResponseWriter, r *http.Request) {
	a.create(w, r, domain.BackendImage)
}

// CreateEdit handles POST /v1/edits.
func (a *App) CreateEdit(w http.ResponseWriter, r *http.Request) {
	a.create(w, r, domain.BackendEdit)
}

// CreateVideo handles POST /v1/videos.
func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	a.create(w, r, domain.BackendVideo)
}

func (a *App) create(w http.ResponseWriter, r *http.Request, backend domain.Backend) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req := domain.Request{
		Prompt:          body.Prompt,
		Model:           body.Model,
		AspectRatio:     body.AspectRatio,
		Resolution:      body.Resolution,
		DurationSeconds: body.DurationSeconds,
	}
	for _, ref := range body.ReferenceImages {
		data, err := base64.StdEncoding.DecodeString(ref.Data)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "reference image is not valid base64")
			return
		}
		req.ReferenceImages = append(req.ReferenceImages, domain.ReferenceImage{
			MimeType: ref.MimeType,
			Data:     data,
		})
	}

	job, err := a.Facade.Create(backend, req)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, toJobResponse(&facade.JobView{Backend: backend, Job: job}))
}

// Status handles GET /v1/jobs/{id}.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	view, err := a.Facade.Status(chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, toJobResponse(view))
}

// Download handles GET /v1/jobs/{id}/artifacts/{index}.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "artifact index must be an integer")
		return
	}
	data, mediaType, err := a.Facade.Download(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		a.domainError(w, err)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// Stats handles GET /v1/stats.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Facade.Stats())
}

// Health handles GET /v1/healthz.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
