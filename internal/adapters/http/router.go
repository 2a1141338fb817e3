package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
	"github.com/vhsingh/jobs-qa/internal/observability/metrics"
)

type Router struct {
	service     string
	taskContext string

	answerer  ports.QuestionAnswerer
	matcher   ports.JobMatcher
	repo      ports.JobRepository
	queue     ports.MessageQueue
	extractor ports.ResumeExtractor
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	service string,
	taskContext string,
	answerer ports.QuestionAnswerer,
	matcher ports.JobMatcher,
	repo ports.JobRepository,
	queue ports.MessageQueue,
	extractor ports.ResumeExtractor,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:     service,
		taskContext: taskContext,
		answerer:    answerer,
		matcher:     matcher,
		repo:        repo,
		queue:       queue,
		extractor:   extractor,
		metrics:     m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.askQuestion)
	mux.HandleFunc("/v1/jobs", rt.listJobs)
	mux.HandleFunc("/v1/jobs/match", rt.matchJobs)
	mux.HandleFunc("/v1/jobs/", rt.getJobByDocName)
	mux.HandleFunc("/v1/corpus/refresh", rt.refreshCorpus)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question    string `json:"question"`
		TaskContext string `json:"task_context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	taskContext := req.TaskContext
	if strings.TrimSpace(taskContext) == "" {
		taskContext = rt.taskContext
	}

	validDocs, err := rt.repo.ListDocNames(r.Context())
	if err != nil {
		rt.writeError(w, r, "list documents", err)
		return
	}

	start := time.Now()
	answer, err := rt.answerer.AnswerQuestion(r.Context(), req.Question, taskContext, validDocs)
	if err != nil {
		if domain.IsKind(err, domain.ErrPlanInvalid) && rt.metrics != nil {
			rt.metrics.RecordPlanFailure(rt.service)
		}
		rt.recordQuestion(answer, start)
		rt.writeError(w, r, "answer question", err)
		return
	}
	rt.recordQuestion(answer, start)

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) recordQuestion(answer *domain.Answer, start time.Time) {
	if rt.metrics == nil || answer == nil {
		return
	}
	degraded := 0
	for _, partial := range answer.Partials {
		if partial.Degraded {
			degraded++
		}
	}
	rt.metrics.RecordQuestion(
		rt.service,
		string(answer.State),
		len(answer.Partials),
		degraded,
		answer.TotalCost,
		time.Since(start),
	)
}

func (rt *Router) listJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	jobs, err := rt.repo.ListJobs(r.Context())
	if err != nil {
		rt.writeError(w, r, "list jobs", err)
		return
	}

	type jobSummary struct {
		DocName       string `json:"doc_name"`
		JobTitle      string `json:"job_title"`
		Department    string `json:"department"`
		Location      string `json:"location"`
		WorkplaceType string `json:"workplace_type"`
	}
	summaries := make([]jobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, jobSummary{
			DocName:       job.DocName,
			JobTitle:      job.JobTitle,
			Department:    job.Department,
			Location:      job.Location,
			WorkplaceType: job.WorkplaceType,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": summaries})
}

func (rt *Router) getJobByDocName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	docName := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	if docName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "doc name is required"})
		return
	}

	job, err := rt.repo.GetByDocName(r.Context(), docName)
	if err != nil {
		rt.writeError(w, r, "get job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// matchJobs accepts either JSON {"profile_text": ..., "top_k": ...} or a
// multipart form with a "resume" PDF field.
func (rt *Router) matchJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	profileText, topK, source, err := rt.readProfile(r)
	if err != nil {
		rt.writeError(w, r, "read profile", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordMatchRequest(rt.service, source)
	}

	matches, err := rt.matcher.Match(r.Context(), profileText, topK)
	if err != nil {
		rt.writeError(w, r, "match jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (rt *Router) readProfile(r *http.Request) (profileText string, topK int, source string, err error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, formErr := r.FormFile("resume")
		if formErr != nil {
			return "", 0, "", domain.WrapError(domain.ErrInvalidInput, "read profile", formErr)
		}
		defer file.Close()

		text, extractErr := rt.extractor.Extract(r.Context(), file, header.Size)
		if extractErr != nil {
			return "", 0, "", domain.WrapError(domain.ErrInvalidInput, "extract resume", extractErr)
		}
		return text, 0, "resume_pdf", nil
	}

	var req struct {
		ProfileText string `json:"profile_text"`
		TopK        int    `json:"top_k"`
	}
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		return "", 0, "", domain.WrapError(domain.ErrInvalidInput, "read profile", decodeErr)
	}
	return req.ProfileText, req.TopK, "profile_text", nil
}

func (rt *Router) refreshCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	requestID := requestIDFromContext(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if err := rt.queue.PublishCorpusRefresh(r.Context(), requestID); err != nil {
		rt.writeError(w, r, "publish refresh", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"request_id": requestID,
		"status":     "queued",
	})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	slog.Error("request_failed",
		"request_id", requestIDFromContext(r.Context()),
		"operation", op,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, map[string]string{"error": errorMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
