package research

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Acid-base/researcher/internal/report"
	"github.com/Acid-base/researcher/internal/search"
)

// RegisterRoutes mounts the research API.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/search", handleSearch(svc))
	r.Post("/process", handleProcess(svc))
	r.Post("/retrieve", handleRetrieve(svc))
	r.Post("/generate", handleGenerate(svc))
	r.Post("/workflow", handleWorkflow(svc))
	r.Get("/index-info", handleIndexInfo(svc))
}

func handleSearch(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req search.Request
		if !decode(w, r, &req) {
			return
		}
		resp, err := svc.Search(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "success",
			"query":        req.Query,
			"results":      resp.Results,
			"result_count": len(resp.Results),
		})
	}
}

type processRequest struct {
	URLs  []string `json:"urls"`
	Query string   `json:"query"`
}

func handleProcess(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req processRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.Process(r.Context(), req.URLs, req.Query, nil)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "success",
			"processed_urls": res.ProcessedURLs,
			"indexed_urls":   res.IndexedURLs,
			"indexed_chunks": res.Chunks,
			"skipped":        res.Skipped,
			"index_info":     res.IndexInfo,
		})
	}
}

type retrieveRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func handleRetrieve(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req retrieveRequest
		if !decode(w, r, &req) {
			return
		}
		results, err := svc.Retrieve(r.Context(), req.Query, req.Limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "success",
			"query":        req.Query,
			"results":      results,
			"result_count": len(results),
		})
	}
}

func handleGenerate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.Generate(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			*GenerateResult
		}{"success", res})
	}
}

func handleWorkflow(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WorkflowRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := svc.Workflow(r.Context(), req, nil)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			*WorkflowResult
		}{"success", res})
	}
}

func handleIndexInfo(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "success",
			"index_info": svc.IndexInfo(),
		})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrNoURLs), errors.Is(err, report.ErrPlaceholder):
		return http.StatusBadRequest
	case errors.Is(err, report.ErrNoContext), errors.Is(err, ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, report.ErrNoProvider), errors.Is(err, ErrNoSearch):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if errors.Is(err, report.ErrNoContext) {
		msg = "No relevant information found. Please process some URLs first."
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
