package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type imageSearchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type imageSearchResponse struct {
	URLs []string `json:"urls"`
}

func (a *App) ImagesSearch(w http.ResponseWriter, r *http.Request) {
	var req imageSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		a.error(w, http.StatusBadRequest, "query is required")
		return
	}

	urls, err := a.Images.Search(r.Context(), req.Query, req.Count)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, imageSearchResponse{URLs: urls})
}

type imageDownloadRequest struct {
	URL string `json:"url"`
}

// ImagesDownload proxies a single image fetch and streams the raw bytes
// back to the caller.
func (a *App) ImagesDownload(w http.ResponseWriter, r *http.Request) {
	var req imageDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		a.error(w, http.StatusBadRequest, "url is required")
		return
	}

	body, err := a.Downloads.Fetch(r.Context(), req.URL)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
