package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/chonkit/internal/core/domain"
	"github.com/custodia-labs/chonkit/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the metadata store and, if configured, the distributed lock backend.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.lock != nil {
		if err := s.lock.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "lock backend unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoint

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleIssueToken godoc
// @Summary      Exchange the static API key for a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      tokenRequest  true  "API key"
// @Success      200      {object}  tokenResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Router       /auth/token [post]
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hash, err := s.credentials.GetAPIKeyHash(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	if !s.authAdapter.VerifyAPIKey(req.APIKey, hash) {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	token, err := s.authAdapter.IssueToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Document endpoints

type uploadRequest struct {
	Name string                `json:"name"`
	Path string                `json:"path"`
	Ext  string                `json:"ext"`
	Src  domain.DocumentSource `json:"src"`
	Data []byte                `json:"data"`
}

// handleUploadDocument godoc
// @Summary      Upload a document
// @Description  Computes the document's hash and returns the existing document if (src, path, hash) already exists.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      uploadRequest  true  "Document bytes and metadata"
// @Success      200      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Path == "" || len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "name, path, and data are required")
		return
	}
	if req.Src == "" {
		req.Src = domain.SourceLocal
	}

	doc, err := s.pipeline.Upload(r.Context(), driving.UploadInput{
		Name: req.Name,
		Path: req.Path,
		Ext:  req.Ext,
		Src:  req.Src,
		Data: req.Data,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type configureRequest struct {
	Parse *domain.ParseConfig `json:"parse,omitempty"`
	Chunk *domain.ChunkConfig `json:"chunk,omitempty"`
}

// handleConfigureDocument godoc
// @Summary      Configure a document's parse and/or chunk settings
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Document ID"
// @Param        request  body      configureRequest   true  "Configs to upsert"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /documents/{id}/configure [post]
func (s *Server) handleConfigureDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.pipeline.Configure(r.Context(), id, req.Parse, req.Chunk); err != nil {
		writeErrorForDomainErr(w, err, "failed to configure document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "configured"})
}

type previewRequest struct {
	Parse *domain.ParseConfig `json:"parse,omitempty"`
	Chunk *domain.ChunkConfig `json:"chunk,omitempty"`
}

type previewResponse struct {
	Chunks []string `json:"chunks"`
}

// handlePreviewDocument godoc
// @Summary      Preview chunking without persisting
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string           true  "Document ID"
// @Param        request  body      previewRequest   true  "Ad-hoc configs (optional, falls back to stored)"
// @Success      200      {object}  previewResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /documents/{id}/preview [post]
func (s *Server) handlePreviewDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	var req previewRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	chunks, err := s.pipeline.Preview(r.Context(), id, req.Parse, req.Chunk)
	if err != nil {
		writeErrorForDomainErr(w, err, "failed to preview document")
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Chunks: chunks})
}

type embedRequest struct {
	CollectionID string `json:"collection_id"`
}

// handleEmbedDocument godoc
// @Summary      Parse, chunk, embed, and persist a document into a collection
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string         true  "Document ID"
// @Param        request  body      embedRequest   true  "Target collection"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /documents/{id}/embed [post]
func (s *Server) handleEmbedDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CollectionID == "" {
		writeError(w, http.StatusBadRequest, "collection_id is required")
		return
	}

	if err := s.pipeline.Embed(r.Context(), id, req.CollectionID); err != nil {
		writeErrorForDomainErr(w, err, "failed to embed document")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "embedded"})
}

// handleDeleteDocument godoc
// @Summary      Delete a document, its embeddings, and its stored bytes
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing document id")
		return
	}

	if err := s.pipeline.DeleteDocument(r.Context(), id); err != nil {
		writeErrorForDomainErr(w, err, "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Collection endpoints

// handleDeleteCollection godoc
// @Summary      Delete a collection, cascading its embedding rows
// @Tags         Collections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Collection ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /collections/{id} [delete]
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing collection id")
		return
	}

	if err := s.pipeline.DeleteCollection(r.Context(), id); err != nil {
		writeErrorForDomainErr(w, err, "failed to delete collection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Search endpoint

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// handleSearch godoc
// @Summary      Search a collection
// @Description  Embeds the query text with the collection's embedder/model and returns the top k hits.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Collection ID"
// @Param        request  body      searchRequest   true  "Search query"
// @Success      200      {array}   driving.SearchHit
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /collections/{id}/search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing collection id")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K <= 0 {
		req.K = 10
	}

	hits, err := s.pipeline.Search(r.Context(), id, req.Query, req.K)
	if err != nil {
		writeErrorForDomainErr(w, err, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErrorForDomainErr maps a domain sentinel error to its HTTP status,
// falling back to 500 with fallback for anything unrecognized.
func writeErrorForDomainErr(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrAlreadyEmbedded), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConfig), errors.Is(err, domain.ErrNoChunker), errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrModelUnknown), errors.Is(err, domain.ErrOutOfRange), errors.Is(err, domain.ErrDimensionMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrParse), errors.Is(err, domain.ErrEmbedUpstream), errors.Is(err, domain.ErrVectorStoreUpstream):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusRequestTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
