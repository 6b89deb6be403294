package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.ports.Queue.Health(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// Users

type createUserRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.ports.Users.Create(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.ports.Users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Users.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notebooks

type createNotebookRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateNotebookRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateNotebook(w http.ResponseWriter, r *http.Request) {
	var req createNotebookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	nb, err := s.ports.Notebooks.Create(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNotebookResponse(nb))
}

func (s *Server) handleListNotebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := s.ports.Notebooks.ListByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := notebookListResponse{Notebooks: make([]notebookResponse, 0, len(notebooks))}
	for i := range notebooks {
		resp.Notebooks = append(resp.Notebooks, toNotebookResponse(&notebooks[i]))
	}
	resp.Count = len(resp.Notebooks)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetNotebook(w http.ResponseWriter, r *http.Request) {
	nb, err := s.ports.Notebooks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotebookResponse(nb))
}

func (s *Server) handleUpdateNotebook(w http.ResponseWriter, r *http.Request) {
	var req updateNotebookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	nb, err := s.ports.Notebooks.Update(r.Context(), r.PathValue("id"), domain.NotebookUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotebookResponse(nb))
}

func (s *Server) handleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Notebooks.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Documents

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, uploadError(err, s.cfg.MaxUploadBytes))
		return
	}
	defer file.Close()

	if header.Size > s.cfg.MaxUploadBytes {
		s.writeError(w, r, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes))
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		s.writeError(w, r, uploadError(err, s.cfg.MaxUploadBytes))
		return
	}

	doc, err := s.ports.Documents.Upload(r.Context(), r.PathValue("id"), header.Filename, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		FileType:   string(doc.FileType),
		FileSize:   doc.FileSize,
		Status:     string(doc.Status),
		Message:    "Document queued for processing",
	})
}

// uploadError classifies a failure to read the multipart upload.
func uploadError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: upload exceeds limit of %d bytes", domain.ErrFileTooLarge, limit)
	}
	if errors.Is(err, http.ErrMissingFile) {
		return fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidInput)
	}
	return fmt.Errorf("%w: reading upload: %v", domain.ErrInvalidInput, err)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ports.Documents.ListByNotebook(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := documentListResponse{Documents: make([]documentResponse, 0, len(docs))}
	for i := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(&docs[i]))
	}
	resp.Count = len(resp.Documents)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ports.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.Documents.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, documentStatusResponse{
		DocumentID:       status.DocumentID,
		ProcessingStatus: string(status.Status),
		ChunkCount:       status.ChunkCount,
		QueueStatus:      status.Counts,
		ErrorMessage:     optional(status.ErrorMessage),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ports.Documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Query

func (s *Server) handleQueryNotebook(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, domain.ScopeNotebook)
}

func (s *Server) handleQueryUser(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, domain.ScopeUser)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request, kind domain.ScopeKind) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	topK := domain.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	scope := domain.QueryScope{Kind: kind, ID: r.PathValue("id")}
	resp, err := s.ports.Query.Query(r.Context(), scope, req.Query, topK)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Results == nil {
		resp.Results = []domain.QueryResult{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Queue

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.Queue.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
