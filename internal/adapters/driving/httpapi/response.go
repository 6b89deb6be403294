package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("encoding response: %v", err)
	}
}

// decodeJSON reads a JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

type userResponse struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{UserID: u.ID, CreatedAt: u.CreatedAt}
}

type notebookResponse struct {
	NotebookID    string    `json:"notebook_id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	DocumentCount int       `json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toNotebookResponse(n *domain.Notebook) notebookResponse {
	return notebookResponse{
		NotebookID:    n.ID,
		UserID:        n.UserID,
		Name:          n.Name,
		Description:   n.Description,
		DocumentCount: n.DocumentCount,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

type notebookListResponse struct {
	Notebooks []notebookResponse `json:"notebooks"`
	Count     int                `json:"count"`
}

type documentResponse struct {
	DocumentID       string     `json:"document_id"`
	NotebookID       string     `json:"notebook_id"`
	UserID           string     `json:"user_id"`
	Filename         string     `json:"filename"`
	FileType         string     `json:"file_type"`
	FileSize         int64      `json:"file_size"`
	ChunkCount       int        `json:"chunk_count"`
	ProcessingStatus string     `json:"processing_status"`
	ErrorMessage     *string    `json:"error_message"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at"`
}

func toDocumentResponse(d *domain.Document) documentResponse {
	return documentResponse{
		DocumentID:       d.ID,
		NotebookID:       d.NotebookID,
		UserID:           d.UserID,
		Filename:         d.Filename,
		FileType:         string(d.FileType),
		FileSize:         d.FileSize,
		ChunkCount:       d.ChunkCount,
		ProcessingStatus: string(d.Status),
		ErrorMessage:     optional(d.ErrorMessage),
		CreatedAt:        d.CreatedAt,
		ProcessedAt:      d.ProcessedAt,
	}
}

type documentListResponse struct {
	Documents []documentResponse `json:"documents"`
	Count     int                `json:"count"`
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	FileSize   int64  `json:"file_size"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

type documentStatusResponse struct {
	DocumentID       string             `json:"document_id"`
	ProcessingStatus string             `json:"processing_status"`
	ChunkCount       int                `json:"chunk_count"`
	QueueStatus      domain.StateCounts `json:"queue_status"`
	ErrorMessage     *string            `json:"error_message"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

// optional renders an empty string as JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
