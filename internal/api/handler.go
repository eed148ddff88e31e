// Package api serves the session entries to the display layer over HTTP.
package api

import (
	"context"
	"errors"
	"github.com/Borislavv/go-ash-urlcache/internal/repository"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"log/slog"
	"net/http"
	"time"
)

// Session is the part of the URL session the API drives.
type Session interface {
	Entries() []model.Entry
	Entry(id string) (model.Entry, bool)
	Add(ctx context.Context, entry model.Entry) model.Entry
	Remove(id string) bool
	Refresh(ctx context.Context, id string) model.Result
}

// Repository persists entries of the session owner.
type Repository interface {
	Create(ctx context.Context, userID string, e model.Entry) (model.Entry, error)
	Delete(ctx context.Context, userID, id string) error
}

type Handler struct {
	session Session
	repo    Repository
	userID  string
	logger  *slog.Logger
	now     func() time.Time
}

func NewHandler(session Session, repo Repository, userID string, logger *slog.Logger) *Handler {
	return &Handler{session: session, repo: repo, userID: userID, logger: logger, now: time.Now}
}

type createEntryRequest struct {
	ParkID    string `json:"park_id" binding:"required"`
	VisitDate string `json:"visit_date" binding:"required"`
	Notes     string `json:"notes"`
	ImagePath string `json:"image_path"`
}

// entryResponse renders a missing URL as null: the image is not displayable right now.
type entryResponse struct {
	ID        string    `json:"id"`
	ParkID    string    `json:"park_id"`
	VisitDate string    `json:"visit_date"`
	Notes     string    `json:"notes,omitempty"`
	ImagePath *string   `json:"image_path"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

type refreshResponse struct {
	Outcome string        `json:"outcome"`
	Error   string        `json:"error,omitempty"`
	Entry   entryResponse `json:"entry"`
}

func toResponse(e model.Entry) entryResponse {
	r := entryResponse{
		ID:        e.ID,
		ParkID:    e.ParkID,
		VisitDate: e.VisitDate,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}
	if e.ObjectKey != "" {
		key := e.ObjectKey
		r.ImagePath = &key
	}
	if e.URL != "" {
		url := e.URL
		r.ImageURL = &url
	}
	return r
}

func (h *Handler) ListEntries(c *gin.Context) {
	entries := h.session.Entries()
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toResponse(e))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetEntry(c *gin.Context) {
	e, ok := h.session.Entry(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(e))
}

// CreateEntry persists the entry first, then mints its image URL through the session.
func (h *Handler) CreateEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.repo.Create(c.Request.Context(), h.userID, model.Entry{
		ID:        uuid.NewString(),
		ParkID:    req.ParkID,
		VisitDate: req.VisitDate,
		Notes:     req.Notes,
		ObjectKey: req.ImagePath,
		CreatedAt: h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("failed to create entry", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create entry"})
		return
	}

	c.JSON(http.StatusCreated, toResponse(h.session.Add(c.Request.Context(), stored)))
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	id := c.Param("id")
	if err := h.repo.Delete(c.Request.Context(), h.userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		h.logger.Error("failed to delete entry", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}
	h.session.Remove(id)
	c.Status(http.StatusNoContent)
}

// RefreshEntry renews the image URL of an entry, typically after the image failed to load.
// A gateway failure is not an HTTP error: the entry comes back with its previous URL.
func (h *Handler) RefreshEntry(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.session.Entry(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	res := h.session.Refresh(c.Request.Context(), id)
	e, ok := h.session.Entry(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}

	resp := refreshResponse{Outcome: res.Outcome.String(), Entry: toResponse(e)}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
