package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/searchsync-go/internal/domain/content"
	"github.com/searchsync-go/internal/indexer"
	"github.com/searchsync-go/internal/rebuild"
	"github.com/searchsync-go/pkg/logger"
)

// Handlers exposes the sync operations over the admin API. Queries and
// writes to the search index itself stay behind the engine; these
// endpoints only trigger and observe.
type Handlers struct {
	engine      *indexer.Engine
	coordinator *rebuild.Coordinator
	logger      logger.Logger
}

func NewHandlers(engine *indexer.Engine, coordinator *rebuild.Coordinator, log logger.Logger) *Handlers {
	return &Handlers{engine: engine, coordinator: coordinator, logger: log}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// IndexItem syncs one item by id.
func (h *Handlers) IndexItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.engine.IndexItemByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		h.logger.Error("failed to index item", "itemId", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"indexed": id})
}

// DeleteItem removes one record by id.
func (h *Handlers) DeleteItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.engine.DeleteItem(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete item", "itemId", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// Rebuild runs a synchronous full rebuild. With ?atomic=true the
// rebuild populates a staging index and swaps it over the live name.
func (h *Handlers) Rebuild(c *gin.Context) {
	var (
		result indexer.RebuildResult
		err    error
	)
	if c.Query("atomic") == "true" {
		result, err = h.engine.RebuildAtomic(c.Request.Context())
	} else {
		result, err = h.engine.RebuildAll(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("rebuild failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartBackgroundRebuild starts a scheduled batch rebuild.
func (h *Handlers) StartBackgroundRebuild(c *gin.Context) {
	progress, err := h.coordinator.Start(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to start rebuild", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, progress)
}

// RebuildProgress returns the current descriptor.
func (h *Handlers) RebuildProgress(c *gin.Context) {
	progress, err := h.coordinator.Progress(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if progress == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rebuild in progress"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// CancelRebuild cancels an in-progress background rebuild.
func (h *Handlers) CancelRebuild(c *gin.Context) {
	cancelled, err := h.coordinator.Cancel(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !cancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "no cancellable rebuild"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// Stats reports live index stats.
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.IndexStats(c.Request.Context()))
}
