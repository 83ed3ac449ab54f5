package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"blocks/internal/domain"
	"blocks/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

// Handler serves the block group query endpoints.
type Handler struct {
	blocks *service.BlockGroupService
	log    *zap.Logger
}

func NewHandler(blocks *service.BlockGroupService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{blocks: blocks, log: log}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// GET /open_api/block_group       -> one block group
	// GET /open_api/block_group/list  -> filtered, paginated block groups
	g := r.Group("/open_api/block_group")
	g.GET("", h.GetBlockGroup())
	g.GET("/list", h.ListBlockGroups())
	return r
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http: request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// locale is the locale parameter, else the Accept-Language match among
// the host languages, else the default language.
func (h *Handler) locale(ctx context.Context, c *gin.Context) string {
	if l := strings.TrimSpace(c.Query("locale")); l != "" {
		return l
	}
	def := h.blocks.DefaultLocale(ctx)
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return def
	}
	langs, err := h.blocks.ListLangs(ctx)
	if err != nil {
		h.log.Warn("http: list langs failed", zap.Error(err))
	}
	return negotiateLocale(header, langs, def)
}

// GetBlockGroup handles GET /open_api/block_group.
func (h *Handler) GetBlockGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := queryID(c, "id")
		if !ok {
			c.JSON(http.StatusNotFound, nil)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		g, err := h.blocks.GetBlockGroup(ctx, service.GetQuery{
			ID:      id,
			Slug:    queryString(c, "slug"),
			Visible: queryBool(c, "visible"),
			Locale:  h.locale(ctx, c),
		})
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, nil)
			return
		}
		if err != nil {
			h.log.Error("http: get block group failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

// ListBlockGroups handles GET /open_api/block_group/list.
func (h *Handler) ListBlockGroups() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := service.ListQuery{
			Visible: queryBool(c, "visible"),
			Title:   queryString(c, "title"),
			Limit:   queryCount(c, "limit"),
			Offset:  queryCount(c, "offset"),
			Order:   domain.Order(c.Query("order")),
		}
		if itemType := queryString(c, "itemType"); itemType != nil {
			itemID, ok := queryID(c, "itemId")
			if !ok {
				c.JSON(http.StatusNotFound, []domain.BlockGroup{})
				return
			}
			q.ItemType, q.ItemID = itemType, itemID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		q.Locale = h.locale(ctx, c)

		groups, err := h.blocks.ListBlockGroups(ctx, q)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, []domain.BlockGroup{})
			return
		}
		if err != nil {
			h.log.Error("http: list block groups failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, groups)
	}
}
