package adaptor

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponyo877/pairchat/server/domain"
	"github.com/rs/zerolog/log"
)

type HTTPAdaptor struct {
	session SessionUsecase
	media   MediaUsecase
	ws      http.Handler
}

func NewHTTPAdaptor(session SessionUsecase, media MediaUsecase, ws http.Handler) *HTTPAdaptor {
	return &HTTPAdaptor{session: session, media: media, ws: ws}
}

func (a *HTTPAdaptor) Router() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger())
	router.Use(gin.CustomRecovery(handlePanics()))

	router.GET("/up", a.up)
	router.GET("/stats", a.stats)
	router.GET("/temp/:filename", a.image)
	if a.ws != nil {
		router.GET("/ws", gin.WrapH(a.ws))
	}
	return router
}

func (a *HTTPAdaptor) up(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (a *HTTPAdaptor) stats(c *gin.Context) {
	pairing := a.session.Stats()
	media := a.media.Stats()
	c.JSON(http.StatusOK, gin.H{
		"connections": pairing.Connections,
		"waiting":     pairing.Waiting,
		"rooms":       pairing.Rooms,
		"images":      media.Images,
		"imageBytes":  media.Bytes,
	})
}

func (a *HTTPAdaptor) image(c *gin.Context) {
	setNoCache(c)
	filename := c.Param("filename")
	img, err := a.media.Serve(c.Request.Context(), filename)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("file", filename).Msg("failed to read image")
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Image expired or not found"})
		return
	}
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func setNoCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("remote", c.ClientIP()).
			Msg("http request")
	}
}

func handlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
