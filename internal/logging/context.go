package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Keys under which the request middleware stores values on the gin context
const (
	KeyRequestID = "request_id"
	KeyStartTime = "start_time"
)

// routeParams are copied onto request log lines when present
var routeParams = map[string]string{
	"cameraId": "camera_id",
	"alertId":  "alert_id",
}

func withGinContext(c *gin.Context, e *zerolog.Event) *zerolog.Event {
	if c == nil {
		return e
	}
	if s := c.GetString(KeyRequestID); s != "" {
		e.Str("request_id", s)
	}
	for param, field := range routeParams {
		if v := c.Param(param); v != "" {
			e.Str(field, v)
		}
	}
	if v, ok := c.Get(KeyStartTime); ok {
		if t, ok2 := v.(time.Time); ok2 {
			e.Dur("duration", time.Since(t))
		}
	}
	return e
}

func Info(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Info()) }
func Debug(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Debug()) }
func Warn(c *gin.Context) *zerolog.Event  { return withGinContext(c, log.Warn()) }
func Error(c *gin.Context) *zerolog.Event { return withGinContext(c, log.Error()) }
