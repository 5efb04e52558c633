package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// ResponseMeta seeds a per-request metadata map that handlers render into the envelope.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Set(responseMetaKey+".start", time.Now())
		c.Next()
	}
}

// MarkCacheHit records whether the payload was served from the calendar cache.
func MarkCacheHit(c *gin.Context, hit bool) {
	if meta := Meta(c); meta != nil {
		meta["cache_hit"] = hit
	}
}

// Meta returns the request's metadata with the elapsed time stamped in, or nil when
// ResponseMeta is not installed.
func Meta(c *gin.Context) map[string]interface{} {
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if start, ok := c.Get(responseMetaKey + ".start"); ok {
		if t, ok := start.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	return meta
}
