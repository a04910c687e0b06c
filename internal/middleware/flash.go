package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

// Flash is a one-shot message shown on the next page
type Flash struct {
	Level   string `json:"level"` // success, info, error
	Message string `json:"message"`
}

// AddFlash queues a message for the next response
func AddFlash(c *gin.Context, level, message string) {
	flashes := append(readFlashes(c), Flash{Level: level, Message: message})
	data, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	c.Set(flashCookie, flashes)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(data), 0, "/", "", false, true)
}

// PopFlashes returns and clears the queued messages
func PopFlashes(c *gin.Context) []Flash {
	flashes := readFlashes(c)
	if len(flashes) > 0 {
		c.Set(flashCookie, []Flash{})
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	}
	if flashes == nil {
		flashes = []Flash{}
	}
	return flashes
}

// readFlashes prefers messages added during this request over the cookie
func readFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(flashCookie); ok {
		if f, ok := v.([]Flash); ok {
			return f
		}
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}
