package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"server-profit-app/internal/pkg/generr"
	"server-profit-app/internal/pkg/util"
)

const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSign      = "X-Sign"

	timeout = 60
)

// AdminSign checks X-Sign = hex(HMAC-SHA256(secret, X-Timestamp + body)).
// Timestamps more than a minute away from now are rejected.
func AdminSign(secret string, clock clockwork.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			log.Error("admin secret not configured, rejecting admin request")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, generr.ServerError)
			return
		}

		signCode := c.GetHeader(HeaderSign)
		if signCode == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, generr.SignMiss)
			return
		}

		tUnix, err := strconv.ParseInt(c.GetHeader(HeaderTimestamp), 10, 64)
		if err != nil {
			log.Errorf("err: %+v", errors.Wrap(err, "parse timestamp"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, generr.TimestampErr)
			return
		}
		if d := clock.Now().Unix() - tUnix; d > timeout || d < -timeout {
			c.AbortWithStatusJSON(http.StatusUnauthorized, generr.TimestampOut)
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				log.Errorf("err: %+v", errors.Wrap(err, "read body"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, generr.ServerError)
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !util.SignEqual(util.GenSignCode(secret, tUnix, body), signCode) {
			log.Infof("sign not match, path: %s", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, generr.SignNotMatch)
			return
		}
		c.Next()
	}
}
