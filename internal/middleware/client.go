package middleware

import (
	"localfelo_backend/internal/clientstore"
	"localfelo_backend/internal/common"

	"github.com/gin-gonic/gin"
)

// clientIDQueryParam is accepted for websocket upgrades, which cannot set headers in browsers.
const clientIDQueryParam = "client_id"

// ClientID requires a well-formed client id and stores it in the context.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.ClientIDHeader)
		if id == "" {
			id = c.Query(clientIDQueryParam)
		}
		if !clientstore.ValidClientID(id) {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("A valid X-Client-ID header is required."))
			return
		}
		c.Set(common.ClientIDKey, id)
		c.Next()
	}
}
