package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireRoles adapts the net/http role guard to Gin. Auth and
// authorization decisions stay in the shared guard; this only bridges
// the handler chains.
func GinRequireRoles(g *Guard, cfg GuardConfig) gin.HandlerFunc {
	mw := g.RequireRoles(cfg)
	return func(c *gin.Context) {
		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		handler := mw(next)
		handler.ServeHTTP(c.Writer, c.Request)

		// If the guard already handled the response, stop Gin chain
		if c.Writer.Written() {
			c.Abort()
			return
		}
	}
}

// GinRequireAuth enforces a valid session with no role restriction.
func GinRequireAuth(g *Guard) gin.HandlerFunc {
	return GinRequireRoles(g, GuardConfig{})
}
