package middleware

import (
	"errors"
	"net/http"
	"strings"

	pkgAuth "truco-service/pkg/auth"
	"truco-service/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextPlayerIDKey = "playerID"
	ContextRoomCodeKey = "roomCode"
)

// AuthRequired accepts a seat token and, when the route carries :code,
// only for that room.
func AuthRequired(signer *pkgAuth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err.Error())
			return
		}

		claims, err := signer.ParseSeatToken(token)
		if err != nil {
			abort(c, "invalid token")
			return
		}
		if code := c.Param("code"); code != "" && !strings.EqualFold(code, claims.RoomCode) {
			abort(c, "token is for another room")
			return
		}

		c.Set(ContextPlayerIDKey, claims.PlayerID)
		c.Set(ContextRoomCodeKey, claims.RoomCode)
		c.Next()
	}
}

func abort(c *gin.Context, msg string) {
	response.Error(c, http.StatusUnauthorized, msg)
	c.Abort()
}

func ExtractBearerToken(authHeader string) (string, error) {
	if strings.TrimSpace(authHeader) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
