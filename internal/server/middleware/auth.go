package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/auth"
	"github.com/mamadbah2/waterbill/internal/domain/models"
)

const subjectKey = "subject"

// RequireSubject verifies the Bearer ID token and stores the resulting subject
// in the request context. The first verified request of a subject signs it in.
// With a fallback verifier the header may be omitted.
func RequireSubject(verifier auth.Verifier, sessions *auth.Sessions, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			token = strings.TrimPrefix(header, "Bearer ")
			if token == header {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
				return
			}
		}

		subject, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			msg := "Invalid or expired token"
			if token == "" {
				msg = "Authorization header required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		if sessions != nil {
			sessions.SignIn(subject)
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

// SubjectFrom returns the subject stored by RequireSubject, or the zero
// subject when the route is not protected.
func SubjectFrom(c *gin.Context) models.Subject {
	if v, ok := c.Get(subjectKey); ok {
		if subject, ok := v.(models.Subject); ok {
			return subject
		}
	}
	return models.Subject{}
}
