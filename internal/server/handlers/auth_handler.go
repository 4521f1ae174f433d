package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/auth"
	"github.com/mamadbah2/waterbill/internal/server/middleware"
)

// AuthHandler signs operators in and out.
type AuthHandler struct {
	verifier auth.Verifier
	sessions *auth.Sessions
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(verifier auth.Verifier, sessions *auth.Sessions, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{verifier: verifier, sessions: sessions, logger: logger}
}

type sessionResponse struct {
	UID        string    `json:"uid"`
	Email      string    `json:"email,omitempty"`
	SignedInAt time.Time `json:"signedInAt"`
}

// SignIn reports the session the auth middleware opened for the caller.
func (h *AuthHandler) SignIn(c *gin.Context) {
	subject := middleware.SubjectFrom(c)
	session := h.sessions.SignIn(subject)

	c.JSON(http.StatusOK, sessionResponse{
		UID:        subject.UID,
		Email:      subject.Email,
		SignedInAt: session.SignedInAt,
	})
}

// SignOut revokes the caller's refresh tokens and clears the session. A
// failed revocation is logged; the local session is cleared regardless.
func (h *AuthHandler) SignOut(c *gin.Context) {
	subject := middleware.SubjectFrom(c)

	if err := h.verifier.Revoke(c.Request.Context(), subject.UID); err != nil {
		h.logger.Warn("failed to revoke tokens", zap.String("subject", subject.UID), zap.Error(err))
	}

	h.sessions.SignOut(subject.UID)
	h.logger.Info("operator signed out", zap.String("subject", subject.UID))
	c.Status(http.StatusNoContent)
}
