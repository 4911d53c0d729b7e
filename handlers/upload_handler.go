package handlers

import (
	"time"

	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// UploadSigner signs direct-to-storage uploads.
type UploadSigner interface {
	SignUpload(folder string, now time.Time) (services.UploadSignature, error)
}

type UploadHandler struct {
	signer UploadSigner
}

// NewUploadHandler accepts a nil signer when media storage is not configured.
func NewUploadHandler(signer UploadSigner) *UploadHandler {
	return &UploadHandler{signer: signer}
}

// Signature creates a secure signature for a frontend avatar upload.
func (h *UploadHandler) Signature(c *fiber.Ctx) error {
	if h.signer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "uploads are not configured")
	}
	sig, err := h.signer.SignUpload(services.AvatarFolder, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to sign upload params")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to sign upload params")
	}
	return c.JSON(sig)
}
