package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fridgewiz/server/internal/domain/media"
	"fridgewiz/server/internal/interfaces/httpserver/responses"
	"fridgewiz/server/internal/utils/platformerrors"
)

// ImageHandler exposes the image delete endpoint.
type ImageHandler struct {
	media *media.Service
	log   zerolog.Logger
}

func NewImageHandler(mediaService *media.Service, log zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		media: mediaService,
		log:   log.With().Str("component", "image-handler").Logger(),
	}
}

// Delete handles DELETE /api/images/:id. Removes the blob first, then the
// record.
func (h *ImageHandler) Delete(c *gin.Context) {
	if err := h.media.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}
