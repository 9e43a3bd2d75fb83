package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/http/response"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

// Outer request cap. The per-family check in the media service is
// authoritative; this just stops pathological bodies early.
const maxUploadRequestBytes = services.MaxAudioBytes + (1 << 20)

type MediaHandler struct {
	mediaSvc services.MediaService
}

func NewMediaHandler(mediaSvc services.MediaService) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// POST /media/assets (multipart: file + optional title, language, durationMs)
func (mh *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadRequestBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()

	in := services.UploadInput{
		MimeType:  strings.TrimSpace(fileHeader.Header.Get("Content-Type")),
		SizeBytes: fileHeader.Size,
		Body:      f,
	}
	if title := c.PostForm("title"); title != "" {
		in.Title = &title
	}
	if lang := c.PostForm("language"); lang != "" {
		in.Language = &lang
	}
	if ms := c.PostForm("durationMs"); ms != "" {
		if v, err := strconv.ParseInt(ms, 10, 64); err == nil {
			in.DurationMS = &v
		}
	}

	rd := ctxutil.GetRequestData(c.Request.Context())
	asset, err := mh.mediaSvc.Upload(c.Request.Context(), rd, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"asset": asset})
}

// GET /media/assets
func (mh *MediaHandler) ListMine(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	assets, err := mh.mediaSvc.ListMine(c.Request.Context(), rd, limitQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assets": assets})
}

// GET /media/assets/:id/url
func (mh *MediaHandler) GetURL(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := ctxutil.GetRequestData(c.Request.Context())
	view, err := mh.mediaSvc.GetSignedURL(c.Request.Context(), rd, assetID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}
