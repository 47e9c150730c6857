package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/codec"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/packager"
	"github.com/ds124wfegd/cartoonizer/internal/service"
	"github.com/ds124wfegd/cartoonizer/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// uploadField is the multipart field carrying the picture
const uploadField = "image"

func (h *ConvertHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"styles":  h.service.Styles(),
		"archive": packager.ArchiveName,
		"accept":  strings.Join(codec.SupportedMIME(), ","),
	})
}

func (h *ConvertHandler) GetStyles(c *gin.Context) {
	c.JSON(http.StatusOK, entity.StylesResponse{Styles: h.service.Styles()})
}

// Convert answers with the original and all five styles as data URIs.
func (h *ConvertHandler) Convert(c *gin.Context) {
	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	conv, err := h.service.Convert(c.Request.Context(), requestID(c), file)
	if err != nil {
		h.fail(c, err)
		return
	}

	outputs := make([]entity.ImageOutput, 0, len(conv.Files))
	for _, f := range conv.Files {
		outputs = append(outputs, entity.ImageOutput{
			Label:    f.Label,
			Caption:  f.Caption,
			Filename: f.Name,
			Original: f.Label == cartoon.OriginalLabel,
			DataURI:  dataURI(f),
		})
	}

	setETag(c, conv)
	c.JSON(http.StatusOK, entity.ConvertResponse{
		ID:          conv.ID,
		Width:       conv.Info.Width,
		Height:      conv.Info.Height,
		Checksum:    conv.Info.Checksum,
		DurationMs:  conv.Duration.Milliseconds(),
		Outputs:     outputs,
		ArchiveName: packager.ArchiveName,
	})
}

func (h *ConvertHandler) ConvertArchive(c *gin.Context) {
	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	conv, err := h.service.ConvertArchive(c.Request.Context(), requestID(c), file)
	if err != nil {
		h.fail(c, err)
		return
	}

	setETag(c, conv)
	attachment(c, packager.ArchiveName)
	c.Data(http.StatusOK, packager.ArchiveContentType, conv.Archive)
}

func (h *ConvertHandler) ConvertStyle(c *gin.Context) {
	file, ok := h.openUpload(c)
	if !ok {
		return
	}
	defer file.Close()

	conv, err := h.service.ConvertStyle(c.Request.Context(), requestID(c), file, c.Param("style"))
	if err != nil {
		h.fail(c, err)
		return
	}

	out := conv.Files[0]
	setETag(c, conv)
	attachment(c, out.Name)
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (h *ConvertHandler) openUpload(c *gin.Context) (multipart.File, bool) {
	header, err := c.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		h.fail(c, entity.ErrNoImageProvided)
		return nil, false
	}
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrUnsupportedImage, err))
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("%w: %v", entity.ErrUnsupportedImage, err))
		return nil, false
	}
	return file, true
}

// fail maps service errors onto status codes. Internal details stay in the log.
func (h *ConvertHandler) fail(c *gin.Context, err error) {
	var (
		packErr *packager.PackagingError
		pipeErr *cartoon.PipelineError
		status  int
		message string
	)

	switch {
	case errors.Is(err, entity.ErrNoImageProvided):
		status, message = http.StatusBadRequest, "No image file provided"
	case errors.Is(err, entity.ErrImageTooLarge):
		status, message = http.StatusRequestEntityTooLarge, "image is too large"
	case errors.Is(err, entity.ErrUnsupportedImage):
		status, message = http.StatusBadRequest, "cannot process this file"
	case errors.Is(err, entity.ErrUnknownStyle):
		status, message = http.StatusNotFound, "unknown style"
	case errors.As(err, &packErr):
		status, message = http.StatusInternalServerError, "results are ready but downloads are unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusServiceUnavailable, "conversion timed out"
	case errors.As(err, &pipeErr):
		status, message = http.StatusInternalServerError, "conversion failed"
	default:
		status, message = http.StatusInternalServerError, "conversion failed"
	}

	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("request_id", requestID(c)).Error("Conversion request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return uuid.New().String()
}

func dataURI(f packager.File) string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func setETag(c *gin.Context, conv *service.Conversion) {
	if conv.Info.Checksum != "" {
		c.Header("ETag", fmt.Sprintf("W/%q", conv.Info.Checksum))
	}
}
