package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/blob"
	"github.com/rongwang/litigation-tracker/internal/importer"
	"github.com/rongwang/litigation-tracker/internal/models"
	"go.uber.org/zap"
)

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.ListDocuments(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DocumentsResponse{Status: "success", Documents: docs})
}

// UploadDocument takes a multipart form with fields file, docType and the
// optional filingDate. The file is written to the blob store before the
// document is recorded.
func (h *Handler) UploadDocument(c *gin.Context) {
	ctx := c.Request.Context()
	id := identityFrom(c)
	caseID := c.Param("id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	docType, err := models.ParseDocumentType(c.PostForm("docType"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filingDate, err := models.ParseOptionalDate(c.PostForm("filingDate"))
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid filingDate %q", c.PostForm("filingDate")))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "A file is required")
		return
	}

	// Reject before storing bytes for a case that does not exist
	if _, err := h.svc.GetCase(ctx, id, caseID); err != nil {
		h.respondError(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		h.respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	ref, err := h.blobs.Put(ctx, f, header.Filename)
	if err != nil {
		h.respondError(c, fmt.Errorf("store upload: %w", err))
		return
	}

	doc, err := h.svc.AttachDocument(ctx, id, caseID, models.NewDocument{
		DocType:    docType,
		FilingDate: filingDate,
		FileName:   filepath.Base(header.Filename),
		BlobRef:    ref,
	})
	if err != nil {
		h.logger.Warn("uploaded blob left unattached", zap.String("ref", ref), zap.Error(err))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.DocumentResponse{Status: "success", Document: doc})
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.svc.GetDocument(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DocumentResponse{Status: "success", Document: doc})
}

// DownloadDocument streams the stored bytes as an attachment.
func (h *Handler) DownloadDocument(c *gin.Context) {
	ctx := c.Request.Context()
	doc, err := h.svc.GetDocument(ctx, identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	rc, err := h.blobs.Open(ctx, doc.BlobRef)
	if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidRef) {
		h.logger.Error("document content missing", zap.String("document_id", doc.ID), zap.String("ref", doc.BlobRef))
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "Document content not found")
		return
	}
	if err != nil {
		h.respondError(c, fmt.Errorf("open blob: %w", err))
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(doc.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}),
	})
}

// Import reads a YAML manifest from the body. strict defaults to true.
func (h *Handler) Import(c *gin.Context) {
	strict := true
	if v := c.Query("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, fmt.Sprintf("invalid strict %q", v))
			return
		}
		strict = b
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload))
	if err != nil {
		badRequest(c, "Manifest too large or unreadable")
		return
	}

	report, err := h.importer.Import(c.Request.Context(), identityFrom(c), data, strict)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "report": report})
}

// ImportTemplate serves a sample manifest to fill in.
func (h *Handler) ImportTemplate(c *gin.Context) {
	if err := identityFrom(c).Require(models.PermRead); err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="import-template.yaml"`)
	c.Data(http.StatusOK, "application/x-yaml", []byte(importer.Template))
}
