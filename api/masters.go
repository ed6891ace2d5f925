package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/SlpAus/aureates-pokedex-backend/internal/integrity"
	"github.com/SlpAus/aureates-pokedex-backend/internal/listing"
	"github.com/SlpAus/aureates-pokedex-backend/internal/media"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

// masterForm 是创建/更新 Master 时请求体的统一表示，JSON 与 multipart 均解析到这里
type masterForm struct {
	ID     *int64
	Name   *string
	Status *string
	Image  *media.Image
}

// masterJSON 是 JSON 请求体；image 字段为 base64 编码的图片
type masterJSON struct {
	ID        *intField `json:"id"`
	Name      *string   `json:"name"`
	Status    *string   `json:"status"`
	Image     []byte    `json:"image"`
	ImageType string    `json:"imageType"`
}

func (h *Handler) bindMaster(c *gin.Context) (masterForm, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return h.bindMasterMultipart(c)
	}

	var body masterJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		return masterForm{}, apperr.Validation("invalid request body")
	}
	id, err := body.ID.Int("id")
	if err != nil {
		return masterForm{}, err
	}
	form := masterForm{ID: id, Name: body.Name, Status: body.Status}
	if body.Image != nil {
		img, err := media.Normalize(body.Image, body.ImageType, h.maxUploadBytes)
		if err != nil {
			return masterForm{}, err
		}
		form.Image = &img
	}
	return form, nil
}

func (h *Handler) bindMasterMultipart(c *gin.Context) (masterForm, error) {
	var form masterForm
	if raw, ok := c.GetPostForm("id"); ok && raw != "" {
		id, err := parseInt(raw, "id")
		if err != nil {
			return form, err
		}
		form.ID = &id
	}
	if v, ok := c.GetPostForm("name"); ok {
		form.Name = &v
	}
	if v, ok := c.GetPostForm("status"); ok {
		form.Status = &v
	}

	file, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return form, apperr.Validation("invalid image upload")
	}
	data, err := h.readUpload(file)
	if err != nil {
		return form, err
	}
	declared := c.PostForm("imageType")
	if declared == "" {
		declared = file.Header.Get("Content-Type")
	}
	img, err := media.Normalize(data, declared, h.maxUploadBytes)
	if err != nil {
		return form, err
	}
	form.Image = &img
	return form, nil
}

// readUpload 最多读取 maxUploadBytes+1 字节，超出部分交由 media.Normalize 拒绝
func (h *Handler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > h.maxUploadBytes {
		return nil, apperr.Validation("image must be at most %d bytes", h.maxUploadBytes)
	}
	f, err := file.Open()
	if err != nil {
		return nil, apperr.Validation("invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, apperr.Validation("invalid image upload")
	}
	return data, nil
}

// POST /api/masters
func (h *Handler) CreateMaster(c *gin.Context) {
	form, err := h.bindMaster(c)
	if err != nil {
		respondError(c, err)
		return
	}
	in := integrity.CreateMasterInput{ID: form.ID, Image: form.Image}
	if form.Name != nil {
		in.Name = *form.Name
	}
	if form.Status != nil {
		in.Status = *form.Status
	}

	view, err := h.enforcer.CreateMaster(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GET /api/masters?q=&status=&page=&limit=
func (h *Handler) ListMasters(c *gin.Context) {
	q := integrity.MasterQuery{
		Request:      listing.Parse(c.Query("page"), c.Query("limit")),
		NameContains: strings.TrimSpace(c.Query("q")),
		Status:       c.Query("status"),
	}
	res, err := h.enforcer.ListMasters(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/masters/:id
func (h *Handler) GetMaster(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.enforcer.GetMaster(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/masters/:id/image
func (h *Handler) GetMasterImage(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	img, err := h.enforcer.GetMasterImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, img.MimeType, img.Data)
}

// PUT /api/masters/:id
func (h *Handler) UpdateMaster(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	form, err := h.bindMaster(c)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.enforcer.UpdateMaster(c.Request.Context(), id, integrity.UpdateMasterInput{
		Name:   form.Name,
		Status: form.Status,
		Image:  form.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/masters/:id
func (h *Handler) DeleteMaster(c *gin.Context) {
	id, err := parseInt(c.Param("id"), "id")
	if err != nil {
		respondError(c, err)
		return
	}
	cascaded, err := h.enforcer.DeleteMaster(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Master deleted",
		"abilitiesDeleted": cascaded,
	})
}
