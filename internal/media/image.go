// Package media 管理挂在 Master 上的图片附件。
// 图片与记录存放在一起，但从不出现在记录的 JSON 投影中。
package media

import (
	"context"
	"errors"
	"strings"

	"github.com/SlpAus/aureates-pokedex-backend/internal/master"
	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/SlpAus/aureates-pokedex-backend/internal/store"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes 是未配置时的单张图片大小上限
const DefaultMaxBytes = 5 << 20

// Image 是一张图片的原始字节及其 MIME 类型
type Image struct {
	Data     []byte
	MimeType string
}

// Normalize 校验上传的图片：非空、不超过 maxBytes、内容确为图片。
// declared 为空时使用检测出的类型；否则原样保留调用方给出的类型。
func Normalize(data []byte, declared string, maxBytes int64) (Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) == 0 {
		return Image{}, apperr.Validation("image must not be empty")
	}
	if int64(len(data)) > maxBytes {
		return Image{}, apperr.Validation("image must be at most %d bytes", maxBytes)
	}

	detected := mimetype.Detect(data)
	if !isImage(detected) {
		return Image{}, apperr.Validation("image content type %q is not an image", detected.String())
	}

	mimeType := strings.TrimSpace(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = detected.String()
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Image{}, apperr.Validation("imageType %q is not an image type", mimeType)
	}
	return Image{Data: data, MimeType: mimeType}, nil
}

func isImage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

// Attach 整体替换记录上的图片；img 为 nil 时保持原附件不变
func Attach(rec *master.Master, img *Image) error {
	if img == nil {
		return nil
	}
	if len(img.Data) == 0 || img.MimeType == "" {
		return apperr.Validation("image and imageType must be supplied together")
	}
	rec.Image = append([]byte(nil), img.Data...)
	rec.ImageType = img.MimeType
	return nil
}

// Manager 负责独立于记录投影读取图片
type Manager struct {
	masters store.Collection[master.Master]
}

func NewManager(masters store.Collection[master.Master]) *Manager {
	return &Manager{masters: masters}
}

// Get 返回 Master 的图片；Master 不存在或没有图片时返回 NotFound
func (m *Manager) Get(ctx context.Context, masterID int64) (Image, error) {
	rec, err := m.masters.FindOne(ctx, store.ByID(masterID))
	if errors.Is(err, store.ErrNotFound) {
		return Image{}, apperr.NotFound("Master not found")
	}
	if err != nil {
		return Image{}, apperr.Storage("find master", err)
	}
	if !rec.HasImage() {
		return Image{}, apperr.NotFound("Image not found")
	}
	return Image{Data: rec.Image, MimeType: rec.ImageType}, nil
}
