package branding

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

var allowedMime = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// ValidateLogo checks the file extension and the sniffed content type of an
// uploaded logo. Returns the detected mime type.
func ValidateLogo(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", apperrors.Validation("logo", "Formatos aceitos: JPG, JPEG, PNG, GIF, BMP")
	}

	detected := http.DetectContentType(head)
	if strings.HasPrefix(detected, "text/") || strings.Contains(detected, "xml") {
		// SVG and HTML can carry scripts
		return "", apperrors.Validation("logo", "Conteúdo de arquivo não permitido")
	}
	if !allowedMime[detected] {
		return "", apperrors.Validation("logo", "Tipo de arquivo não suportado")
	}
	return detected, nil
}
