// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blob

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest attachment accepted.
const MaxUploadSize = 10 << 20

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmpty           = errors.New("empty file")
)

// allowed maps accepted extensions to their MIME type.
var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// UploadError carries a user-facing message for a rejected upload.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string { return e.Message }
func (e *UploadError) Unwrap() error { return e.Err }

// CheckUpload validates an attachment by extension, declared type, sniffed
// content and size. It returns the MIME type to store.
func CheckUpload(fileName, declared string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &UploadError{Message: "Arquivo vazio", Err: ErrEmpty}
	}
	if len(data) > MaxUploadSize {
		return "", &UploadError{
			Message: fmt.Sprintf("Arquivo de %s excede o limite de %s", humanize.IBytes(uint64(len(data))), humanize.IBytes(MaxUploadSize)),
			Err:     ErrTooLarge,
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	want, ok := allowed[ext]
	if !ok {
		return "", &UploadError{Message: "Tipo de arquivo não permitido. Envie JPG, PNG ou PDF", Err: ErrUnsupportedType}
	}

	if declared != "" {
		if base, _, _ := strings.Cut(declared, ";"); strings.TrimSpace(strings.ToLower(base)) != want {
			return "", &UploadError{Message: "Tipo de arquivo não corresponde à extensão", Err: ErrUnsupportedType}
		}
	}

	if sniffed := mimetype.Detect(data); !sniffed.Is(want) {
		return "", &UploadError{
			Message: fmt.Sprintf("Conteúdo do arquivo (%s) não corresponde à extensão %s", sniffed.String(), ext),
			Err:     ErrUnsupportedType,
		}
	}

	return want, nil
}
