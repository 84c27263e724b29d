package validators

import (
	"errors"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileNameTooLong = errors.New("file name is too long")
	ErrFileEmpty       = errors.New("empty file provided")
	ErrNoFile          = errors.New("no file provided")
)

const maxFileNameSize = 255

// FileValidator checks an upload candidate and sniffs its real MIME type
// from the content, ignoring whatever the client declared. Returns the HTTP
// status to respond with on failure.
func FileValidator(name string, content []byte) (int, string, error) {
	if name == "" {
		return http.StatusBadRequest, "", ErrNoFile
	}

	if len(name) > maxFileNameSize {
		return http.StatusBadRequest, "", ErrFileNameTooLong
	}

	if len(content) == 0 {
		return http.StatusBadRequest, "", ErrFileEmpty
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if maxFileSize > 0 && int64(len(content)) > maxFileSize {
		return http.StatusRequestEntityTooLarge, "", ErrFileTooLarge
	}

	mime := mimetype.Detect(content)

	return 0, mime.String(), nil
}
