package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/vedran77/frameverse/internal/service"
)

const maxUploadSize = 10 << 20

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readUpload parses a multipart form and returns its "image" file, or nil when
// the field is absent. The returned close func must be called once the
// upload has been consumed.
func readUpload(r *http.Request) (*service.Upload, func(), error) {
	noop := func() {}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, noop, errInvalidBody
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, errInvalidBody
	}

	contentType := header.Header.Get("Content-Type")
	var reader io.Reader = file
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		head = head[:n]
		contentType = http.DetectContentType(head)
		reader = io.MultiReader(bytes.NewReader(head), file)
	}

	upload := &service.Upload{
		Reader:      reader,
		Size:        header.Size,
		ContentType: contentType,
	}
	return upload, func() { file.Close() }, nil
}
