package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"unipulse/backend/internal/access"
	"unipulse/backend/internal/shared"
	"unipulse/backend/internal/storage"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk
const multipartMemory = 8 << 20

// formOverhead is allowed on top of the file size limit for the other form fields
const formOverhead = 1 << 20

// caller returns the identity injected by the auth middleware
func caller(r *http.Request) access.Identity {
	id, _ := access.FromContext(r.Context())
	return id
}

// parseForm reads a multipart or urlencoded body, capped at maxFile plus
// room for the other fields. Query parameters are merged into r.Form.
func parseForm(w http.ResponseWriter, r *http.Request, maxFile int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFile+formOverhead)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	return formError(err, maxFile)
}

func formError(err error, maxFile int64) error {
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return shared.TooLarge(fmt.Sprintf("file exceeds maximum size of %d bytes", maxFile))
	}
	return shared.Validation(fmt.Sprintf("invalid form body: %v", err))
}

// formFile returns the uploaded file under field, or nil when none was sent
func formFile(r *http.Request, field string, maxFile int64) (*storage.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.Validation(fmt.Sprintf("invalid %s upload: %v", field, err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, formError(err, maxFile)
	}
	return &storage.Upload{Filename: header.Filename, Data: data}, nil
}

// intParam parses an optional integer query or form value; absent is 0
func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.Validation(name + " must be an integer")
	}
	return v, nil
}

// floatParam parses an optional decimal value; absent is nil
func floatParam(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, shared.Validation(name + " must be a number")
	}
	return &v, nil
}
