package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Receiver parses multipart requests into memory-buffered Files.
// It never writes to disk; buffering happens entirely in memory so the
// downstream pipeline can hand buffers to the compression engine or the
// object store directly.
type Receiver struct {
	// memorySlack is added to the class limit when parsing, leaving room
	// for the non-file form fields.
	memorySlack int64
}

// NewReceiver creates a Receiver.
func NewReceiver() *Receiver {
	return &Receiver{memorySlack: 1 << 20}
}

// Single accepts exactly one file on the named field.
// Any file arriving on another field is rejected with UNEXPECTED_FILE.
func (rc *Receiver) Single(r *http.Request, field string, class Class) (*File, error) {
	files, err := rc.parse(r, field, class, 1)
	if err != nil {
		return nil, err
	}
	return files[0], nil
}

// Multi accepts up to MaxFilesPerRequest files on the named field.
func (rc *Receiver) Multi(r *http.Request, field string, class Class) ([]*File, error) {
	return rc.parse(r, field, class, MaxFilesPerRequest)
}

func (rc *Receiver) parse(r *http.Request, field string, class Class, maxFiles int) ([]*File, error) {
	limit := LimitFor(class)
	maxBody := limit*int64(maxFiles) + rc.memorySlack

	// A declared oversize is rejected before any of the body is read.
	if r.ContentLength > maxBody {
		return nil, bodyTooLarge(class, limit)
	}
	// Chunked or lying clients hit this cap instead: the read aborts at
	// maxBody rather than draining an arbitrarily large body.
	r.Body = http.MaxBytesReader(nil, r.Body, maxBody)

	// maxMemory covers the whole capped body, so parts are buffered in
	// memory and never spilled to disk.
	if err := r.ParseMultipartForm(maxBody); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, bodyTooLarge(class, limit)
		}
		return nil, &Error{
			Code:    CodeInvalidFileType,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("malformed multipart body: %v", err),
			Class:   class,
		}
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File) == 0 {
		return nil, &Error{
			Code:    CodeUnexpectedFile,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("missing file field %q", field),
			Class:   class,
		}
	}

	for name := range r.MultipartForm.File {
		if name != field {
			return nil, &Error{
				Code:    CodeUnexpectedFile,
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("unexpected file field %q, expected %q", name, field),
				Class:   class,
			}
		}
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, &Error{
			Code:    CodeUnexpectedFile,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("missing file field %q", field),
			Class:   class,
		}
	}
	if len(headers) > maxFiles {
		return nil, &Error{
			Code:    CodeTooManyFiles,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("got %d files, at most %d allowed per request", len(headers), maxFiles),
			Class:   class,
		}
	}

	files := make([]*File, 0, len(headers))
	for _, hdr := range headers {
		f, err := rc.accept(hdr, field, class)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// accept validates a single part and buffers it.
// Type validation runs before the body is read so disallowed files are
// rejected without buffering.
func (rc *Receiver) accept(hdr *multipart.FileHeader, field string, class Class) (*File, error) {
	contentType := hdr.Header.Get("Content-Type")

	mediaType, verr := validate(hdr.Filename, contentType, class)
	if verr != nil {
		return nil, verr
	}

	if err := checkSize(hdr.Filename, hdr.Size, mediaType, class); err != nil {
		return nil, err
	}

	part, err := hdr.Open()
	if err != nil {
		return nil, fmt.Errorf("open multipart file %q: %w", hdr.Filename, err)
	}
	defer func() { _ = part.Close() }()

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, fmt.Errorf("read multipart file %q: %w", hdr.Filename, err)
	}

	// Recheck with the real byte count; hdr.Size is client-declared.
	if err := checkSize(hdr.Filename, int64(len(data)), mediaType, class); err != nil {
		return nil, err
	}

	return &File{
		Field:       field,
		Filename:    hdr.Filename,
		ContentType: contentType,
		Type:        mediaType,
		Data:        data,
	}, nil
}

// bodyTooLarge is the rejection for a request body over the class budget.
// No per-file details are available because nothing has been parsed yet.
func bodyTooLarge(class Class, limit int64) *Error {
	return &Error{
		Code:     CodeFileTooLarge,
		Status:   http.StatusRequestEntityTooLarge,
		Message:  fmt.Sprintf("request body exceeds the %s limit of %dMB", class, limit>>20),
		MaxBytes: limit,
		Class:    class,
	}
}

func checkSize(filename string, size int64, mediaType MediaType, class Class) *Error {
	// Mixed-class endpoints apply the video limit to either type.
	limit := LimitFor(class)
	if size <= limit {
		return nil
	}
	msg := fmt.Sprintf("%q is %dMB, the %s limit is %dMB", filename, size>>20, class, limit>>20)
	if mediaType == TypeVideo {
		msg += "; videos over the compression threshold are transcoded automatically, but the hard limit still applies"
	}
	return &Error{
		Code:     CodeFileTooLarge,
		Status:   http.StatusRequestEntityTooLarge,
		Message:  msg,
		MaxBytes: limit,
		Class:    class,
	}
}
