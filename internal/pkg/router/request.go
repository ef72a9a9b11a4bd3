package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/productivefire/server/internal/pkg/goerror"
)

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// File is an uploaded multipart part read fully into memory.
type File struct {
	Name        string
	Ext         string
	ContentType string
	Data        []byte
}

// ErrFileTooLarge is wrapped by SingleFile when the part exceeds maxBytes.
var ErrFileTooLarge = errors.New("file too large")

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// DecodeBody decodes a single JSON document into dst. Unknown fields are
// ignored since the web client posts extra form state.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// SingleFile returns the first multipart part named name, read up to
// maxBytes. The content type is sniffed from the bytes, not trusted from the
// client.
func (r *Request) SingleFile(name string, maxBytes int64) (*File, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, goerror.NewInvalidFormat("No file uploaded")
		}
		if err != nil {
			return nil, goerror.NewInvalidFormat()
		}

		if part.FormName() != name {
			if err := drain(part); err != nil {
				return nil, goerror.NewInvalidFormat()
			}
			continue
		}

		return readPart(part, maxBytes)
	}
}

func readPart(part *multipart.Part, maxBytes int64) (*File, error) {
	defer part.Close() //nolint:errcheck // read-only

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, maxBytes+1))
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}
	if n > maxBytes {
		return nil, ErrFileTooLarge
	}

	data := buf.Bytes()
	return &File{
		Name:        part.FileName(),
		Ext:         strings.ToLower(filepath.Ext(part.FileName())),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func drain(part *multipart.Part) error {
	if _, err := io.Copy(io.Discard, part); err != nil {
		_ = part.Close()
		return err
	}
	return part.Close()
}
