package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// Upload is the file part of a multipart upload.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// Form is an encoded multipart body ready to be sent.
type Form struct {
	Body        *bytes.Buffer
	ContentType string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// NewFileForm builds a multipart form with the file under "file" and one field
// per metadata key. Fields are written in key order so bodies are reproducible.
func NewFileForm(up Upload, fields map[string]string) (*Form, error) {
	if up.Content == nil {
		return nil, fmt.Errorf("upload %q has no content", up.FileName)
	}
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(up.FileName)))
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return nil, fmt.Errorf("read upload %q: %w", up.FileName, err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &Form{Body: buf, ContentType: w.FormDataContentType()}, nil
}
