package http

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart renders form into a buffered multipart/form-data body and
// returns it with its content type. Buffering keeps the body replayable
// across retries.
func encodeMultipart(form *masto.MultipartForm) ([]byte, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for key, values := range form.Fields {
		for _, value := range values {
			err := writer.WriteField(key, value)
			if err != nil {
				return nil, "", fmt.Errorf("writing form field %s: %w", key, err)
			}
		}
	}

	for _, file := range form.Files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.FieldName), quoteEscaper.Replace(file.FileName)))
		header.Set("Content-Type", contentTypeFor(file.FileName))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %s: %w", file.FieldName, err)
		}

		_, err = io.Copy(part, file.Reader)
		if err != nil {
			return nil, "", fmt.Errorf("reading form file %s: %w", file.FileName, err)
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func contentTypeFor(fileName string) string {
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
