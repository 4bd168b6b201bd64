package restclient

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
)

const (
	defaultUploadFieldName = "file"
	defaultUploadMIMEType  = "application/octet-stream"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// newMultipartBody streams fields and the upload file part through a pipe.
// The writer goroutine exits once the body is fully read or the reader is
// closed.
func newMultipartBody(u *Upload, fields url.Values, progress func(sent, total int64)) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, u, fields, progress)
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeMultipart(mw *multipart.Writer, u *Upload, fields url.Values, progress func(sent, total int64)) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range fields[name] {
			if err := mw.WriteField(name, value); err != nil {
				return err
			}
		}
	}

	fieldName := u.FieldName
	if fieldName == "" {
		fieldName = defaultUploadFieldName
	}
	mimeType := u.MIMEType
	if mimeType == "" {
		mimeType = defaultUploadMIMEType
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fieldName), quoteEscaper.Replace(u.FileName)))
	h.Set("Content-Type", mimeType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	src := u.Reader
	if progress != nil {
		src = &countingReader{r: u.Reader, total: u.Size, report: progress}
	}
	_, err = io.Copy(part, src)
	return err
}

// countingReader reports the running byte count after every read.
type countingReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.report(c.sent, c.total)
	}
	return n, err
}
