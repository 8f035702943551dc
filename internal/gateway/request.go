package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

// File is an attachment uploaded together with a request body.
type File struct {
	Name string
	Data []byte
}

// Request describes one remote call. Route is relative to the API base URL,
// e.g. "/channels/123/messages". With Files set, the body is sent as
// multipart/form-data: Body goes into the payload_json field and each file
// into files[i].
type Request struct {
	Method string
	Route  string
	Body   any
	Files  []File
}

// Response is a successful (2xx) remote reply.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", common.ErrorInternal, err)
	}
	return nil
}

func (r Request) encode() ([]byte, string, error) {
	if len(r.Files) == 0 {
		if r.Body == nil {
			return nil, "", nil
		}
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return b, "application/json", nil
	}

	payload := []byte("{}")
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = b
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("payload_json", string(payload)); err != nil {
		return nil, "", err
	}
	for i, f := range r.Files {
		fw, err := w.CreateFormFile(fmt.Sprintf("files[%d]", i), f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
