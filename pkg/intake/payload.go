// Package intake turns raw image payloads into decoded [imageref.Ref] values.
//
// Payloads come from files, HTTP uploads or the system clipboard. Decoding
// is the only asynchronous step of the combiner: [DecodeAll] decodes
// concurrently and reports per-payload failures, [Join] is the
// all-or-nothing variant used when a caller needs every image.
package intake

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// Payload is an undecoded image as received from a host.
type Payload struct {
	Name      string // source label, echoed in errors
	MediaType string // e.g. "image/png"; sniffed when empty
	Data      []byte
}

// NewPayload builds a payload, sniffing the media type when mediaType is empty.
func NewPayload(name, mediaType string, data []byte) Payload {
	p := Payload{Name: name, MediaType: mediaType, Data: data}
	if p.MediaType == "" {
		p.MediaType = sniff(name, data)
	}
	return p
}

// IsImage reports whether the payload's media type is an image type.
func (p Payload) IsImage() bool {
	mt := p.MediaType
	if mt == "" {
		mt = sniff(p.Name, p.Data)
	}
	return strings.HasPrefix(mt, "image/")
}

// FromFiles reads each path into a payload named after its base name.
func FromFiles(paths []string) ([]Payload, error) {
	out := make([]Payload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
		}
		out = append(out, NewPayload(filepath.Base(path), "", data))
	}
	return out, nil
}

// FilterImages keeps only payloads with an image media type, in order.
// Non-image entries are silently dropped.
func FilterImages(payloads []Payload) []Payload {
	out := make([]Payload, 0, len(payloads))
	for _, p := range payloads {
		if p.IsImage() {
			out = append(out, p)
		}
	}
	return out
}

// sniff detects the media type from content, falling back to the extension.
func sniff(name string, data []byte) string {
	mt := http.DetectContentType(data)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return mt
}
