package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/intake"
	"github.com/matzehuels/imagecombiner/pkg/pipeline"
)

// formImagesField is the multipart field carrying image files.
const formImagesField = "images"

// handleCombine runs the full pipeline on uploaded images and returns the export.
func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	payloads, err := s.readPayloads(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := s.optionsFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), payloads, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Encoded)))
	w.Header().Set("X-Image-Count", strconv.Itoa(result.Stats.ImageCount))
	w.Header().Set("X-Skipped-Images", strconv.Itoa(len(result.Failures)))
	w.Header().Set("X-Composite-Size", fmt.Sprintf("%dx%d", result.Stats.Width, result.Stats.Height))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Encoded)
}

// readPayloads accepts either a multipart form with "images" files or a raw
// image body (a paste). Non-image parts are dropped.
func (s *Server) readPayloads(w http.ResponseWriter, r *http.Request) ([]intake.Payload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var payloads []intake.Payload

	switch {
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxBytes); err != nil {
			return nil, apierrors.Wrap(apierrors.ErrCodeInvalidInput, err, "invalid multipart form")
		}
		for _, fh := range r.MultipartForm.File[formImagesField] {
			if err := apierrors.ValidateImageName(fh.Filename); err != nil {
				return nil, err
			}
			f, err := fh.Open()
			if err != nil {
				return nil, apierrors.Wrap(apierrors.ErrCodeInvalidInput, err, "open %s", fh.Filename)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, apierrors.Wrap(apierrors.ErrCodeInvalidInput, err, "read %s", fh.Filename)
			}
			payloads = append(payloads, intake.NewPayload(fh.Filename, imageMediaType(fh.Header.Get("Content-Type")), data))
		}
	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.ErrCodeInvalidInput, err, "read body")
		}
		name := r.URL.Query().Get("name")
		if err := apierrors.ValidateImageName(name); err != nil {
			return nil, err
		}
		if name == "" {
			name = "pasted-image"
		}
		payloads = append(payloads, intake.NewPayload(name, imageMediaType(mediaType), data))
	}

	payloads = intake.FilterImages(payloads)
	if len(payloads) == 0 {
		return nil, apierrors.New(apierrors.ErrCodeInvalidInput, "no images in request")
	}
	return payloads, nil
}

// imageMediaType returns ct if it names an image type. Anything else, such as
// the application/octet-stream browsers send for unknown files, is left to sniffing.
func imageMediaType(ct string) string {
	mt, _, _ := mime.ParseMediaType(ct)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return ""
}

// optionsFromRequest reads pipeline options from form or query values,
// falling back to the server defaults.
func (s *Server) optionsFromRequest(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{
		Orientation: string(s.layout.Orientation),
		Alignment:   string(s.layout.Alignment),
		Gap:         s.layout.Gap,
		Width:       s.export.Width,
		Height:      s.export.Height,
		KeepAspect:  s.export.PreserveAspectRatio,
		Quality:     s.export.Quality,
		Format:      string(s.export.Format),
		Background:  s.export.Background,
	}

	get := func(key string) string {
		if r.MultipartForm != nil {
			if v := r.MultipartForm.Value[key]; len(v) > 0 {
				return v[0]
			}
		}
		return r.URL.Query().Get(key)
	}

	if v := get("orientation"); v != "" {
		opts.Orientation = v
	}
	if v := get("alignment"); v != "" {
		opts.Alignment = v
	}
	if v := get("format"); v != "" {
		opts.Format = v
	}

	var err error
	if opts.Gap, err = intParam(get, "gap", opts.Gap); err != nil {
		return opts, err
	}
	for _, dim := range []struct {
		key string
		dst *int
	}{{"width", &opts.Width}, {"height", &opts.Height}} {
		if get(dim.key) == "" {
			continue
		}
		if *dim.dst, err = intParam(get, dim.key, *dim.dst); err != nil {
			return opts, err
		}
		if err := apierrors.ValidateExplicitDimension(dim.key, *dim.dst); err != nil {
			return opts, err
		}
	}
	if opts.KeepAspect, err = boolParam(get, "keep_aspect", opts.KeepAspect); err != nil {
		return opts, err
	}
	if opts.Strict, err = boolParam(get, "strict", opts.Strict); err != nil {
		return opts, err
	}
	if v := get("quality"); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, apierrors.New(apierrors.ErrCodeInvalidExport, "quality must be a number, got %q", v)
		}
		// An explicit zero would otherwise read as "use the default".
		if err := apierrors.ValidateQuality(q); err != nil {
			return opts, err
		}
		opts.Quality = q
	}
	return opts, nil
}

func intParam(get func(string) string, key string, def int) (int, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, apierrors.New(apierrors.ErrCodeInvalidInput, "%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func boolParam(get func(string) string, key string, def bool) (bool, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, apierrors.New(apierrors.ErrCodeInvalidInput, "%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
