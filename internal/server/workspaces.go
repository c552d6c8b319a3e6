package server

import (
	"bytes"
	"image/png"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/imagecombiner/pkg/buildinfo"
	"github.com/matzehuels/imagecombiner/pkg/cache"
	"github.com/matzehuels/imagecombiner/pkg/compositor"
	apierrors "github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/intake"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/pipeline"
	"github.com/matzehuels/imagecombiner/pkg/session"
	"github.com/matzehuels/imagecombiner/pkg/workspace"
)

// imageView describes one image in a workspace response.
type imageView struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// workspaceView is the JSON form of a workspace.
type workspaceView struct {
	ID        string          `json:"id"`
	Images    []imageView     `json:"images"`
	Layout    layout.Settings `json:"layout"`
	Plan      *layout.Plan    `json:"plan,omitempty"`
	Current   bool            `json:"current"`
	Token     int64           `json:"token"`
	UpdatedAt time.Time       `json:"updated_at"`
	Failures  []string        `json:"failures,omitempty"`
}

func newWorkspaceView(ws *workspace.Workspace) workspaceView {
	st := ws.Snapshot()
	v := workspaceView{
		ID:        st.ID,
		Images:    make([]imageView, len(st.Images)),
		Layout:    st.Layout,
		Current:   st.Current,
		Token:     st.Token,
		UpdatedAt: ws.UpdatedAt(),
	}
	for i, ref := range st.Images {
		v.Images[i] = imageView{Index: i, ID: ref.ID, Name: ref.Name, Width: ref.Width(), Height: ref.Height()}
	}
	if st.Result != nil {
		plan := st.Result.Plan
		v.Plan = &plan
	}
	return v
}

// layoutRequest accepts orientation-specific alignment labels as well as canonical ones.
type layoutRequest struct {
	Orientation string `json:"orientation"`
	Alignment   string `json:"alignment"`
	Gap         *int   `json:"gap"`
}

func (lr layoutRequest) apply(base layout.Settings) (layout.Settings, error) {
	out := base
	if lr.Orientation != "" {
		o, err := layout.ParseOrientation(lr.Orientation)
		if err != nil {
			return base, err
		}
		out.Orientation = o
	}
	if lr.Alignment != "" {
		a, err := layout.ParseAlignment(lr.Alignment)
		if err != nil {
			return base, err
		}
		out.Alignment = a
	}
	if lr.Gap != nil {
		out.Gap = *lr.Gap
	}
	return out, out.Validate()
}

type moveRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"build":      buildinfo.Get(),
		"workspaces": s.sessions.Len(),
	})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	settings := s.layout
	if r.ContentLength != 0 {
		var req layoutRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		var err error
		if settings, err = req.apply(settings); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	ws := workspace.New(workspace.WithLayout(settings), workspace.WithLogger(s.logger))
	if err := s.sessions.Set(r.Context(), session.New(ws, s.ttl)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("created workspace", "id", ws.ID())
	w.Header().Set("Location", "/v1/workspaces/"+ws.ID())
	writeJSON(w, http.StatusCreated, newWorkspaceView(ws))
}

// workspace loads the workspace named by the {id} URL parameter.
func (s *Server) workspace(r *http.Request) (*workspace.Workspace, error) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return sess.Workspace, nil
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newWorkspaceView(ws))
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddImages appends uploaded or pasted images. Undecodable images are
// skipped and reported in the response; the rest are still added.
func (s *Server) handleAddImages(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payloads, err := s.readPayloads(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	refs, failures := intake.DecodeAll(r.Context(), payloads)
	if len(refs) == 0 {
		s.writeError(w, r, failures[0])
		return
	}
	ws.Add(refs...)
	s.recomposeAndRespond(w, r, ws, failures)
}

func (s *Server) handleRemoveImage(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "index must be an integer"))
		return
	}
	if err := ws.Remove(index); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recomposeAndRespond(w, r, ws, nil)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.From == nil || req.To == nil {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeInvalidInput, "from and to are required"))
		return
	}
	ws.Move(*req.From, *req.To)
	s.recomposeAndRespond(w, r, ws, nil)
}

func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := req.apply(ws.Layout())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.SetLayout(settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recomposeAndRespond(w, r, ws, nil)
}

// recomposeAndRespond recomposites after a change and writes the workspace view.
// A result discarded as stale is not an error: a newer change is already on its way.
func (s *Server) recomposeAndRespond(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, failures []error) {
	if _, _, err := ws.Recompose(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	view := newWorkspaceView(ws)
	for _, f := range failures {
		view.Failures = append(view.Failures, apierrors.UserMessage(f))
	}
	writeJSON(w, http.StatusOK, view)
}

// currentResult returns the workspace composite, recomposing if it is out of
// date. version identifies the composite for caching and is empty when a
// concurrent change left the returned composite uncommitted.
func (s *Server) currentResult(r *http.Request, ws *workspace.Workspace) (res *compositor.Result, version string, err error) {
	st := ws.Snapshot()
	if st.Current {
		if st.Result == nil {
			return nil, "", compositor.ErrInsufficientImages
		}
		return st.Result, strconv.FormatInt(st.Token, 10), nil
	}

	res, committed, err := ws.Recompose(r.Context())
	if err != nil {
		return nil, "", err
	}
	if res == nil {
		return nil, "", compositor.ErrInsufficientImages
	}
	if committed {
		if st = ws.Snapshot(); st.Current && st.Result == res {
			version = strconv.FormatInt(st.Token, 10)
		}
	}
	return res, version, nil
}

// handleComposite serves the current composite as a lossless PNG preview.
func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, _, err := s.currentResult(r, ws)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Image); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// handleExport encodes the current composite with query-string export settings.
// Exports are cached per workspace and composite version.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspace(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.optionsFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := opts.ValidateForExport(); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, version, err := s.currentResult(r, ws)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	runner := &pipeline.Runner{
		Cache:  s.runner.Cache,
		Keyer:  cache.NewScopedKeyer(s.runner.Keyer, "ws:"+ws.ID()+":"),
		Logger: s.logger,
		TTL:    s.runner.TTL,
	}
	data, hit, err := runner.ExportWithCacheInfo(r.Context(), res, version, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := opts.ExportSettings().Format
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename(format)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	_, _ = w.Write(data)
}
