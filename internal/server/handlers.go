package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"tomgalvin.uk/monoform/internal/bitmap"
	"tomgalvin.uk/monoform/internal/canvas"
	"tomgalvin.uk/monoform/internal/codegen"
	"tomgalvin.uk/monoform/internal/convert"
	"tomgalvin.uk/monoform/internal/history"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, a ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, a...))
}

func formInt(r *http.Request, key string, def int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return n, nil
}

func formFloat(r *http.Request, key string) (float64, error) {
	v := r.FormValue(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequest("%s must be a number", key)
	}
	return f, nil
}

func formBool(r *http.Request, key string) (bool, error) {
	v := r.FormValue(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest("%s must be true or false", key)
	}
	return b, nil
}

func checkSize(width, height int) error {
	if width > maxDimension || height > maxDimension {
		return badRequest("images are limited to %vx%v pixels", maxDimension, maxDimension)
	}
	return nil
}

func buildOptions(threshold *int, symbol, mode, flavor string, displayWidth, displayHeight int) (convert.Options, error) {
	o := convert.DefaultOptions()
	if threshold != nil {
		o.Threshold = *threshold
	}
	if symbol != "" {
		o.Symbol = symbol
	}

	var err error
	if o.Mode, err = bitmap.ParseMode(mode); err != nil {
		return o, badRequest("%v", err)
	}
	if o.Flavor, err = codegen.ParseFlavor(flavor); err != nil {
		return o, badRequest("%v", err)
	}
	o.DisplayWidth, o.DisplayHeight = displayWidth, displayHeight
	return o, nil
}

func (s *Server) jobFromJSON(r *http.Request) (convert.Job, error) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return convert.Job{}, badRequest("malformed JSON body: %v", err)
	}
	if err := checkSize(req.Width, req.Height); err != nil {
		return convert.Job{}, err
	}

	pixels := req.Pixels
	if req.BottomUp {
		var err error
		if pixels, err = canvas.FlipRows(pixels, req.Width, req.Height); err != nil {
			return convert.Job{}, err
		}
	}

	o, err := buildOptions(req.Threshold, req.Symbol, req.Mode, req.Flavor, req.DisplayWidth, req.DisplayHeight)
	if err != nil {
		return convert.Job{}, err
	}
	return convert.Job{Pixels: pixels, Width: req.Width, Height: req.Height, Options: o}, nil
}

// Reads the uploaded image and the crop window shared by the multipart
// endpoints.
func readUpload(r *http.Request) (image.Image, canvas.Options, error) {
	var co canvas.Options
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, co, badRequest("malformed form: %v", err)
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, co, badRequest("an image file is required")
	}
	defer file.Close()

	// size check from the header, before any pixels are allocated
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, co, badRequest("Couldn't read image header: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, co, badRequest("image is empty")
	}
	if err := checkSize(cfg.Width, cfg.Height); err != nil {
		return nil, co, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, co, fmt.Errorf("Couldn't rewind upload:\n%w", err)
	}

	img, _, err := canvas.Decode(file)
	if err != nil {
		return nil, co, badRequest("%v", err)
	}

	def := canvas.Presets[0]
	if co.Width, err = formInt(r, "width", def.Width); err != nil {
		return nil, co, err
	}
	if co.Height, err = formInt(r, "height", def.Height); err != nil {
		return nil, co, err
	}
	if err := checkSize(co.Width, co.Height); err != nil {
		return nil, co, err
	}
	if co.X, err = formInt(r, "x", 0); err != nil {
		return nil, co, err
	}
	if co.Y, err = formInt(r, "y", 0); err != nil {
		return nil, co, err
	}
	if co.Scale, err = formFloat(r, "scale"); err != nil {
		return nil, co, err
	}
	if co.Dither, err = formBool(r, "dither"); err != nil {
		return nil, co, err
	}
	if co.Invert, err = formBool(r, "invert"); err != nil {
		return nil, co, err
	}
	return img, co, nil
}

func (s *Server) jobFromForm(r *http.Request) (convert.Job, error) {
	img, co, err := readUpload(r)
	if err != nil {
		return convert.Job{}, err
	}

	var threshold *int
	if r.FormValue("threshold") != "" {
		t, err := formInt(r, "threshold", bitmap.DefaultThreshold)
		if err != nil {
			return convert.Job{}, err
		}
		threshold = &t
	}
	displayWidth, err := formInt(r, "displayWidth", 0)
	if err != nil {
		return convert.Job{}, err
	}
	displayHeight, err := formInt(r, "displayHeight", 0)
	if err != nil {
		return convert.Job{}, err
	}
	o, err := buildOptions(threshold, r.FormValue("symbol"), r.FormValue("mode"), r.FormValue("flavor"), displayWidth, displayHeight)
	if err != nil {
		return convert.Job{}, err
	}

	sw, sh := canvas.ScaledSize(img.Bounds(), co.Width, co.Height, co.Scale)
	if err := checkSize(sw, sh); err != nil {
		return convert.Job{}, err
	}

	rendered, err := canvas.Render(img, co)
	if err != nil {
		return convert.Job{}, err
	}
	return convert.Job{Pixels: canvas.Pixels(rendered), Width: co.Width, Height: co.Height, Options: o}, nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var job convert.Job
	var err error
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		job, err = s.jobFromJSON(r)
	case "multipart/form-data":
		job, err = s.jobFromForm(r)
	default:
		http.Error(w, "Invalid content type", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	job.Token = s.tokens.Add(1)
	outcome, err := s.worker.Do(r.Context(), job)
	if err != nil {
		s.writeError(w, fmt.Errorf("Conversion didn't complete:\n%w", err))
		return
	}
	if outcome.Err != nil {
		s.writeError(w, outcome.Err)
		return
	}

	packed := outcome.Result.Packed
	d := &history.Document{
		Symbol:    job.Options.Symbol,
		Mode:      packed.Mode(),
		Flavor:    job.Options.Flavor,
		Width:     packed.Width(),
		Height:    packed.Height(),
		Threshold: job.Options.Threshold,
		Length:    packed.Len(),
		Body:      outcome.Result.Document,
	}
	if d.Flavor == codegen.Snippet {
		d.Symbol = codegen.SnippetSymbol(d.Width, d.Height)
	}
	if err := s.repository.Transact(func(tx *sql.Tx) error {
		return s.repository.Create(tx, d)
	}); err != nil {
		s.writeError(w, fmt.Errorf("Couldn't store document:\n%w", err))
		return
	}

	s.logger.Info("Document generated",
		"id", d.Uuid,
		"token", outcome.Token,
		"mode", d.Mode,
		"flavor", d.Flavor,
		"bytes", d.Length,
	)
	s.writeJSON(w, http.StatusCreated, FromDocument(d))
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	img, co, err := readUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sw, sh := canvas.ScaledSize(img.Bounds(), co.Width, co.Height, co.Scale)
	if err := checkSize(sw, sh); err != nil {
		s.writeError(w, err)
		return
	}
	scaled := canvas.Scale(img, sw, sh)
	window := canvas.Clamp(image.Rect(co.X, co.Y, co.X+co.Width, co.Y+co.Height), scaled.Bounds())

	var buf bytes.Buffer
	if err := canvas.ExportPNG(&buf, canvas.Pixels(scaled), sw, sh, window); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": canvas.DefaultPNGName}))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := formInt(r, "limit", defaultListLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if limit <= 0 || limit > 100 {
		s.writeError(w, badRequest("limit must be between 1 and 100"))
		return
	}

	documents, err := s.repository.List(limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]DocumentResponse, len(documents))
	for i := range documents {
		resp[i] = FromDocument(&documents[i])
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func documentId(r *http.Request) (uuid.UUID, error) {
	u, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, badRequest("document id is not a valid UUID")
	}
	return u, nil
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	u, err := documentId(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.repository.Get(u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if d == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no document with id " + u.String()})
		return
	}

	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, FromDocument(d))
		return
	}
	w.Header().Set("Content-Type", "text/x-c; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName()}))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(d.Body))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	u, err := documentId(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var deleted bool
	if err := s.repository.Transact(func(tx *sql.Tx) (err error) {
		deleted, err = s.repository.Delete(tx, u)
		return err
	}); err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no document with id " + u.String()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResolutions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, canvas.Presets)
}
