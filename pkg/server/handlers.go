package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/shapecloud/pkg/buildinfo"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/fonts"
	"github.com/matzehuels/shapecloud/pkg/pipeline"
)

// Response headers describing a generated cloud.
const (
	HeaderCache     = "X-Cache"
	HeaderSceneHash = "X-Scene-Hash"
	HeaderWords     = "X-Words"
	HeaderFillRatio = "X-Fill-Ratio"
	HeaderAttempts  = "X-Attempts"
)

// CloudRequest is the body of POST /v1/clouds.
type CloudRequest struct {
	pipeline.Options

	// Format selects the returned artifact. Defaults to svg.
	Format string `json:"format,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleCreateCloud(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	opts, format, err := s.decodeRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, err := s.runner.Execute(ctx, opts)
	if err != nil {
		if StatusCode(err) >= http.StatusInternalServerError {
			s.logger.Error("cloud failed", "request_id", RequestID(ctx), "err", err)
		}
		writeError(w, r, err)
		return
	}

	data, ok := result.Artifacts[string(format)]
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeInternal, "format %s was not rendered", format))
		return
	}

	cacheStatus := "miss"
	if result.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(HeaderCache, cacheStatus)
	h.Set(HeaderSceneHash, result.SceneHash)
	h.Set(HeaderWords, strconv.Itoa(len(result.Scene.Words)))
	h.Set(HeaderFillRatio, strconv.FormatFloat(result.Scene.Stats.FillRatio, 'f', 4, 64))
	h.Set(HeaderAttempts, strconv.Itoa(result.Scene.Stats.Attempts))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeRequest decodes the body onto the default options and resolves the
// requested format and fonts.
func (s *Server) decodeRequest(r *http.Request) (pipeline.Options, sink.Format, error) {
	req := CloudRequest{Options: pipeline.DefaultOptions()}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return req.Options, "", errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", maxErr.Limit)
		}
		if errors.IsConfig(err) {
			return req.Options, "", err
		}
		return req.Options, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	if dec.More() {
		return req.Options, "", errors.New(errors.ErrCodeInvalidInput, "request body must hold a single JSON object")
	}

	opts := req.Options
	format, err := requestFormat(req.Format, opts.Formats)
	if err != nil {
		return opts, "", err
	}
	opts.Formats = []string{string(format)}
	opts.Mask = false

	if opts.Font, err = s.resolveFont(opts.Font); err != nil {
		return opts, "", err
	}
	if opts.WordFont != "" {
		if opts.WordFont, err = s.resolveFont(opts.WordFont); err != nil {
			return opts, "", err
		}
	}
	return opts, format, nil
}

// requestFormat picks the single returned format from "format" or a
// one-element "formats".
func requestFormat(format string, formats []string) (sink.Format, error) {
	if format == "" {
		switch len(formats) {
		case 0:
			return sink.FormatSVG, nil
		case 1:
			format = formats[0]
		default:
			return "", errors.New(errors.ErrCodeInvalidInput, "exactly one format per request, got %s", strings.Join(formats, ","))
		}
	}
	return sink.ParseFormat(format)
}

// resolveFont maps a client font name to a font source. Embedded fonts are
// always allowed; file names are resolved inside the font directory.
func (s *Server) resolveFont(name string) (string, error) {
	if fonts.IsDefault(name) || strings.HasPrefix(name, "embed:") {
		return name, nil
	}
	if s.fontDir == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "custom fonts are not enabled on this server")
	}
	if err := errors.ValidatePath(name); err != nil {
		return "", fmt.Errorf("font: %w", err)
	}
	return filepath.Join(s.fontDir, filepath.FromSlash(name)), nil
}
