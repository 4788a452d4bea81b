package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/event-companion-core/internal/checkin"
)

type scanRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleCheckinState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.checkin.State())
}

func (s *Server) handleCheckinStart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.checkin.Start())
}

// handleCheckinScan submits a decoded QR code. Frames arriving after the
// first one of a burst get a 409 with the current state and cause no
// backend call.
func (s *Server) handleCheckinScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	st, err := s.checkin.Scan(r.Context(), req.Code)
	switch {
	case errors.Is(err, checkin.ErrEmptyCode):
		writeBadRequest(w, "empty code")
	case errors.Is(err, checkin.ErrNotScanning), errors.Is(err, checkin.ErrResolving):
		writeJSON(w, http.StatusConflict, st)
	case err != nil:
		writeInternalError(w, "scan failed")
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleCheckinReset(w http.ResponseWriter, _ *http.Request) {
	st, err := s.checkin.Reset()
	if errors.Is(err, checkin.ErrResolving) {
		writeJSON(w, http.StatusConflict, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCheckinStop(w http.ResponseWriter, _ *http.Request) {
	st, err := s.checkin.Stop()
	if errors.Is(err, checkin.ErrResolving) {
		writeJSON(w, http.StatusConflict, st)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCheckinList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.checkin.List(r.Context())
	if err != nil {
		s.writeCheckinListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleCheckinExport returns the booth's check-ins as a CSV download.
func (s *Server) handleCheckinExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.checkin.Export(r.Context(), &buf)
	if err != nil {
		s.writeCheckinListError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="checkins.csv"`)
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(buf.Bytes())
}

func (s *Server) writeCheckinListError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkin.ErrNoOperator):
		writeForbidden(w, msgForbidden)
	case errors.Is(err, checkin.ErrNoCompany):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, checkin.MsgCompanyNotFound)
	default:
		s.logger.Warn("listing check-ins failed", "error", err)
		writeUpstream(w, msgCatalogUnavailable)
	}
}
