package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sheetcheck/sheetcheck/internal/core"
	"github.com/sheetcheck/sheetcheck/internal/logging"
)

// xlsxContentType is the MIME type for generated report downloads.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// validateRequest is the body for POST /api/validate: the client's
// current edited view of the active sheet.
type validateRequest struct {
	SessionID   string             `json:"sessionId"`
	Rows        []core.Row         `json:"rows"`
	ColumnTypes map[string]*string `json:"columnTypes"`
	Columns     []core.Column      `json:"columns"`
}

// sheetRequest is the body for POST /api/sheet.
type sheetRequest struct {
	SessionID string `json:"sessionId"`
	SheetName string `json:"sheetName"`
}

// removeRequest is the body for POST /api/duplicates/remove. RowIDs
// lists the rows to delete; the first row of each duplicate group is
// kept regardless.
type removeRequest struct {
	SessionID string `json:"sessionId"`
	RowIDs    []int  `json:"rowIds"`
}

// reportRequest is the body for POST /api/report and /api/export: a
// client-side view including unsaved edits.
type reportRequest struct {
	Rows    []core.Row       `json:"rows"`
	Columns []core.Column    `json:"columns"`
	Errors  []core.CellError `json:"errors"`
}

// handleUpload ingests a workbook and opens a new session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrTooLarge, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: no file provided", core.ErrMalformedPayload))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}

	payload, err := s.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("workbook uploaded",
		"filename", header.Filename,
		"size", header.Size,
		"session_id", payload.SessionID,
	)
	writeJSON(w, payload)
}

// handleValidate applies the client's edits and recomputes findings.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.SessionID == "" {
		s.respondError(w, r, fmt.Errorf("%w: sessionId is required", core.ErrMalformedPayload))
		return
	}

	payload, err := s.service.Revalidate(r.Context(), req.SessionID, core.RevalidateRequest{
		Rows:        req.Rows,
		ColumnTypes: req.ColumnTypes,
		Columns:     req.Columns,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	payload.SessionID = req.SessionID
	writeJSON(w, payload)
}

// handleSwitchSheet activates another sheet of the session's workbook.
func (s *Server) handleSwitchSheet(w http.ResponseWriter, r *http.Request) {
	var req sheetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.SessionID == "" || req.SheetName == "" {
		s.respondError(w, r, fmt.Errorf("%w: sessionId and sheetName are required", core.ErrMalformedPayload))
		return
	}

	payload, err := s.service.SwitchSheet(r.Context(), req.SessionID, req.SheetName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	payload.SessionID = req.SessionID
	writeJSON(w, payload)
}

// handleRemoveDuplicates deletes the selected duplicate rows.
func (s *Server) handleRemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.SessionID == "" {
		s.respondError(w, r, fmt.Errorf("%w: sessionId is required", core.ErrMalformedPayload))
		return
	}

	payload, err := s.service.RemoveDuplicates(r.Context(), req.SessionID, req.RowIDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	payload.SessionID = req.SessionID
	writeJSON(w, payload)
}

// handleSessionReport streams the annotated report for a session's
// committed state.
func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		s.respondError(w, r, fmt.Errorf("%w: missing session id", core.ErrMalformedPayload))
		return
	}

	report, filename, err := s.service.SessionReport(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	streamAttachment(w, filename, report)
}

// handlePayloadReport builds the annotated report from the client's
// current edited view, unsaved edits included.
func (s *Server) handlePayloadReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(req.Rows) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: rows are required", core.ErrMalformedPayload))
		return
	}

	report, err := s.service.PayloadReport(r.Context(), req.Columns, req.Rows, req.Errors)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	streamAttachment(w, "validation_report.xlsx", report)
}

// handleExport writes the client's edited rows to a plain workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(req.Rows) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: rows are required", core.ErrMalformedPayload))
		return
	}

	data, err := core.ExportRows(req.Columns, req.Rows)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	streamAttachment(w, "edited_data.xlsx", data)
}

// decodeJSON decodes a request body, mapping any decode failure onto
// the malformed-payload error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrMalformedPayload, err)
	}
	return nil
}

// streamAttachment writes a generated document as a download.
func streamAttachment(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	_, _ = w.Write(data)
}
