package core

// service.go orchestrates the validation engine, duplicate detector,
// and session store behind the operations the transport layer exposes.
//
// Every mutating operation rebuilds a complete sheet state (columns,
// rows, errors, duplicate groups) and commits it in one assignment, so
// callers either see the fully refreshed state or the prior one. No
// mutation ever returns a payload containing stale rowId references.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sheetcheck/sheetcheck/internal/config"
)

// Service is the entry point for workbook validation sessions.
type Service struct {
	store     *SessionStore
	threshold float64
	maxRows   int
}

// NewService creates a Service. A nil config uses defaults, which is
// convenient for tests and the offline CLI.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		store:     NewSessionStore(),
		threshold: DefaultAcceptanceThreshold,
	}
	if cfg != nil {
		s.threshold = cfg.Inference.AcceptanceThreshold
		s.maxRows = cfg.Upload.MaxRows
	}
	return s
}

// Store exposes the session store for lifecycle management (janitor,
// tests). Handlers should go through the Service operations instead.
func (s *Service) Store() *SessionStore {
	return s.store
}

// RevalidateRequest carries the client's current edited view for a
// validate call: edited rows, per-column override tokens, and the
// column list (used for renames and override changes).
type RevalidateRequest struct {
	Rows        []Row
	ColumnTypes map[string]*string
	Columns     []Column
}

// Upload parses an uploaded workbook, infers column types for the first
// sheet, computes findings, and registers a new session.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (Payload, error) {
	sheetNames, err := SheetNames(data, filename)
	if err != nil {
		return Payload{}, err
	}

	active := sheetNames[0]
	state, err := s.ingestSheet(data, filename, active)
	if err != nil {
		return Payload{}, err
	}

	sess := &Session{
		Filename:    filename,
		Workbook:    data,
		SheetNames:  sheetNames,
		ActiveSheet: active,
		Sheet:       state,
		saved:       make(map[string]SheetState),
	}
	id := s.store.Create(sess)

	slog.InfoContext(ctx, "session created",
		"session_id", id,
		"filename", filename,
		"sheets", len(sheetNames),
		"rows", len(state.Rows),
		"columns", len(state.Columns),
	)

	p := payloadFor(sess)
	p.SessionID = id
	return p, nil
}

// Revalidate replaces the active sheet's rows and column definitions
// with the client's edited view and recomputes errors and duplicate
// groups from scratch. Detected types never change here; overrides are
// the mechanism for retyping a column.
func (s *Service) Revalidate(ctx context.Context, sessionID string, req RevalidateRequest) (Payload, error) {
	var p Payload
	err := s.store.WithSession(sessionID, func(sess *Session) error {
		columns, err := mergeColumns(sess.Sheet.Columns, req.Columns)
		if err != nil {
			return err
		}

		rows := req.Rows
		if rows == nil {
			rows = sess.Sheet.Rows
		}
		rows = rekeyRenamedColumns(sess.Sheet.Columns, columns, rows)

		if err := applyOverrides(columns, req.ColumnTypes); err != nil {
			return err
		}

		state := SheetState{Columns: columns, Rows: rows}
		state.Errors = ValidateSheet(columns, rows)
		state.DuplicateGroups = FindDuplicates(rows, columnNames(columns))

		sess.Sheet = state
		p = payloadFor(sess)
		return nil
	})
	if err != nil {
		return Payload{}, err
	}
	return p, nil
}

// SwitchSheet makes another sheet of the workbook active. The outgoing
// sheet's committed state is stashed and restored verbatim when the
// analyst switches back; sheets visited for the first time are parsed
// and inferred fresh from the stored workbook bytes.
func (s *Service) SwitchSheet(ctx context.Context, sessionID, sheetName string) (Payload, error) {
	var p Payload
	err := s.store.WithSession(sessionID, func(sess *Session) error {
		if !containsSheet(sess.SheetNames, sheetName) {
			return fmt.Errorf("%w: %q", ErrUnknownSheet, sheetName)
		}
		if sheetName == sess.ActiveSheet {
			p = payloadFor(sess)
			return nil
		}

		var state SheetState
		if stashed, ok := sess.saved[sheetName]; ok {
			state = stashed
		} else {
			ingested, err := s.ingestSheet(sess.Workbook, sess.Filename, sheetName)
			if err != nil {
				return err
			}
			state = ingested
		}

		sess.saved[sess.ActiveSheet] = sess.Sheet
		delete(sess.saved, sheetName)
		sess.ActiveSheet = sheetName
		sess.Sheet = state
		p = payloadFor(sess)
		return nil
	})
	if err != nil {
		return Payload{}, err
	}
	return p, nil
}

// RemoveDuplicates deletes the requested rows from the active sheet.
// The first row of every duplicate group survives regardless of the
// request, survivors are renumbered densely from zero, and errors and
// groups are recomputed before the payload is returned.
func (s *Service) RemoveDuplicates(ctx context.Context, sessionID string, rowIDs []int) (Payload, error) {
	var p Payload
	err := s.store.WithSession(sessionID, func(sess *Session) error {
		names := columnNames(sess.Sheet.Columns)
		rows := RemoveRows(sess.Sheet.Rows, names, rowIDs)

		state := SheetState{Columns: sess.Sheet.Columns, Rows: rows}
		state.Errors = ValidateSheet(state.Columns, rows)
		state.DuplicateGroups = FindDuplicates(rows, names)

		removed := len(sess.Sheet.Rows) - len(rows)
		sess.Sheet = state
		p = payloadFor(sess)

		slog.InfoContext(ctx, "duplicates removed",
			"session_id", sessionID,
			"rows_removed", removed,
			"groups_remaining", len(state.DuplicateGroups),
		)
		return nil
	})
	if err != nil {
		return Payload{}, err
	}
	return p, nil
}

// SessionReport builds the annotated report from a session's committed
// active-sheet state. Read-only: session state is not modified.
func (s *Service) SessionReport(ctx context.Context, sessionID string) ([]byte, string, error) {
	var report []byte
	var filename string
	err := s.store.WithSession(sessionID, func(sess *Session) error {
		data, err := BuildReport(sess.Sheet.Columns, sess.Sheet.Rows, sess.Sheet.Errors, sess.Sheet.DuplicateGroups)
		if err != nil {
			return err
		}
		report = data
		filename = reportFilename(sess.Filename)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return report, filename, nil
}

// PayloadReport builds the annotated report from a client-supplied view
// (including unsaved edits). Duplicate groups are recomputed from the
// given rows so the Duplicates view always matches the data table.
func (s *Service) PayloadReport(ctx context.Context, columns []Column, rows []Row, errs []CellError) ([]byte, error) {
	groups := FindDuplicates(rows, columnNames(columns))
	return BuildReport(columns, rows, errs, groups)
}

// ingestSheet parses one sheet and runs inference, validation, and
// duplicate detection over it.
func (s *Service) ingestSheet(data []byte, filename, sheetName string) (SheetState, error) {
	parsed, err := ParseSheet(data, filename, sheetName)
	if err != nil {
		return SheetState{}, err
	}
	if s.maxRows > 0 && len(parsed.Rows) > s.maxRows {
		return SheetState{}, fmt.Errorf("%w: sheet %q has %d rows (limit %d)",
			ErrTooLarge, sheetName, len(parsed.Rows), s.maxRows)
	}

	detected := DetectTypes(parsed.Rows, parsed.Columns, s.threshold)
	columns := make([]Column, len(parsed.Columns))
	for i, name := range parsed.Columns {
		columns[i] = Column{Name: name, DetectedType: detected[name]}
	}

	state := SheetState{Columns: columns, Rows: parsed.Rows}
	state.Errors = ValidateSheet(columns, parsed.Rows)
	state.DuplicateGroups = FindDuplicates(parsed.Rows, parsed.Columns)
	return state, nil
}

// mergeColumns folds the client's column list into the session's. An
// absent client list keeps the current columns. Provided entries keep
// their prior detected type when the client omits one, and override
// tokens are validated rather than silently dropped.
func mergeColumns(current []Column, incoming []Column) ([]Column, error) {
	if incoming == nil {
		return append([]Column(nil), current...), nil
	}

	detectedByName := make(map[string]CellType, len(current))
	for _, col := range current {
		detectedByName[col.Name] = col.DetectedType
	}

	merged := make([]Column, len(incoming))
	for i, col := range incoming {
		if strings.TrimSpace(col.Name) == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrMalformedPayload, i)
		}
		if col.DetectedType == "" {
			// Renames arrive positionally; fall back to the previous
			// column at this index, then to string.
			if prior, ok := detectedByName[col.Name]; ok {
				col.DetectedType = prior
			} else if i < len(current) {
				col.DetectedType = current[i].DetectedType
			} else {
				col.DetectedType = TypeString
			}
		}
		if _, ok := ParseCellType(string(col.DetectedType)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOverrideType, col.DetectedType)
		}
		if col.OverrideType != nil {
			t, ok := ParseCellType(string(*col.OverrideType))
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrInvalidOverrideType, *col.OverrideType)
			}
			col.OverrideType = &t
		}
		merged[i] = col
	}

	if err := checkUniqueNames(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// applyOverrides applies name-keyed override tokens. A nil or empty
// token clears the override; an unrecognized token is rejected.
// Overrides for unknown columns are ignored.
func applyOverrides(columns []Column, overrides map[string]*string) error {
	if len(overrides) == 0 {
		return nil
	}
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col.Name] = i
	}

	for name, token := range overrides {
		i, ok := index[name]
		if !ok {
			continue
		}
		if token == nil || strings.TrimSpace(*token) == "" {
			columns[i].OverrideType = nil
			continue
		}
		t, ok := ParseCellType(*token)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidOverrideType, *token)
		}
		columns[i].OverrideType = &t
	}
	return nil
}

// rekeyRenamedColumns propagates positional column renames to row value
// keys, so a rename never strands values under the old name.
func rekeyRenamedColumns(before, after []Column, rows []Row) []Row {
	if len(before) != len(after) {
		return rows
	}
	renames := make(map[string]string)
	for i := range after {
		if before[i].Name != after[i].Name {
			renames[before[i].Name] = after[i].Name
		}
	}
	if len(renames) == 0 {
		return rows
	}

	rekeyed := make([]Row, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(row.Values))
		for key, v := range row.Values {
			if newName, renamed := renames[key]; renamed {
				if _, exists := row.Values[newName]; !exists {
					key = newName
				}
			}
			values[key] = v
		}
		rekeyed[i] = Row{RowID: row.RowID, Values: values}
	}
	return rekeyed
}

func checkUniqueNames(columns []Column) error {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("%w: duplicate column name %q", ErrMalformedPayload, col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}

func columnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	return names
}

func containsSheet(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func payloadFor(sess *Session) Payload {
	return Payload{
		SheetName:       sess.ActiveSheet,
		SheetNames:      sess.SheetNames,
		Columns:         sess.Sheet.Columns,
		Rows:            sess.Sheet.Rows,
		Errors:          sess.Sheet.Errors,
		DuplicateGroups: sess.Sheet.DuplicateGroups,
	}
}

func reportFilename(uploaded string) string {
	base := uploaded
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "workbook"
	}
	return base + "_report.xlsx"
}
