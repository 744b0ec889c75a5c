package http

import (
	"errors"
	"net/http"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/recurrence"
	"scadenze/internal/source"
)

const maxReportedRowErrors = 20

// ImportResult is the body returned by POST /api/transactions.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// NextOccurrence is the body returned by /api/series/{id}/next.
type NextOccurrence struct {
	SeriesID string    `json:"seriesId"`
	After    core.Date `json:"after"`
	Date     core.Date `json:"date"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Backend not ready", applog.FieldError, err)
			ServiceUnavailableError("backend not ready").Write(w)
			return
		}
	}
	OK(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.calendar.ListRecurringSeries(r.Context())
	if err != nil {
		s.internalError(w, r, applog.OpList, "List recurring series failed", err)
		return
	}
	if series == nil {
		series = []core.RecurringSeries{}
	}
	OK(series).Write(w)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	series, ok := s.lookupSeries(w, r)
	if !ok {
		return
	}
	OK(series).Write(w)
}

func (s *Server) handleNextOccurrence(w http.ResponseWriter, r *http.Request) {
	after, err := ParseDateParam(r.URL.Query(), "after", s.calendar.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	series, ok := s.lookupSeries(w, r)
	if !ok {
		return
	}
	next, found := s.calendar.NextOccurrenceAfter(series, after)
	if !found {
		NotFoundError("no upcoming occurrence").Write(w)
		return
	}
	OK(NextOccurrence{SeriesID: series.ID, After: after, Date: next}).Write(w)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.calendar.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	projection, err := s.calendar.ProjectMonth(r.Context(), params.Year, params.Month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			BadRequestError(err.Error()).Write(w)
			return
		}
		s.internalError(w, r, applog.OpProject, "Month projection failed", err)
		return
	}
	OK(projection).Write(w)
}

func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	rng, err := ParseRangeParams(r.URL.Query(), s.calendar.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	occurrences, err := s.calendar.Occurrences(r.Context(), rng.From, rng.To)
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidRange) || errors.Is(err, recurrence.ErrRangeTooLarge) {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		s.internalError(w, r, applog.OpProject, "List occurrences failed", err)
		return
	}
	if occurrences == nil {
		occurrences = []core.ProjectedOccurrence{}
	}
	OK(occurrences).Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		NotImplementedError(source.ErrImportUnsupported.Error()).Write(w)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	txs, rowErrs, err := source.ParseCSV(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
			return
		}
		BadRequestError("invalid CSV", err.Error()).Write(w)
		return
	}

	imported, err := s.importer.ImportTransactions(r.Context(), txs)
	if err != nil {
		s.internalError(w, r, applog.OpImport, "Import transactions failed", err)
		return
	}

	result := ImportResult{
		Imported: imported,
		Skipped:  len(rowErrs) + len(txs) - imported,
	}
	for i, re := range rowErrs {
		if i == maxReportedRowErrors {
			break
		}
		result.Errors = append(result.Errors, re.Error())
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transactions imported",
		applog.FieldOperation, applog.OpImport,
		applog.FieldCount, imported,
		"skipped", result.Skipped)
	OK(result).Write(w)
}

func (s *Server) lookupSeries(w http.ResponseWriter, r *http.Request) (core.RecurringSeries, bool) {
	id := r.PathValue("id")
	series, found, err := s.calendar.Series(r.Context(), id)
	if err != nil {
		s.internalError(w, r, applog.OpList, "Series lookup failed", err)
		return core.RecurringSeries{}, false
	}
	if !found {
		NotFoundError("series not found").Write(w)
		return core.RecurringSeries{}, false
	}
	return series, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op, msg string, err error) {
	applog.LogError(r.Context(), msg, err, op, applog.NewFields().WithClientIP(r.RemoteAddr))
	InternalServerError("internal error").Write(w)
}
