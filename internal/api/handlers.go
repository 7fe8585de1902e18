package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"pickupsched/internal/calendar"
	"pickupsched/internal/export"
	"pickupsched/internal/model"
	"pickupsched/internal/schedule"
)

// RangeResponse is the body of GET /availability.
type RangeResponse struct {
	AffiliateID string                  `json:"affiliate_id"`
	Start       model.Date              `json:"start"`
	End         model.Date              `json:"end"`
	Days        []model.DayAvailability `json:"days"`
}

// ExceptionRequest is the body of PUT /exceptions/{date}. The date comes
// from the path.
type ExceptionRequest struct {
	Type      model.ExceptionType `json:"type"`
	TimeSlots *model.SlotFlags    `json:"time_slots,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// ExceptionResponse carries the stored exception and, when existing orders
// exceed the remaining capacity, an advisory warning.
type ExceptionResponse struct {
	Exception model.DateException    `json:"exception"`
	Warning   *model.ConflictWarning `json:"warning,omitempty"`
}

// SettingsRequest is a partial update; omitted fields keep their value.
type SettingsRequest struct {
	AdvanceBookingDays *int    `json:"advance_booking_days,omitempty"`
	MaxBookingDays     *int    `json:"max_booking_days,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
}

// dateParam parses a required or optional YYYY-MM-DD value.
func dateParam(verr *model.ValidationError, field, raw string, required bool) model.Date {
	if raw == "" {
		if required {
			verr.Add(field, "is required")
		}
		return model.Date{}
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		verr.Add(field, "must be YYYY-MM-DD")
	}
	return d
}

func (s *Server) handleAvailabilityRange(w http.ResponseWriter, r *http.Request) {
	affiliateID := r.PathValue("id")
	verr := &model.ValidationError{}
	start := dateParam(verr, "start", r.URL.Query().Get("start"), true)
	end := dateParam(verr, "end", r.URL.Query().Get("end"), true)
	if verr.HasErrors() {
		writeValidation(w, verr)
		return
	}

	days, err := s.svc.GetAvailableRange(r.Context(), affiliateID, start, end)
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RangeResponse{AffiliateID: affiliateID, Start: start, End: end, Days: days})
}

func (s *Server) handleAvailabilityDay(w http.ResponseWriter, r *http.Request) {
	verr := &model.ValidationError{}
	date := dateParam(verr, "date", r.PathValue("date"), true)
	if verr.HasErrors() {
		writeValidation(w, verr)
		return
	}

	day, err := s.svc.GetDay(r.Context(), r.PathValue("id"), date)
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleAvailabilityExport(w http.ResponseWriter, r *http.Request) {
	affiliateID := r.PathValue("id")
	verr := &model.ValidationError{}
	start := dateParam(verr, "start", r.URL.Query().Get("start"), true)
	end := dateParam(verr, "end", r.URL.Query().Get("end"), true)
	if verr.HasErrors() {
		writeValidation(w, verr)
		return
	}

	days, err := s.svc.GetAvailableRange(r.Context(), affiliateID, start, end)
	if err != nil {
		writeReadError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteAvailability(&buf, affiliateID, days); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	filename := fmt.Sprintf("availability_%s_%s_%s.xlsx", affiliateID, start, end)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	today := s.svc.Today()
	year, month := today.Year, today.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		var err error
		if year, month, err = calendar.ParseMonth(raw); err != nil {
			writeReadError(w, r, err)
			return
		}
	}
	verr := &model.ValidationError{}
	selected := dateParam(verr, "selected", r.URL.Query().Get("selected"), false)
	if verr.HasErrors() {
		writeValidation(w, verr)
		return
	}

	first, last := calendar.MonthRange(year, month)
	days, err := s.svc.GetAvailableRange(r.Context(), r.PathValue("id"), first, last)
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar.Build(calendar.MonthState{
		Year:     year,
		Month:    month,
		Today:    today,
		Days:     days,
		Selected: selected,
	}))
}

func (s *Server) handleEnableScheduling(w http.ResponseWriter, r *http.Request) {
	created, err := s.svc.EnableScheduling(r.Context(), r.PathValue("id"))
	if err != nil {
		writeWriteError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]bool{"created": created})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.GetWeeklyTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	var t model.WeeklyTemplate
	if !decodeBody(w, r, &t) {
		return
	}
	if err := s.svc.SetWeeklyTemplate(r.Context(), r.PathValue("id"), t); err != nil {
		writeWriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListExceptions(w http.ResponseWriter, r *http.Request) {
	verr := &model.ValidationError{}
	from := dateParam(verr, "from", r.URL.Query().Get("from"), false)
	to := dateParam(verr, "to", r.URL.Query().Get("to"), false)
	if verr.HasErrors() {
		writeValidation(w, verr)
		return
	}

	list, err := s.svc.ListExceptions(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": list})
}

func (s *Server) handlePutException(w http.ResponseWriter, r *http.Request) {
	verr := &model.ValidationError{}
	date := dateParam(verr, "date", r.PathValue("date"), true)
	if verr.HasErrors() {
		writeValidation(w, verr)
		return
	}

	var req ExceptionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stored, warning, err := s.svc.AddOrReplaceException(r.Context(), r.PathValue("id"), model.DateException{
		Date:      date,
		Type:      req.Type,
		TimeSlots: req.TimeSlots,
		Reason:    req.Reason,
	})
	if err != nil {
		writeWriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExceptionResponse{Exception: stored, Warning: warning})
}

func (s *Server) handleDeleteException(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveException(r.Context(), r.PathValue("id"), r.PathValue("exceptionID")); err != nil {
		writeWriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetSettings(r.Context(), r.PathValue("id"))
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := s.svc.PatchSettings(r.Context(), r.PathValue("id"), schedule.SettingsPatch{
		AdvanceBookingDays: req.AdvanceBookingDays,
		MaxBookingDays:     req.MaxBookingDays,
		Timezone:           req.Timezone,
	})
	if err != nil {
		writeWriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
