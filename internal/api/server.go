package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/Schedulo/internal/ical"
	"github.com/Kerhoff/Schedulo/internal/models"
	"github.com/Kerhoff/Schedulo/internal/provider"
	"github.com/Kerhoff/Schedulo/internal/repository"
	"github.com/Kerhoff/Schedulo/internal/service"
)

// Server provides the HTTP API.
type Server struct {
	svc    *service.Service
	logger *logrus.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Events
	s.mux.HandleFunc("GET /api/events", instrument("list_events", s.handleGetEvents))
	s.mux.HandleFunc("GET /api/events/grouped", instrument("grouped_events", s.handleGetGroupedEvents))
	s.mux.HandleFunc("GET /api/events/upcoming", instrument("upcoming_events", s.handleGetUpcomingEvents))
	s.mux.HandleFunc("GET /api/events/{id}", instrument("get_event", s.handleGetEvent))
	s.mux.HandleFunc("POST /api/events", instrument("create_event", s.handleCreateEvent))
	s.mux.HandleFunc("PUT /api/events/{id}", instrument("update_event", s.handleUpdateEvent))
	s.mux.HandleFunc("DELETE /api/events/{id}", instrument("delete_event", s.handleDeleteEvent))

	// API – Calendars
	s.mux.HandleFunc("GET /api/calendars", instrument("list_calendars", s.handleGetCalendars))

	// Feeds & operational endpoints
	s.mux.HandleFunc("GET /calendar.ics", instrument("ics_feed", s.handleICSFeed))
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service/repository failure onto an HTTP status.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	s.respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTitleRequired), errors.Is(err, repository.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrCalendarUnavailable):
		return http.StatusConflict
	case errors.Is(err, repository.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ---------------------------------------------------------------------------
// Event handlers
// ---------------------------------------------------------------------------

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	var (
		events []*models.Event
		err    error
	)
	if month := r.URL.Query().Get("month"); month != "" {
		events, err = s.svc.MonthEvents(month)
	} else {
		events, err = s.svc.ListEvents(r.URL.Query().Get("q"))
	}
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	s.respondJSON(w, http.StatusOK, events)
}

// listEntry is the wire form of a models.ListItem: the kind field tells the
// consumer which of the remaining fields are meaningful.
type listEntry struct {
	Kind  models.ListItemKind `json:"kind"`
	Month int                 `json:"month,omitempty"`
	Year  int                 `json:"year,omitempty"`
	Event *models.Event       `json:"event,omitempty"`
}

func toListEntries(items []models.ListItem) []listEntry {
	entries := make([]listEntry, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case models.MonthHeader:
			entries = append(entries, listEntry{Kind: v.Kind(), Month: v.Month, Year: v.Year})
		case models.EventItem:
			entries = append(entries, listEntry{Kind: v.Kind(), Event: v.Event})
		}
	}
	return entries
}

func (s *Server) handleGetGroupedEvents(w http.ResponseWriter, r *http.Request) {
	var (
		items []models.ListItem
		err   error
	)
	if month := r.URL.Query().Get("month"); month != "" {
		items, err = s.svc.MonthListing(month)
	} else {
		var events []*models.Event
		events, err = s.svc.ListEvents("")
		if err == nil {
			items = s.svc.GroupByMonth(events)
		}
	}
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toListEntries(items))
}

func (s *Server) handleGetUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.UpcomingEvents()
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	event, err := s.svc.EventByID(id)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if event == nil {
		s.respondError(w, http.StatusNotFound, "event not found")
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if ok, msg := s.decodeJSON(r, &event); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	event.ID = 0

	if _, err := s.svc.CreateEvent(&event); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var event models.Event
	if ok, msg := s.decodeJSON(r, &event); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	event.ID = id

	if err := s.svc.UpdateEvent(&event); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	if err := s.svc.DeleteEvent(&models.Event{ID: id}); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// ---------------------------------------------------------------------------
// Calendars, feed, health
// ---------------------------------------------------------------------------

func (s *Server) handleGetCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := s.svc.Calendars()
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if calendars == nil {
		calendars = []models.CalendarInfo{}
	}
	s.respondJSON(w, http.StatusOK, calendars)
}

func (s *Server) handleICSFeed(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListEvents("")
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedulo.ics"`)
	fmt.Fprint(w, ical.Format("Schedulo", events))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
