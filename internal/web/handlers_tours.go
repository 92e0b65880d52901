package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/merchdesk/internal/mastertour"
)

// proxyTour writes the result of one tour API call. Tour API failures
// never touch local data.
func proxyTour[T any](s *Server, w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) (T, error)) {
	if s.tours == nil {
		respondError(w, r, mastertour.ErrNotConfigured, nil)
		return
	}
	v, err := fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleTours(w http.ResponseWriter, r *http.Request) {
	proxyTour(s, w, r, func(ctx context.Context, _ string) ([]mastertour.Tour, error) {
		return s.tours.Tours(ctx)
	})
}

func (s *Server) handleTour(w http.ResponseWriter, r *http.Request) {
	proxyTour(s, w, r, func(ctx context.Context, id string) (mastertour.Tour, error) {
		return s.tours.Tour(ctx, id)
	})
}

func (s *Server) handleTourCrew(w http.ResponseWriter, r *http.Request) {
	proxyTour(s, w, r, func(ctx context.Context, id string) ([]mastertour.CrewMember, error) {
		return s.tours.TourCrew(ctx, id)
	})
}

func (s *Server) handleDayEvents(w http.ResponseWriter, r *http.Request) {
	proxyTour(s, w, r, func(ctx context.Context, id string) ([]mastertour.Event, error) {
		return s.tours.DayEvents(ctx, id)
	})
}

func (s *Server) handleGuestList(w http.ResponseWriter, r *http.Request) {
	proxyTour(s, w, r, func(ctx context.Context, id string) ([]mastertour.GuestListEntry, error) {
		return s.tours.GuestList(ctx, id)
	})
}

func (s *Server) handleSetList(w http.ResponseWriter, r *http.Request) {
	proxyTour(s, w, r, func(ctx context.Context, id string) ([]mastertour.SetListEntry, error) {
		return s.tours.SetList(ctx, id)
	})
}
