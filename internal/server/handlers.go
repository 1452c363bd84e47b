package server

import (
	"encoding/json"
	"net/http"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/refdata"
	"github.com/visavoyage/visavoyage/pkg/report"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok, err := s.DB.GetUserProfile(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	if !ok {
		http.Error(w, "no profile saved yet", http.StatusNotFound)
		return
	}
	writeJSON(w, profile)
}

func (s *Server) handleStays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, _, err := s.DB.GetUserProfile(ctx)
	if err != nil {
		serverError(w, err)
		return
	}
	stays, err := s.DB.GetStays(ctx)
	if err != nil {
		serverError(w, err)
		return
	}
	cache, err := s.DB.GetRuleCache(ctx)
	if err != nil {
		serverError(w, err)
		return
	}

	countries, err := s.countries(ctx)
	if err != nil {
		// Stays still render, by country code.
		utils.Log.Warnf("Could not load countries catalog: %v", err)
	}

	writeJSON(w, report.BuildRows(stays, refdata.Lookup(countries), profile, cache))
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.countries(r.Context())
	if err != nil {
		utils.Log.Errorf("Could not load countries catalog: %v", err)
		http.Error(w, "reference data unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, countries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Warnf("Failed to write response: %v", err)
	}
}

func serverError(w http.ResponseWriter, err error) {
	utils.Log.Errorf("Request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
