package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listFamilies(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"families": ids})
}

func (s *Server) linkedIDs(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyID")
	ids, err := s.svc.LinkedIDs(r.Context(), familyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": familyID, "ids": ids})
}

func (s *Server) linkedProperties(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyID")
	props, err := s.svc.LinkedProperties(r.Context(), familyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": familyID, "properties": props})
}

func (s *Server) linkedPatients(w http.ResponseWriter, r *http.Request) {
	linked, err := s.svc.LinkedPatients(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linked)
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Check(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "consistent": report.Consistent()})
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	image, err := s.svc.Image(r.Context(), chi.URLParam(r, "familyID"), r.URL.Query().Get("viewer"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if image == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(image))
}

func (s *Server) unlink(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "familyID")
	patientID := chi.URLParam(r, "patientID")

	removed, err := s.svc.UnlinkPatient(r.Context(), familyID, patientID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"familyId":  familyID,
		"patientId": patientID,
		"removed":   removed,
	})
}
