package api

import (
	"encoding/json"
	"net/http"

	"taskpulse/pkg/blocked"
	"taskpulse/pkg/category"
	"taskpulse/pkg/stats"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tasks := s.store.List()
	now := s.clock.Now()
	writeJSON(w, 200, map[string]any{
		"overview":    stats.Summarize(tasks, now),
		"by_priority": stats.ByPriority(tasks),
		"by_category": stats.ByCategory(tasks),
		"recent":      stats.Recent(tasks, queryInt(r, "recent", 5)),
	})
}

func (s *Server) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	if days < 1 || days > 90 {
		writeError(w, 400, "days must be between 1 and 90")
		return
	}
	writeJSON(w, 200, stats.Daily(s.store.List(), s.clock.Now(), days))
}

func (s *Server) handleStatsWeekly(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, stats.WeeklyProgress(s.store.List(), s.clock.Now()))
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	if s.cats == nil {
		writeError(w, 404, "categories not configured")
		return
	}
	cats, err := s.cats.List(r.Context(), s.userID)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, cats)
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	if s.cats == nil {
		writeError(w, 404, "categories not configured")
		return
	}
	var c category.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if c.Name == "" {
		writeError(w, 400, "name is required")
		return
	}
	c.UserID = s.userID
	created, err := s.cats.Create(r.Context(), c)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 201, created)
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	if s.cats == nil {
		writeError(w, 404, "categories not configured")
		return
	}
	if err := s.cats.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (s *Server) handleBlockedList(w http.ResponseWriter, r *http.Request) {
	if s.blocked == nil {
		writeError(w, 404, "blocking not configured")
		return
	}
	resources, err := s.blocked.List(r.Context(), s.userID)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, resources)
}

func (s *Server) handleBlockedAdd(w http.ResponseWriter, r *http.Request) {
	if s.blocked == nil {
		writeError(w, 404, "blocking not configured")
		return
	}
	var res blocked.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if res.URL == "" {
		writeError(w, 400, "url is required")
		return
	}
	res.UserID = s.userID
	added, err := s.blocked.Add(r.Context(), res)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 201, added)
}

func (s *Server) handleBlockedRemove(w http.ResponseWriter, r *http.Request) {
	if s.blocked == nil {
		writeError(w, 404, "blocking not configured")
		return
	}
	if err := s.blocked.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

// handleBlockedActive tells enforcement clients whether distractions are
// currently blocked: true while any task timer runs.
func (s *Server) handleBlockedActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]bool{"active": blocked.Active(s.store.List())})
}
