package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskpulse/pkg/store"
	"taskpulse/pkg/task"
	"taskpulse/pkg/timer"
)

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	tasks := s.store.List()
	if filter == "" || filter == "all" {
		writeJSON(w, 200, tasks)
		return
	}

	filtered := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		switch filter {
		case "active":
			if !t.Completed {
				filtered = append(filtered, t)
			}
		case "completed":
			if t.Completed {
				filtered = append(filtered, t)
			}
		default: // a category name
			if t.Category == filter {
				filtered = append(filtered, t)
			}
		}
	}
	writeJSON(w, 200, filtered)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, 404, "task not found")
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if t.Title == "" {
		writeError(w, 400, "title is required")
		return
	}
	if t.TimerDuration < 0 {
		writeError(w, 400, "timer_duration must be positive")
		return
	}
	writeJSON(w, 201, s.store.Create(t))
}

// handleTaskUpdate merges the request body over the current task, so a PATCH
// only touches the fields it names. Explicit nulls still clear pointer fields.
func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	patch, ok := s.store.Get(id)
	if !ok {
		writeError(w, 404, "task not found")
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	t, err := s.store.Update(id, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "deleted"})
}

func (s *Server) handleTaskToggle(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.ToggleComplete(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	s.timerCommand(w, r, s.store.StartTimer)
}

func (s *Server) handleTimerPause(w http.ResponseWriter, r *http.Request) {
	s.timerCommand(w, r, s.store.PauseTimer)
}

func (s *Server) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	s.timerCommand(w, r, s.store.StopTimer)
}

func (s *Server) timerCommand(w http.ResponseWriter, r *http.Request, cmd func(string) (task.Task, error)) {
	t, err := cmd(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

// handleTimerGet reports the countdown projection for one task.
func (s *Server) handleTimerGet(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, 404, "task not found")
		return
	}
	now := s.clock.Now()
	remaining := timer.Remaining(t, now)
	writeJSON(w, 200, map[string]any{
		"status":    t.TimerStatus,
		"remaining": remaining,
		"elapsed":   timer.Elapsed(t, now),
		"display":   timer.FormatSeconds(remaining),
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, 404, err.Error())
		return
	}
	writeError(w, 500, err.Error())
}
