package api

import (
	"net/http"

	"tasklist/pkg/task"
)

// taskResponse is a task plus its due-date label, when it has one.
type taskResponse struct {
	task.Task
	Due *task.DueStatus `json:"due,omitempty"`
}

type listResponse struct {
	Tasks   []taskResponse `json:"tasks"`
	Stats   task.Stats     `json:"stats"`
	Version uint64         `json:"version"`
}

func (s *Server) present(t task.Task) taskResponse {
	out := taskResponse{Task: t}
	if st, ok := task.DueDateStatus(t, s.now()); ok {
		out.Due = &st
	}
	return out
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	view := s.repo.View(task.ParseFilter(r.URL.Query().Get("filter")))
	resp := listResponse{
		Tasks:   make([]taskResponse, 0, len(view.Tasks)),
		Stats:   view.Stats,
		Version: view.Version,
	}
	for _, t := range view.Tasks {
		resp.Tasks = append(resp.Tasks, s.present(t))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, ok := s.repo.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, s.present(t))
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var d task.Draft
	if !s.decodeJSON(w, r, &d) {
		return
	}
	if errs := task.ValidateDraft(d, s.now()); len(errs) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}
	t := s.repo.Add(r.Context(), d)
	s.log.Debug("task created", "id", t.ID)
	s.writeJSON(w, http.StatusCreated, s.present(t))
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var p task.Patch
	if !s.decodeJSON(w, r, &p) {
		return
	}
	if errs := task.ValidatePatch(p, s.now()); len(errs) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	var (
		t  task.Task
		ok bool
	)
	if p.Empty() {
		t, ok = s.repo.Get(id)
	} else {
		t, ok = s.repo.Update(r.Context(), id, p)
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, s.present(t))
}

func (s *Server) handleTaskToggle(w http.ResponseWriter, r *http.Request) {
	t, ok := s.repo.Toggle(r.Context(), r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeJSON(w, http.StatusOK, s.present(t))
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if !s.repo.Delete(r.Context(), r.PathValue("id")) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	n := s.repo.ClearCompleted(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.repo.Stats())
}
