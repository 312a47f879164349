// Package api implements the REST handlers over the service layer and maps
// the domain error taxonomy onto HTTP status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/crewdeck/crewdeck/person"
	"github.com/crewdeck/crewdeck/project"
	"github.com/crewdeck/crewdeck/service"
	"github.com/crewdeck/crewdeck/task"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Persons  *service.PersonService
	Projects *service.ProjectService
	Tasks    *service.TaskService

	// Actor extracts the authenticated person from the request context.
	Actor func(ctx context.Context) *person.Person

	Logger  *slog.Logger
	Version string
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/persons", h.listPersons)
	mux.HandleFunc("POST /api/persons", h.createPerson)
	mux.HandleFunc("GET /api/persons/{id}", h.getPerson)
	mux.HandleFunc("PATCH /api/persons/{id}/role", h.changeRole)
	mux.HandleFunc("PATCH /api/persons/{id}/active", h.setActive)
	mux.HandleFunc("DELETE /api/persons/{id}", h.deletePerson)

	mux.HandleFunc("GET /api/projects", h.searchProjects)
	mux.HandleFunc("POST /api/projects", h.createProject)
	mux.HandleFunc("GET /api/projects/{id}", h.getProject)
	mux.HandleFunc("PATCH /api/projects/{id}", h.updateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", h.deleteProject)
	mux.HandleFunc("POST /api/projects/{id}/collaborators", h.addCollaborator)
	mux.HandleFunc("DELETE /api/projects/{id}/collaborators/{personID}", h.removeCollaborator)
	mux.HandleFunc("POST /api/projects/{id}/collaborators/sync", h.syncCollaborators)
	mux.HandleFunc("PATCH /api/projects/{id}/archived", h.setArchived)
	mux.HandleFunc("GET /api/projects/{id}/tasks", h.listProjectTasks)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/status", h.updateTaskStatus)
	mux.HandleFunc("POST /api/tasks/{id}/comments", h.addComment)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)

	mux.HandleFunc("GET /api/version", h.version)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a domain error to a response. NotFound becomes 404,
// Validation 400, Transition and Conflict 409, Authorization 403.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var (
		notFound   *service.NotFoundError
		validation *service.ValidationError
		transition *service.TransitionError
		authz      *service.AuthorizationError
		conflict   *service.ConflictError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &authz):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("internal error", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// requireAdmin writes a 403 and returns false unless the actor is an admin.
func (h *Handlers) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor := h.Actor(r.Context())
	if actor == nil || actor.Role != person.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

// --- Person handlers ---

func (h *Handlers) listPersons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := person.Filter{}
	if v := q.Get("role"); v != "" {
		role := person.Role(v)
		filter.Role = &role
	}
	if v := q.Get("active"); v != "" {
		active := v == "true"
		filter.Active = &active
	}
	persons, err := h.Persons.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if persons == nil {
		persons = []*person.Person{}
	}
	writeJSON(w, http.StatusOK, persons)
}

func (h *Handlers) createPerson(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		Username string      `json:"username"`
		FullName string      `json:"full_name"`
		Role     person.Role `json:"role"`
		Password string      `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	var hash string
	if req.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		hash = string(b)
	}
	p, err := h.Persons.Register(r.Context(), service.Registration{
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         req.Role,
		PasswordHash: hash,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) getPerson(w http.ResponseWriter, r *http.Request) {
	p, err := h.Persons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) changeRole(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		Role person.Role `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.Persons.ChangeRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) setActive(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.Persons.SetActive(r.Context(), r.PathValue("id"), req.Active)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) deletePerson(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.Persons.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Project handlers ---

func (h *Handlers) searchProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.SearchFilter{
		Text:            q.Get("q"),
		IncludeArchived: q.Get("include_archived") == "true",
	}
	if v := q.Get("status"); v != "" {
		status := project.Status(v)
		filter.Status = &status
	}
	projects, err := h.Projects.Search(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handlers) createProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		LeaderID    string `json:"leader_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.Projects.Create(r.Context(), req.Name, req.Description, req.LeaderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) updateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string         `json:"name"`
		Description *string         `json:"description"`
		LeaderID    *string         `json:"leader_id"`
		Status      *project.Status `json:"status"`
		StartDate   *time.Time      `json:"start_date"`
		EndDate     *time.Time      `json:"end_date"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.Projects.Update(r.Context(), r.PathValue("id"), service.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    req.LeaderID,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.Projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) addCollaborator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonID string `json:"person_id"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.Projects.AddCollaborator(r.Context(), r.PathValue("id"), req.PersonID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) removeCollaborator(w http.ResponseWriter, r *http.Request) {
	if err := h.Projects.RemoveCollaborator(r.Context(), r.PathValue("id"), r.PathValue("personID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) syncCollaborators(w http.ResponseWriter, r *http.Request) {
	added, err := h.Projects.SyncCollaboratorsFromTasks(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (h *Handlers) setArchived(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Archived bool `json:"archived"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p, err := h.Projects.SetArchived(r.Context(), r.PathValue("id"), req.Archived)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) listProjectTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context(), task.Filter{ProjectID: r.PathValue("id")})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// --- Task handlers ---

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := task.Filter{
		ProjectID:  q.Get("project_id"),
		AssignedTo: q.Get("assigned_to"),
	}
	if v := q.Get("status"); v != "" {
		status := task.Status(v)
		filter.Status = &status
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	tasks, err := h.Tasks.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	actor := h.Actor(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		Title       string        `json:"title"`
		Description string        `json:"description"`
		ProjectID   string        `json:"project_id"`
		AssignedTo  string        `json:"assigned_to"`
		Priority    task.Priority `json:"priority"`
		DueDate     *time.Time    `json:"due_date"`
		Tags        []string      `json:"tags"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Tasks.Create(r.Context(), service.TaskCreate{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   actor.ID,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string        `json:"title"`
		Description *string        `json:"description"`
		AssignedTo  *string        `json:"assigned_to"`
		Priority    *task.Priority `json:"priority"`
		DueDate     *time.Time     `json:"due_date"`
		Tags        *[]string      `json:"tags"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Tasks.Update(r.Context(), r.PathValue("id"), service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	actor := h.Actor(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		Status task.Status `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Tasks.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, actor.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) addComment(w http.ResponseWriter, r *http.Request) {
	actor := h.Actor(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Tasks.AddComment(r.Context(), r.PathValue("id"), actor.ID, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Status / version ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}

// StatusHandler returns the status handler function for external registration.
func (h *Handlers) StatusHandler() http.HandlerFunc {
	return h.status
}

func (h *Handlers) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": h.Version,
	})
}
