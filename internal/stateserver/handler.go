package stateserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"taskline/internal/event"
	"taskline/internal/spool"
	"taskline/internal/timeline"
)

// NewHandler builds the HTTP handler over an open spool.
func NewHandler(sp *spool.Spool, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{spool: sp, log: log, now: time.Now}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tasks", h.listTasks)
	mux.HandleFunc("GET /api/v1/tasks/{id}/snapshot", h.taskSnapshot)
	mux.HandleFunc("GET /api/v1/tasks/{id}/events", h.taskEvents)
	mux.HandleFunc("GET /tasks/{id}", h.serveTask)
	mux.HandleFunc("GET /{$}", h.serveIndex)
	return mux
}

type handler struct {
	spool *spool.Spool
	log   *zap.Logger
	now   func() time.Time
}

// taskJSON is the wire form of a spooled task in list responses.
type taskJSON struct {
	TaskID    string `json:"taskId"`
	Title     string `json:"title,omitempty"`
	Status    string `json:"status,omitempty"`
	LastSeq   int64  `json:"lastSeq"`
	UpdatedAt int64  `json:"updatedAt"`
}

// listTasks returns every spooled task, most recently updated first.
func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	infos, err := h.spool.Tasks(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]taskJSON, 0, len(infos))
	for _, info := range infos {
		out = append(out, taskJSON{
			TaskID:    info.TaskID,
			Title:     info.Title,
			Status:    string(info.Status),
			LastSeq:   info.LastSeq,
			UpdatedAt: info.UpdatedAt.Unix(),
		})
	}
	h.writeJSON(w, out)
}

// taskSnapshot derives and returns the current snapshot for one task.
func (h *handler) taskSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, snap)
}

// taskEvents returns the raw spooled log, optionally after since_seq.
func (h *handler) taskEvents(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	sinceSeq := int64(0)
	if raw := r.URL.Query().Get("since_seq"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid since_seq", http.StatusBadRequest)
			return
		}
		sinceSeq = parsed
	}
	if _, err := h.spool.Task(r.Context(), taskID); err != nil {
		h.fail(w, err)
		return
	}
	events, err := h.spool.Events(r.Context(), taskID, sinceSeq)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, events)
}

// serveIndex renders the HTML task list.
func (h *handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	infos, err := h.spool.Tasks(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(infos).Render(r.Context(), w); err != nil {
		h.log.Warn("render index page", zap.Error(err))
	}
}

// serveTask renders the HTML status page for one task.
func (h *handler) serveTask(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := taskPage(snap).Render(r.Context(), w); err != nil {
		h.log.Warn("render task page", zap.Error(err))
	}
}

// snapshot loads one task from the spool and derives its snapshot. The
// stored executor status only fills in when the log carries no lifecycle
// signal at all.
func (h *handler) snapshot(r *http.Request) (timeline.Snapshot, error) {
	taskID := r.PathValue("id")
	info, err := h.spool.Task(r.Context(), taskID)
	if err != nil {
		return timeline.Snapshot{}, err
	}
	events, err := h.spool.Events(r.Context(), taskID, 0)
	if err != nil {
		return timeline.Snapshot{}, err
	}
	status := timeline.StatusFromLog(events)
	if status == event.StatusPending {
		status = info.Status
	}
	return timeline.Derive(taskID, events, status, h.now()), nil
}

// writeJSON writes a JSON response body.
func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("write response", zap.Error(err))
	}
}

// fail maps an error to an HTTP status and logs server-side problems.
func (h *handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, spool.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.log.Error("request failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
