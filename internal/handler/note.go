package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/service"
)

// NoteHandler serves /notes. Every route runs behind auth.RequireAuth, so the
// caller taken from the context is always a signed-in user.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

type createNoteRequest struct {
	Text    string `json:"text" validate:"required,max=255"`
	Private *bool  `json:"private"`
}

type updateNoteRequest struct {
	Text    *string `json:"text" validate:"omitempty,max=255"`
	Private *bool   `json:"private"`
}

// tagBatchRequest is the body of PUT and DELETE /notes/{id}/tags.
type tagBatchRequest struct {
	Tags []int64 `json:"tags" validate:"required,min=1,dive,gt=0"`
}

// HandleList returns the caller's visible notes.
//
// HTTP: GET /notes?tag=urgent&tags=1,2&private=true&username=alice&text=milk&limit=20&offset=0
//
// Every filter is optional and they combine with AND.
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	private, err := optionalBool(r, "private")
	if err != nil {
		writeError(w, err)
		return
	}
	tagIDs, err := tagIDsParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	notes, err := h.notes.List(r.Context(), auth.CallerFromContext(r.Context()), service.NoteQuery{
		TagName:  optionalString(r, "tag"),
		TagIDs:   tagIDs,
		Private:  private,
		Username: optionalString(r, "username"),
		Text:     optionalString(r, "text"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleSearch is the substring search.
//
// HTTP: GET /notes/like?text=milk
func (h *NoteHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	notes, err := h.notes.Search(r.Context(), auth.CallerFromContext(r.Context()),
		r.URL.Query().Get("text"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleFilterByTags lists notes having any of the given tag ids.
//
// HTTP: GET /notes/tags?tags=1&tags=2  (or tags=1,2), optional &private=
func (h *NoteHandler) HandleFilterByTags(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tagIDs, err := tagIDsParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	private, err := optionalBool(r, "private")
	if err != nil {
		writeError(w, err)
		return
	}

	notes, err := h.notes.FilterByTags(r.Context(), auth.CallerFromContext(r.Context()), tagIDs, private, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleCreate creates a note owned by the caller.
//
// HTTP: POST /notes
// REQUEST BODY: {"text": "buy milk", "private": false}
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	note, err := h.notes.Create(r.Context(), auth.CallerFromContext(r.Context()), req.Text, req.Private)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// HandleGet returns one note.
//
// HTTP: GET /notes/{id}
func (h *NoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	note, err := h.notes.Get(r.Context(), auth.CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleUpdate edits text and/or private. Fields left out of the body keep
// their value.
//
// HTTP: PUT /notes/{id}
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	note, err := h.notes.Update(r.Context(), auth.CallerFromContext(r.Context()), id, service.UpdateNoteInput{
		Text:    req.Text,
		Private: req.Private,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleArchive soft-deletes a note.
//
// HTTP: DELETE /notes/{id}
func (h *NoteHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	note, err := h.notes.Archive(r.Context(), auth.CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleRestore brings a note back from the archive.
//
// HTTP: PUT /notes/{id}/restore
// 304 Not Modified when the note was not archived.
func (h *NoteHandler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	note, modified, err := h.notes.Restore(r.Context(), auth.CallerFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !modified {
		// A 304 carries no body.
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleAttachTags adds tags to a note.
//
// HTTP: PUT /notes/{id}/tags
// REQUEST BODY: {"tags": [5, 6]}
func (h *NoteHandler) HandleAttachTags(w http.ResponseWriter, r *http.Request) {
	h.tagBatch(w, r, h.notes.AttachTags)
}

// HandleDetachTags removes tags from a note, all or nothing.
//
// HTTP: DELETE /notes/{id}/tags
// REQUEST BODY: {"tags": [5, 6]}
func (h *NoteHandler) HandleDetachTags(w http.ResponseWriter, r *http.Request) {
	h.tagBatch(w, r, h.notes.DetachTags)
}

// tagBatchFunc is the shape shared by NoteService.AttachTags and DetachTags.
type tagBatchFunc func(ctx context.Context, caller model.Caller, id int64, tagIDs []int64) (*model.Note, error)

func (h *NoteHandler) tagBatch(w http.ResponseWriter, r *http.Request, apply tagBatchFunc) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req tagBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	note, err := apply(r.Context(), auth.CallerFromContext(r.Context()), id, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandlePurge permanently deletes a note. Admin only.
//
// HTTP: DELETE /notes/{id}/purge
func (h *NoteHandler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.notes.Purge(r.Context(), auth.CallerFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{ID: id, Deleted: true})
}
