// Package policy decides which notes a caller may see and change.
//
// Every rule here is a pure function of (caller, note). The same visibility
// rule exists twice: Visible evaluates it on one loaded note, VisibleScope
// hands it to the query builder so listings filter in SQL. The property tests
// in internal/service keep the two in agreement.
//
// TWO-STEP LOOKUP:
// Callers first resolve the note by id (a missing id is NotFound), then call
// Check. A denied read is reported as NotFound too, so a private note cannot be
// told apart from a missing one. A denied write is Forbidden: the caller could
// already see the note, so there is nothing left to hide.
package policy

import (
	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// Action is what the caller wants to do with a note.
type Action int

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

// VisibleScope returns the base note set for listings:
// (owner == caller OR public) AND NOT archived.
func VisibleScope(caller model.Caller) repository.Scope {
	return repository.Scope{ViewerID: caller.UserID}
}

// Visible reports whether note belongs to the caller's visible set.
func Visible(caller model.Caller, note *model.Note) bool {
	if note.Archived {
		return false
	}
	return caller.Is(note.OwnerID) || !note.Private
}

// CanRead reports whether the caller may fetch the note by id.
// Owners always can, archived or not.
func CanRead(caller model.Caller, note *model.Note) bool {
	return caller.Is(note.OwnerID) || Visible(caller, note)
}

// CanWrite reports whether the caller may edit, archive, or retag the note.
func CanWrite(caller model.Caller, note *model.Note) bool {
	return caller.Is(note.OwnerID)
}

// CanRestore reports whether the caller may bring the note back from the archive.
func CanRestore(caller model.Caller, note *model.Note) bool {
	return CanWrite(caller, note) && note.Archived
}

// Check returns nil when the caller may perform action on note.
//
// A write by a caller who cannot even read the note is still NotFound.
func Check(caller model.Caller, note *model.Note, action Action) error {
	if !CanRead(caller, note) {
		return apperror.NotFound("note", note.ID)
	}
	if action == Write && !CanWrite(caller, note) {
		return apperror.Forbidden("only the owner can modify this note")
	}
	return nil
}
