package sqlite

import (
	"strings"

	"github.com/sakif/notes-api/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// noteSelect loads a note together with its author and the author's photo.
// scanNote reads the columns in exactly this order.
const noteSelect = `
	SELECT n.id, n.owner_id, n.text, n.private, n.archived,
	       u.id, u.username, u.is_staff, u.role, f.id, f.url
	FROM note n
	JOIN "user" u ON u.id = n.owner_id
	LEFT JOIN file f ON f.id = u.photo_id`

// noteQuery accumulates WHERE conditions and their arguments.
// Conditions are joined with AND, in the order they were added.
type noteQuery struct {
	conditions []string
	args       []any
}

func (q *noteQuery) where(condition string, args ...any) {
	q.conditions = append(q.conditions, condition)
	q.args = append(q.args, args...)
}

// buildNoteQuery renders a NoteFilter into one SELECT.
//
// Filter order is fixed: visibility scope, tag name, tag-id set, private flag,
// owner username, text substring. A nil filter field adds no condition.
func buildNoteQuery(f repository.NoteFilter) (string, []any) {
	q := &noteQuery{}

	q.where("(n.owner_id = ? OR n.private = 0) AND n.archived = 0", f.Scope.ViewerID)

	if f.TagName != nil {
		q.where(`EXISTS (SELECT 1 FROM note_tags nt JOIN tag t ON t.id = nt.tag_id
			WHERE nt.note_id = n.id AND t.name = ?)`, *f.TagName)
	}

	if f.TagIDs != nil {
		if len(f.TagIDs) == 0 {
			// membership in the empty set
			q.where("1 = 0")
		} else {
			args := make([]any, len(f.TagIDs))
			for i, id := range f.TagIDs {
				args[i] = id
			}
			q.where(`EXISTS (SELECT 1 FROM note_tags nt
				WHERE nt.note_id = n.id AND nt.tag_id IN (`+placeholders(len(f.TagIDs))+`))`, args...)
		}
	}

	if f.Private != nil {
		q.where("n.private = ?", *f.Private)
	}

	if f.Username != nil {
		q.where("u.username = ?", *f.Username)
	}

	if f.Text != nil {
		q.where(`n.text LIKE ? ESCAPE '\'`, "%"+escapeLike(*f.Text)+"%")
	}

	limit, offset := clampPage(f.ListOptions)

	var b strings.Builder
	b.WriteString(noteSelect)
	b.WriteString("\n\tWHERE ")
	b.WriteString(strings.Join(q.conditions, "\n\t  AND "))
	b.WriteString("\n\tORDER BY n.id\n\tLIMIT ? OFFSET ?")

	return b.String(), append(q.args, limit, offset)
}

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// placeholders returns "?, ?, ?" with n question marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// clampPage applies the default and maximum page size.
func clampPage(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
