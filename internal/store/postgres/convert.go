package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// text maps "" to NULL so optional columns stay empty rather than blank.
func text(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// fromText reverses text.
func fromText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
