package store

import (
	"database/sql"
	"errors"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// textRowsToArgs converts text rows to argument lists for execBatch.
func textRowsToArgs(rows []TextRow) [][]any {
	args := make([][]any, len(rows))
	for i, r := range rows {
		args[i] = []any{r.ID, r.Text}
	}
	return args
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
