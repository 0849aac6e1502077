package repository

import "strings"

func joinAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}
