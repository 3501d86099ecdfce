package persistence

import "strings"

// sortColumns whitelists the columns a list endpoint may order by. Column
// names reach the ORDER BY clause verbatim, so anything outside the list
// falls back to the default.
type sortColumns map[string]bool

var (
	projectSortColumns = sortColumns{
		"created_at": true,
		"updated_at": true,
		"nom":        true,
		"superficie": true,
	}
	checkSortColumns = sortColumns{
		"created_at":        true,
		"numero_cheque":     true,
		"montant":           true,
		"statut":            true,
		"date_emission":     true,
		"date_encaissement": true,
	}
)

// orderBy returns "<column> ASC|DESC". Direction defaults to DESC.
func (c sortColumns) orderBy(field, dir, fallback string) string {
	column := strings.TrimSpace(field)
	if !c[column] {
		column = fallback
	}
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}
