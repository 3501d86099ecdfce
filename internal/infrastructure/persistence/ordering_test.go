package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortColumns_OrderBy(t *testing.T) {
	tests := []struct {
		name  string
		field string
		dir   string
		want  string
	}{
		{"whitelisted column ascending", "montant", "asc", "montant ASC"},
		{"direction is case insensitive", "statut", "  ASC ", "statut ASC"},
		{"empty direction sorts descending", "date_emission", "", "date_emission DESC"},
		{"unknown column falls back", "nom_emetteur", "desc", "date_emission DESC"},
		{"injection attempt falls back", "montant; DROP TABLE checks;--", "asc", "date_emission ASC"},
		{"injection in direction is ignored", "montant", "ASC; DELETE FROM checks", "montant DESC"},
		{"empty column falls back", "", "", "date_emission DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkSortColumns.orderBy(tt.field, tt.dir, "date_emission"))
		})
	}
}

func TestProjectSortColumns(t *testing.T) {
	assert.Equal(t, "nom ASC", projectSortColumns.orderBy("nom", "asc", "created_at"))
	assert.Equal(t, "created_at ASC", projectSortColumns.orderBy("password", "asc", "created_at"))
}
