package migrate

import (
	"testing"

	"github.com/baderkha/blazing-transfer/pkg/migrate/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSelect(t *testing.T) {
	tables := []string{"a", "b", "c-three"}
	tests := []struct {
		name   string
		filter Filter
		exp    []string
	}{
		{"no include selects all", Filter{}, []string{"a", "b", "c-three"}},
		{"empty include selects all", Filter{Include: []string{}}, []string{"a", "b", "c-three"}},
		{"glob include", Filter{Include: []string{"*-three"}}, []string{"c-three"}},
		{"exclude wins", Filter{Include: []string{"*"}, Exclude: []string{"c-*"}}, []string{"a", "b"}},
		{"exclude wins on overlap", Filter{Include: []string{"c-three"}, Exclude: []string{"*three"}}, []string{}},
		{"exclude only", Filter{Exclude: []string{"a"}}, []string{"b", "c-three"}},
		{"explicit table", Tables("b"), []string{"b"}},
		{"class", Filter{Include: []string{"[ab]"}}, []string{"a", "b"}},
		{"glob matching nothing", Filter{Include: []string{"z*"}}, []string{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.filter.Select(tables)
			require.NoError(t, err)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestFilterConfigErrors(t *testing.T) {
	tables := []string{"a", "b"}

	_, err := Filter{Include: []string{"[", "a"}, Exclude: []string{"b["}}.Select(tables)
	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), `"["`)
	assert.Contains(t, err.Error(), `"b["`)

	_, err = Tables("a", "missing").Select(tables)
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "table missing does not exist")
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))
}

func TestLiteral(t *testing.T) {
	got, err := Tables("odd*name", "plain").Select([]string{"odd*name", "oddXname", "plain"})
	require.NoError(t, err)
	assert.Equal(t, []string{"odd*name", "plain"}, got)
	assert.Equal(t, `a\*b\?c\[d\\`, Literal(`a*b?c[d\`))
}
