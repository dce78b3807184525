package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    *Operation
		wantErr string
	}{
		{
			name:  "named query with variables",
			query: `query GetCharacters($page: Int, $name: String) { characters(page: $page, filter: { name: $name }) { info { next } } }`,
			want: &Operation{
				Name:      "GetCharacters",
				Kind:      "query",
				Variables: []string{"name", "page"},
			},
		},
		{
			name:    "anonymous operation",
			query:   `{ characters { info { count } } }`,
			wantErr: "operation must be named",
		},
		{
			name:    "two operations",
			query:   `query A { a } query B { b }`,
			wantErr: "exactly one operation",
		},
		{
			name:    "syntax error",
			query:   `query Broken( { }`,
			wantErr: "parsing document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Document(tt.query)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, op.Name)
			assert.Equal(t, tt.want.Kind, op.Kind)
			assert.Equal(t, tt.want.Variables, op.Variables)
			assert.Equal(t, tt.query, op.Source)
		})
	}
}

func TestMustDocumentPanics(t *testing.T) {
	assert.Panics(t, func() { MustDocument("not graphql") })
}

func TestOperationRequest(t *testing.T) {
	op := MustDocument(`query SearchLocations($page: Int, $name: String) { locations(page: $page, filter: { name: $name }) { results { id } } }`)

	req, err := op.Request(map[string]any{"page": 2})
	require.NoError(t, err)
	assert.Equal(t, "SearchLocations", req.OperationName)
	assert.Equal(t, 2, req.Variables["page"])

	_, err = op.Request(map[string]any{"episode": 1})
	assert.ErrorContains(t, err, "no variable $episode")
}
