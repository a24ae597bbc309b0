package lifecycle

import (
	"encoding/json"
	"testing"

	"Jazz_Forum/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("comment")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = ParseKind("WorkingGroup")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestKindJSON(t *testing.T) {
	var body struct {
		Type Kind   `json:"type"`
		ID   string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"thread","id":"12"}`), &body))
	assert.Equal(t, KindThread, body.Type)

	err := json.Unmarshal([]byte(`{"type":"board","id":"12"}`), &body)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	out, err := json.Marshal(KindWorkingGroup)
	require.NoError(t, err)
	assert.JSONEq(t, `"workingGroup"`, string(out))
}
