package regexpmatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexpMatcher_Matches(t *testing.T) {
	m, err := New("^Get.*", "^Set.*")
	require.NoError(t, err)

	assert.True(t, m.Matches(Method{Name: "GetUser"}))
	assert.True(t, m.Matches(Method{Name: "SetUser"}))
	assert.False(t, m.Matches(Method{Name: "DeleteUser"}))
}

func TestRegexpMatcher_WildcardMatchesEverything(t *testing.T) {
	m, err := New("*")
	require.NoError(t, err)

	assert.True(t, m.Matches(Method{Name: "AnythingAtAll"}))
}

func TestRegexpMatcher_MatchesWithArgs(t *testing.T) {
	m, err := New("^Charge$")
	require.NoError(t, err)

	method := Method{Name: "Charge", DeclaredParamNames: []string{"int", "string"}}
	assert.True(t, m.Matches(method, 1, "usd"))
	assert.False(t, m.Matches(method, "wrong", "usd"))
}

func TestRegexpMatcher_InvalidPattern(t *testing.T) {
	_, err := New("(unclosed")
	require.Error(t, err)
}
