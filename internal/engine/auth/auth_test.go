package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeline/internal/config"
)

func TestDefaultRoles(t *testing.T) {
	a := New(config.Default())

	assert.True(t, a.Allowed([]string{"admin"}, PaymentWrite))
	assert.True(t, a.Allowed([]string{"developer"}, FeeRead))
	assert.False(t, a.Allowed([]string{"developer"}, TaskWrite))
	assert.False(t, a.Allowed([]string{"unknown"}, FeeRead))
	assert.False(t, a.Allowed(nil, FeeRead))
}

func TestRequire(t *testing.T) {
	a := Authorizer{Roles: map[string]config.RBACRole{
		"lead": {Permissions: []string{TaskWrite, TaskRead}},
	}}
	require.NoError(t, a.Require([]string{"lead"}, TaskWrite))

	err := a.Require([]string{"lead"}, PaymentWrite)
	var forbidden ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, PaymentWrite, forbidden.Permission)
}

func TestPermissionsUnion(t *testing.T) {
	a := Authorizer{Roles: map[string]config.RBACRole{
		"a": {Permissions: []string{TaskRead, FeeRead}},
		"b": {Permissions: []string{FeeRead, PaymentRead}},
	}}
	assert.Equal(t, []string{TaskRead, FeeRead, PaymentRead}, a.Permissions([]string{"a", "b"}))
}
