package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

func TestNewScoped(t *testing.T) {
	s := NewScoped(nil, "acme-id")
	assert.Equal(t, "acme-id", s.TenantID())
}

func TestNewScoped_PanicsWithoutTenant(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		scopeErr, ok := r.(core.MissingScopeError)
		require.True(t, ok, "panic value should be a MissingScopeError, got %T", r)
		assert.Equal(t, "database.NewScoped", scopeErr.Op)
	}()
	NewScoped(nil, "")
}

func TestMemberRepository_RequiresTenantScope(t *testing.T) {
	ctx := context.Background()
	repo := NewMemberRepository(nil)
	assert.Panics(t, func() { _, _ = repo.QueryMembers(ctx, "") })
	assert.Panics(t, func() { _, _ = repo.GetMemberByUserID(ctx, "", "u1") })
	assert.Panics(t, func() { _ = repo.DeleteMembersByID(ctx, "", "m1", "m2") })
}
