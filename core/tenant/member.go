package tenant

import (
	"context"
	"errors"
	"time"
)

var ErrMemberNotFound = errors.New("member not found")

// Member records a user's assignment to a tenant. It is tenant-owned
// data: every operation on it carries the tenant id as a mandatory
// first argument, by construction.
type Member struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// MemberRepository is the scoped data access contract for members.
// There is no way to express "all tenants" here: the scope is the
// first positional argument of every operation, and implementations
// must fail loudly when it is empty.
type MemberRepository interface {
	CreateMember(ctx context.Context, tenantID string, m Member) (Member, error)
	QueryMembers(ctx context.Context, tenantID string) ([]Member, error)
	GetMemberByUserID(ctx context.Context, tenantID, userID string) (Member, error)
	DeleteMembersByID(ctx context.Context, tenantID string, ids ...string) error
}
