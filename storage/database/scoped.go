package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/tenant"
)

// Scoped is a database handle bound to exactly one tenant. Every query
// it runs carries the tenant id; the handle cannot be constructed
// without one, so an unscoped query on tenant-owned data is not
// expressible through it.
type Scoped struct {
	db       *sqlx.DB
	tenantID string
}

func NewScoped(db *sqlx.DB, tenantID string) *Scoped {
	if tenantID == "" {
		panic(core.MissingScopeError{Op: "database.NewScoped"})
	}
	return &Scoped{db: db, tenantID: tenantID}
}

func (s *Scoped) TenantID() string {
	return s.tenantID
}

type memberRepository struct {
	db *sqlx.DB
}

var _ tenant.MemberRepository = (*memberRepository)(nil)

func NewMemberRepository(db *sqlx.DB) *memberRepository {
	return &memberRepository{db: db}
}

// scope funnels every member operation through a Scoped handle so an
// empty tenant id fails loudly instead of widening the query.
func (repo memberRepository) scope(tenantID string) *Scoped {
	return NewScoped(repo.db, tenantID)
}

func (repo memberRepository) CreateMember(ctx context.Context, tenantID string, m tenant.Member) (tenant.Member, error) {
	s := repo.scope(tenantID)
	m.ID = uuid.NewString()
	m.TenantID = s.TenantID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
INSERT INTO member (id, tenant_id, user_id, role, created_at)
VALUES (:id, :tenant_id, :user_id, :role, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, m); err != nil {
		return tenant.Member{}, errors.Wrap(err, "creating member")
	}
	return m, nil
}

func (repo memberRepository) QueryMembers(ctx context.Context, tenantID string) ([]tenant.Member, error) {
	s := repo.scope(tenantID)
	members := make([]tenant.Member, 0)
	query := `SELECT * FROM member WHERE tenant_id = $1 ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &members, query, s.TenantID()); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return members, nil
}

func (repo memberRepository) GetMemberByUserID(ctx context.Context, tenantID, userID string) (tenant.Member, error) {
	s := repo.scope(tenantID)
	var m tenant.Member
	query := `SELECT * FROM member WHERE tenant_id = $1 AND user_id = $2`
	if err := s.db.GetContext(ctx, &m, query, s.TenantID(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tenant.Member{}, tenant.ErrMemberNotFound
		}
		return tenant.Member{}, errors.Wrap(err, "getting member by user id")
	}
	return m, nil
}

func (repo memberRepository) DeleteMembersByID(ctx context.Context, tenantID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	s := repo.scope(tenantID)
	query, args, err := sqlx.In(`DELETE FROM member WHERE tenant_id = ? AND id IN (?)`, s.TenantID(), ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting members")
	}
	return nil
}
