package database

import (
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

func Open(conf *core.Config) (*sqlx.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Database.Engine, u.String())
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// bootstrapSchema holds the two tables this core owns. The surrounding
// application's schema is managed elsewhere.
const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS tenant (
	id            uuid PRIMARY KEY,
	slug          varchar(63) NOT NULL UNIQUE,
	name          varchar(255) NOT NULL,
	contact_email varchar(255) NOT NULL DEFAULT '',
	is_active     boolean NOT NULL DEFAULT true,
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS member (
	id         uuid PRIMARY KEY,
	tenant_id  uuid NOT NULL REFERENCES tenant (id) ON DELETE CASCADE,
	user_id    varchar(255) NOT NULL,
	role       varchar(32) NOT NULL,
	created_at timestamptz NOT NULL,
	UNIQUE (tenant_id, user_id)
);

CREATE INDEX IF NOT EXISTS member_tenant_idx ON member (tenant_id);
`

func Bootstrap(db *sqlx.DB) error {
	if _, err := db.Exec(bootstrapSchema); err != nil {
		return errors.Wrap(err, "bootstrapping schema")
	}
	return nil
}
