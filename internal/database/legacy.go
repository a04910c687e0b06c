package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"inspection-portal/internal/config"
)

// LegacyUser is a row of the externally managed "user" table
type LegacyUser struct {
	ID       int64
	Type     string
	NID      string
	Name     string
	Email    string
	Password string
	Phone    string
	License  string
	Approved bool
	Active   bool
}

// LegacyProperty is a row of the externally managed "property" table
type LegacyProperty struct {
	ID       int64
	Type     string
	Location string
	OwnerID  int64 // 0 when the row has no owner
}

// LegacySource yields the rows of the externally managed schema
type LegacySource interface {
	LegacyUsers() ([]LegacyUser, error)
	LegacyProperties() ([]LegacyProperty, error)
}

// LegacyDB reads the schema another application owns. It never writes.
type LegacyDB struct {
	conn *sql.DB
}

// NewLegacyDB connects to the legacy PostgreSQL database
func NewLegacyDB(cfg config.PostgresConfig) (*LegacyDB, error) {
	conn, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to reach legacy database: %w", err)
	}

	return &LegacyDB{conn: conn}, nil
}

func (db *LegacyDB) Close() error {
	return db.conn.Close()
}

// LegacyUsers retrieves every account
func (db *LegacyDB) LegacyUsers() ([]LegacyUser, error) {
	query := `
		SELECT u_id, user_type, nid, name, email, password, phone, license,
			   approved_inspect_id IS NOT NULL, COALESCE(is_active, TRUE)
		FROM "user"
		ORDER BY u_id
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []LegacyUser
	for rows.Next() {
		var u LegacyUser
		var userType, nid, name, email, password, phone, license sql.NullString
		err := rows.Scan(
			&u.ID, &userType, &nid, &name, &email, &password, &phone, &license,
			&u.Approved, &u.Active,
		)
		if err != nil {
			return nil, err
		}
		u.Type = userType.String
		u.NID = nid.String
		u.Name = name.String
		u.Email = email.String
		u.Password = password.String
		u.Phone = phone.String
		u.License = license.String
		users = append(users, u)
	}

	return users, rows.Err()
}

// LegacyProperties retrieves every property
func (db *LegacyDB) LegacyProperties() ([]LegacyProperty, error) {
	query := `
		SELECT p_id, type, locations, owner_id
		FROM property
		ORDER BY p_id
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []LegacyProperty
	for rows.Next() {
		var p LegacyProperty
		var propType, location sql.NullString
		var ownerID sql.NullInt64
		if err := rows.Scan(&p.ID, &propType, &location, &ownerID); err != nil {
			return nil, err
		}
		p.Type = propType.String
		p.Location = location.String
		p.OwnerID = ownerID.Int64
		props = append(props, p)
	}

	return props, rows.Err()
}
