package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

type Member struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (m Member) IsAdmin() bool { return m.Role == RoleAdmin }

func (d *DB) FindMemberByEmail(ctx context.Context, email string) (Member, error) {
	var m Member
	err := d.GetContext(ctx, &m, "SELECT * FROM members WHERE email=?", strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, fmt.Errorf("member %s: %w", email, reservation.ErrNotFound)
	}
	return m, err
}

func (d *DB) ListMembers(ctx context.Context) ([]Member, error) {
	var ms []Member
	if err := d.SelectContext(ctx, &ms, "SELECT * FROM members ORDER BY id ASC"); err != nil {
		return nil, err
	}
	return ms, nil
}

// errDuplicateEntry is MySQL's ER_DUP_ENTRY.
const errDuplicateEntry = 1062

// CreateMember inserts a new member; an existing email is a conflict.
func (d *DB) CreateMember(ctx context.Context, name, email, password string, admin bool) (Member, error) {
	email = strings.TrimSpace(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, err
	}
	_, err = d.ExecContext(ctx, "INSERT INTO members (name, email, password_hash, role) VALUES (?,?,?,?)",
		strings.TrimSpace(name), email, string(hash), roleOf(admin))
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return Member{}, fmt.Errorf("%w: member %s already exists", reservation.ErrConflict, email)
	}
	if err != nil {
		return Member{}, err
	}
	return d.FindMemberByEmail(ctx, email)
}

func roleOf(admin bool) string {
	if admin {
		return RoleAdmin
	}
	return RoleMember
}

// UpsertMember creates the member or refreshes its name, password and role.
func (d *DB) UpsertMember(ctx context.Context, name, email, password string, admin bool) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("member email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	_, err = d.ExecContext(ctx, `INSERT INTO members (name, email, password_hash, role) VALUES (?,?,?,?)
		ON DUPLICATE KEY UPDATE name=VALUES(name), password_hash=VALUES(password_hash), role=VALUES(role)`,
		name, strings.TrimSpace(email), string(hash), roleOf(admin))
	return err
}

// EnsureDefaultAdmin seeds the bootstrap admin account when configured.
func (d *DB) EnsureDefaultAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	return d.UpsertMember(ctx, "admin", email, password, true)
}

func (d *DB) InsertThemeIfMissing(ctx context.Context, t reservation.Theme) error {
	_, err := d.ExecContext(ctx, "INSERT IGNORE INTO themes (name, description, thumbnail) VALUES (?,?,?)",
		t.Name, t.Description, t.Thumbnail)
	return err
}

func (d *DB) InsertTimeIfMissing(ctx context.Context, startAt string) error {
	_, err := d.ExecContext(ctx, "INSERT IGNORE INTO reservation_times (start_at) VALUES (?)", startAt)
	return err
}
