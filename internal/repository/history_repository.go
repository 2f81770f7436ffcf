package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/staff-auth/internal/model"
)

// HistoryRepo appends and reads the login_history audit trail. The
// write side is append-only; rows are never updated.
type HistoryRepo struct{ db Querier }

func NewHistoryRepo(db Querier) *HistoryRepo { return &HistoryRepo{db: db} }

// WithTx returns a HistoryRepo bound to the given transaction.
func (r *HistoryRepo) WithTx(tx *sql.Tx) *HistoryRepo { return &HistoryRepo{db: tx} }

// UserSummary is the slice of user columns exposed alongside a
// history entry in the admin listing.
type UserSummary struct {
	ID        uint64 `json:"id"`
	Matricule string `json:"matricule"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// EntryWithUser joins one audit row with its owning user, when the
// attempt resolved to one. User is nil for attempts against unknown
// matricules (user_id 0).
type EntryWithUser struct {
	Entry model.LoginHistory
	User  *UserSummary
}

// Record appends one audit row for a login attempt.
func (r *HistoryRepo) Record(ctx context.Context, e model.LoginHistory) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO login_history (user_id, login_time, ip_address, user_agent, is_successful) VALUES (?,?,?,?,?)",
		e.UserID, e.LoginTime, e.IPAddress, e.UserAgent, e.IsSuccessful)
	return err
}

// ListAll returns the newest entries across all users, joined with
// user identity where the attempt resolved, capped at limit.
func (r *HistoryRepo) ListAll(ctx context.Context, limit int) ([]EntryWithUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id,h.user_id,h.login_time,h.ip_address,h.user_agent,h.is_successful,
			u.id,u.matricule,u.first_name,u.last_name
		 FROM login_history h
		 LEFT JOIN users u ON u.id=h.user_id
		 ORDER BY h.login_time DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EntryWithUser, 0)
	for rows.Next() {
		var (
			e   model.LoginHistory
			uid sql.NullInt64
			mat sql.NullString
			fn  sql.NullString
			ln  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.LoginTime, &e.IPAddress, &e.UserAgent, &e.IsSuccessful,
			&uid, &mat, &fn, &ln); err != nil {
			return nil, err
		}
		ew := EntryWithUser{Entry: e}
		if uid.Valid {
			ew.User = &UserSummary{
				ID:        uint64(uid.Int64),
				Matricule: mat.String,
				FirstName: fn.String,
				LastName:  ln.String,
			}
		}
		out = append(out, ew)
	}
	return out, rows.Err()
}

// ListForUser returns the newest entries for one user, capped at limit.
func (r *HistoryRepo) ListForUser(ctx context.Context, userID uint64, limit int) ([]model.LoginHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,user_id,login_time,ip_address,user_agent,is_successful
		 FROM login_history WHERE user_id=?
		 ORDER BY login_time DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LoginHistory, 0)
	for rows.Next() {
		var e model.LoginHistory
		if err := rows.Scan(&e.ID, &e.UserID, &e.LoginTime, &e.IPAddress, &e.UserAgent, &e.IsSuccessful); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
