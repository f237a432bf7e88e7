package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	return &DB{pool: pool}, nil
}

// InTx runs f in one transaction, the transaction is carried by ctx.
// Nested calls join the outer transaction.
func (db *DB) InTx(ctx context.Context, f func(context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return f(ctx)
	}
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		return f(context.WithValue(ctx, txKey{}, tx))
	})
}

func (db *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.pool
}

const bookingCols = `b.id, b.user_id, b.from_language_id, b.status, b.immediate, b.due, b.duration, b.gender,
	b.certified, b.job_type, b.customer_phone_type, b.customer_physical_type, b.admin_comments, b.reference,
	b.user_email, b.address, b.instructions, b.town, b.by_admin, b.created, b.will_expire_at, b.end_at,
	b.session_time, b.withdraw_at, b.email_sent, b.email_sent_virpal, b.cust_16_hour_email, b.cust_48_hour_email,
	b.ignore_expired, b.version, b.updated`

func scanBooking(r pgx.Row) (*persistence.Booking, error) {
	var res persistence.Booking
	var st, gender, certified, jobType string
	err := r.Scan(&res.ID, &res.UserID, &res.FromLanguageID, &st, &res.Immediate, &res.Due, &res.Duration, &gender,
		&certified, &jobType, &res.CustomerPhoneType, &res.CustomerPhysicalType, &res.AdminComments, &res.Reference,
		&res.UserEmail, &res.Address, &res.Instructions, &res.Town, &res.ByAdmin, &res.Created, &res.WillExpireAt,
		&res.EndAt, &res.SessionTime, &res.WithdrawAt, &res.EmailSent, &res.EmailSentVirpal, &res.Cust16HourEmail,
		&res.Cust48HourEmail, &res.IgnoreExpired, &res.Version, &res.Updated)
	if err != nil {
		return nil, err
	}
	res.Status = status.From(st)
	res.Gender = persistence.GenderFrom(gender)
	res.Certified = persistence.CertifiedFrom(certified)
	res.JobType = persistence.JobTypeFrom(jobType)
	return &res, nil
}

func (db *DB) loadBooking(ctx context.Context, id int64, suffix string) (*persistence.Booking, error) {
	res, err := scanBooking(db.q(ctx).QueryRow(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.id = $1`+suffix, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewUserErrorf(utils.ErrNotFound, "no booking %d", id)
		}
		return nil, fmt.Errorf("can't load booking: %w", err)
	}
	return res, nil
}

// LoadBooking loads booking
func (db *DB) LoadBooking(ctx context.Context, id int64) (*persistence.Booking, error) {
	return db.loadBooking(ctx, id, "")
}

// LockBooking loads booking with a row lock, must be called inside InTx
func (db *DB) LockBooking(ctx context.Context, id int64) (*persistence.Booking, error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); !ok {
		return nil, fmt.Errorf("lock outside transaction")
	}
	return db.loadBooking(ctx, id, " FOR UPDATE")
}

// InsertBooking inserts booking and sets its ID
func (db *DB) InsertBooking(ctx context.Context, b *persistence.Booking) error {
	err := db.q(ctx).QueryRow(ctx, `INSERT INTO bookings(user_id, from_language_id, status, immediate, due, duration,
	gender, certified, job_type, customer_phone_type, customer_physical_type, admin_comments, reference, user_email,
	address, instructions, town, by_admin, created, will_expire_at, end_at, session_time, withdraw_at, email_sent,
	email_sent_virpal, cust_16_hour_email, cust_48_hour_email, ignore_expired, version, updated)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23,
	$24, $25, $26, $27, $28, 1, $29) RETURNING id`,
		b.UserID, b.FromLanguageID, b.Status.String(), b.Immediate, b.Due, b.Duration, b.Gender.String(),
		b.Certified.String(), b.JobType.String(), b.CustomerPhoneType, b.CustomerPhysicalType, b.AdminComments,
		b.Reference, b.UserEmail, b.Address, b.Instructions, b.Town, b.ByAdmin, b.Created, b.WillExpireAt, b.EndAt,
		b.SessionTime, b.WithdrawAt, b.EmailSent, b.EmailSentVirpal, b.Cust16HourEmail, b.Cust48HourEmail,
		b.IgnoreExpired, b.Updated).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("can't insert booking: %w", err)
	}
	b.Version = 1
	return nil
}

// UpdateBooking updates booking if the version did not change since it was loaded
func (db *DB) UpdateBooking(ctx context.Context, b *persistence.Booking) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE bookings SET
	from_language_id = $3,
	status = $4,
	immediate = $5,
	due = $6,
	duration = $7,
	gender = $8,
	certified = $9,
	job_type = $10,
	customer_phone_type = $11,
	customer_physical_type = $12,
	admin_comments = $13,
	reference = $14,
	user_email = $15,
	address = $16,
	instructions = $17,
	town = $18,
	will_expire_at = $19,
	end_at = $20,
	session_time = $21,
	withdraw_at = $22,
	email_sent = $23,
	email_sent_virpal = $24,
	cust_16_hour_email = $25,
	cust_48_hour_email = $26,
	ignore_expired = $27,
	created = $28,
	updated = $29,
	version = $2 + 1
	WHERE id = $1 AND version = $2`, b.ID, b.Version,
		b.FromLanguageID, b.Status.String(), b.Immediate, b.Due, b.Duration, b.Gender.String(), b.Certified.String(),
		b.JobType.String(), b.CustomerPhoneType, b.CustomerPhysicalType, b.AdminComments, b.Reference, b.UserEmail,
		b.Address, b.Instructions, b.Town, b.WillExpireAt, b.EndAt, b.SessionTime, b.WithdrawAt, b.EmailSent,
		b.EmailSentVirpal, b.Cust16HourEmail, b.Cust48HourEmail, b.IgnoreExpired, b.Created, b.Updated)
	if err != nil {
		return fmt.Errorf("can't update booking: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return utils.NewUserErrorf(utils.ErrConflict, "booking %d was changed", b.ID)
	}
	b.Version++
	return nil
}

// ListBookings returns filtered bookings page and total count
func (db *DB) ListBookings(ctx context.Context, f *persistence.BookingFilter) ([]*persistence.Booking, int, error) {
	where, args := bookingWhere(f)
	var total int
	if err := db.q(ctx).QueryRow(ctx, `SELECT count(*) FROM bookings b`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("can't count bookings: %w", err)
	}
	order := " ORDER BY b.due, b.id"
	if f.Desc {
		order = " ORDER BY b.due DESC, b.id"
	}
	limit, offset := f.Limit()
	if limit > 0 {
		args = append(args, limit, offset)
		order += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	res, err := db.queryBookings(ctx, `SELECT `+bookingCols+` FROM bookings b`+where+order, args...)
	if err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

func bookingWhere(f *persistence.BookingFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if len(f.IDs) > 0 {
		add("b.id = ANY($%d)", f.IDs)
	}
	if len(f.Statuses) > 0 {
		add("b.status = ANY($%d)", names(f.Statuses))
	}
	if len(f.LanguageIDs) > 0 {
		add("b.from_language_id = ANY($%d)", f.LanguageIDs)
	}
	if len(f.JobTypes) > 0 {
		add("b.job_type = ANY($%d)", names(f.JobTypes))
	}
	if f.CustomerID != 0 {
		add("b.user_id = $%d", f.CustomerID)
	}
	if f.CustomerEmail != "" {
		add("EXISTS (SELECT 1 FROM users u WHERE u.id = b.user_id AND lower(u.email) = lower($%d))", f.CustomerEmail)
	}
	if f.TranslatorID != 0 {
		add("EXISTS (SELECT 1 FROM translator_job_rel r WHERE r.job_id = b.id AND r.cancel_at IS NULL AND r.user_id = $%d)",
			f.TranslatorID)
	}
	if f.TranslatorEmail != "" {
		add(`EXISTS (SELECT 1 FROM translator_job_rel r JOIN users u ON u.id = r.user_id
		WHERE r.job_id = b.id AND r.cancel_at IS NULL AND lower(u.email) = lower($%d))`, f.TranslatorEmail)
	}
	if f.Immediate != nil {
		add("b.immediate = $%d", *f.Immediate)
	}
	if f.DueFrom != nil {
		add("b.due >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		add("b.due <= $%d", *f.DueTo)
	}
	if f.CreatedFrom != nil {
		add("b.created >= $%d", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("b.created <= $%d", *f.CreatedTo)
	}
	if len(conds) == 0 {
		return "", args
	}
	res := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		res += " AND " + c
	}
	return res, args
}

func names[T fmt.Stringer](items []T) []string {
	res := make([]string, 0, len(items))
	for _, it := range items {
		res = append(res, it.String())
	}
	return res
}

func (db *DB) queryBookings(ctx context.Context, sql string, args ...any) ([]*persistence.Booking, error) {
	rows, err := db.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("can't select bookings: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("can't scan booking: %w", err)
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

const assignmentCols = `id, user_id, job_id, created, cancel_at, completed_at, completed_by`

// Assignments returns translator relations of the job ordered by creation
func (db *DB) Assignments(ctx context.Context, jobID int64) ([]*persistence.Assignment, error) {
	rows, err := db.q(ctx).Query(ctx, `SELECT `+assignmentCols+` FROM translator_job_rel
		WHERE job_id = $1 ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("can't select assignments: %w", err)
	}
	defer rows.Close()
	res := []*persistence.Assignment{}
	for rows.Next() {
		var a persistence.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.JobID, &a.Created, &a.CancelAt, &a.CompletedAt,
			&a.CompletedBy); err != nil {
			return nil, fmt.Errorf("can't scan assignment: %w", err)
		}
		res = append(res, &a)
	}
	return res, rows.Err()
}

// InsertAssignment inserts relation and sets its ID
func (db *DB) InsertAssignment(ctx context.Context, a *persistence.Assignment) error {
	err := db.q(ctx).QueryRow(ctx, `INSERT INTO translator_job_rel(user_id, job_id, created, cancel_at, completed_at,
	completed_by) VALUES($1, $2, $3, $4, $5, $6) RETURNING id`, a.UserID, a.JobID, a.Created, a.CancelAt,
		a.CompletedAt, a.CompletedBy).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("can't insert assignment: %w", err)
	}
	return nil
}

// UpdateAssignment updates cancel and completion data
func (db *DB) UpdateAssignment(ctx context.Context, a *persistence.Assignment) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE translator_job_rel SET
	cancel_at = $2,
	completed_at = $3,
	completed_by = $4
	WHERE id = $1`, a.ID, a.CancelAt, a.CompletedAt, a.CompletedBy)
	if err != nil {
		return fmt.Errorf("can't update assignment: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return utils.NewUserErrorf(utils.ErrNotFound, "no assignment %d", a.ID)
	}
	return nil
}

// DeleteAssignment removes relation
func (db *DB) DeleteAssignment(ctx context.Context, id int64) error {
	if _, err := db.q(ctx).Exec(ctx, `DELETE FROM translator_job_rel WHERE id = $1`, id); err != nil {
		return fmt.Errorf("can't delete assignment: %w", err)
	}
	return nil
}

// TranslatorBookedAt checks other assigned or started bookings of the translator with the same due
func (db *DB) TranslatorBookedAt(ctx context.Context, translatorID int64, due time.Time, excludeJobID int64) (bool, error) {
	var res bool
	err := db.q(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM translator_job_rel r
		JOIN bookings b ON b.id = r.job_id
		WHERE r.user_id = $1 AND r.job_id <> $3 AND r.cancel_at IS NULL AND b.due = $2
		AND b.status = ANY($4))`, translatorID, due, excludeJobID,
		names([]status.Status{status.Assigned, status.Started})).Scan(&res)
	if err != nil {
		return false, fmt.Errorf("can't check translator bookings: %w", err)
	}
	return res, nil
}

const userCols = `u.id, u.role, u.name, u.email, u.mobile, u.active, u.number_of_bookings,
	COALESCE(m.gender, ''), COALESCE(m.translator_level, ''), COALESCE(m.translator_type, ''),
	COALESCE(m.consumer_type, ''), COALESCE(m.customer_type, ''), COALESCE(m.city, ''), COALESCE(m.address, ''),
	COALESCE(m.instructions, ''), COALESCE(m.not_get_nighttime, false), COALESCE(m.not_get_notification, false),
	COALESCE(m.not_get_emergency, false)`

func scanUser(r pgx.Row) (*persistence.User, error) {
	var res persistence.User
	var role, gender string
	err := r.Scan(&res.ID, &role, &res.Name, &res.Email, &res.Mobile, &res.Active, &res.NumberOfBookings,
		&gender, &res.Meta.TranslatorLevel, &res.Meta.TranslatorType, &res.Meta.ConsumerType, &res.Meta.CustomerType,
		&res.Meta.City, &res.Meta.Address, &res.Meta.Instructions, &res.Meta.NotGetNighttime,
		&res.Meta.NotGetNotification, &res.Meta.NotGetEmergency)
	if err != nil {
		return nil, err
	}
	res.Role = persistence.RoleFrom(role)
	res.Meta.Gender = persistence.GenderFrom(gender)
	return &res, nil
}

// LoadUser loads user with meta data
func (db *DB) LoadUser(ctx context.Context, id int64) (*persistence.User, error) {
	res, err := scanUser(db.q(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users u
		LEFT JOIN user_meta m ON m.user_id = u.id WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.NewUserErrorf(utils.ErrNotFound, "no user %d", id)
		}
		return nil, fmt.Errorf("can't load user: %w", err)
	}
	return res, nil
}

// UserIDByEmail returns user id by email
func (db *DB) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	var res int64
	err := db.q(ctx).QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`,
		email).Scan(&res)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, utils.NewUserErrorf(utils.ErrNotFound, "no user %s", email)
		}
		return 0, fmt.Errorf("can't load user: %w", err)
	}
	return res, nil
}

// IncrementBookingCount increments user's number of bookings
func (db *DB) IncrementBookingCount(ctx context.Context, userID int64) error {
	tag, err := db.q(ctx).Exec(ctx, `UPDATE users SET number_of_bookings = number_of_bookings + 1 WHERE id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("can't update user: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return utils.NewUserErrorf(utils.ErrNotFound, "no user %d", userID)
	}
	return nil
}

// EligibleTranslators returns active translators suitable for the booking language, type, level and gender
func (db *DB) EligibleTranslators(ctx context.Context, b *persistence.Booking, excludeUserID int64) ([]*persistence.User, error) {
	gender := ""
	if b.Gender != persistence.GenderNone {
		gender = b.Gender.String()
	}
	rows, err := db.q(ctx).Query(ctx, `SELECT `+userCols+` FROM users u
		JOIN user_meta m ON m.user_id = u.id
		WHERE u.role = $1 AND u.active AND u.id <> $2
		AND (NOT $3 OR NOT m.not_get_emergency)
		AND (NOT EXISTS (SELECT 1 FROM translator_potential_jobs p WHERE p.user_id = u.id)
			OR EXISTS (SELECT 1 FROM translator_potential_jobs p WHERE p.user_id = u.id AND p.job_id = $4))
		AND m.translator_type = $5 AND m.translator_level = ANY($6)
		AND ($7 = '' OR m.gender = $7)
		AND EXISTS (SELECT 1 FROM user_languages l WHERE l.user_id = u.id AND l.lang_id = $8)
		AND NOT EXISTS (SELECT 1 FROM user_blacklist bl WHERE bl.customer_id = $9 AND bl.translator_id = u.id)
		ORDER BY u.id`,
		persistence.RoleTranslator.String(), excludeUserID, b.Immediate, b.ID,
		timing.TranslatorTypeFromJobType(b.JobType), timing.TranslatorLevels(b.Certified), gender,
		b.FromLanguageID, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("can't select translators: %w", err)
	}
	defer rows.Close()
	res := []*persistence.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("can't scan user: %w", err)
		}
		res = append(res, u)
	}
	goapp.Log.Debug().Int64("jobID", b.ID).Int("count", len(res)).Msg("eligible translators")
	return res, rows.Err()
}

// LanguageName returns language name
func (db *DB) LanguageName(ctx context.Context, id int64) (string, error) {
	var res string
	err := db.q(ctx).QueryRow(ctx, `SELECT name FROM languages WHERE id = $1`, id).Scan(&res)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", utils.NewUserErrorf(utils.ErrNotFound, "no language %d", id)
		}
		return "", fmt.Errorf("can't load language: %w", err)
	}
	return res, nil
}

// InsertAudit stores booking change record
func (db *DB) InsertAudit(ctx context.Context, r *persistence.AuditRecord) error {
	changes, err := json.Marshal(r.Changes)
	if err != nil {
		return fmt.Errorf("can't marshal changes: %w", err)
	}
	if _, err := db.q(ctx).Exec(ctx, `INSERT INTO booking_audit(id, actor_id, booking_id, changes, created)
	VALUES($1, $2, $3, $4, $5)`, r.ID, r.ActorID, r.BookingID, string(changes), r.Created); err != nil {
		return fmt.Errorf("can't insert audit: %w", err)
	}
	goapp.Log.Info().Str("ID", r.ID).Int64("jobID", r.BookingID).Int64("actorID", r.ActorID).
		RawJSON("changes", changes).Msg("audit")
	return nil
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'gue_jobs')
		AND EXISTS (SELECT FROM pg_tables WHERE tablename = 'bookings')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}
