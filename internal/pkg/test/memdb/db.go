package memdb

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
)

type txKey struct{}

// DB is in memory implementation of postgres.DB for tests
type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings      map[int64]*persistence.Booking
	assignments   map[int64]*persistence.Assignment
	users         map[int64]*persistence.User
	languages     map[int64]string
	userLanguages map[int64][]int64
	blacklist     map[int64]map[int64]bool
	potentialJobs map[int64]map[int64]bool
	audits        []*persistence.AuditRecord
	lastID        int64
}

// New creates empty DB
func New() *DB {
	return &DB{
		bookings:      map[int64]*persistence.Booking{},
		assignments:   map[int64]*persistence.Assignment{},
		users:         map[int64]*persistence.User{},
		languages:     map[int64]string{},
		userLanguages: map[int64][]int64{},
		blacklist:     map[int64]map[int64]bool{},
		potentialJobs: map[int64]map[int64]bool{},
		lastID:        100,
	}
}

// AddUser stores user with languages
func (db *DB) AddUser(u *persistence.User, langs ...int64) *persistence.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == 0 {
		u.ID = db.nextID()
	}
	c := *u
	db.users[u.ID] = &c
	db.userLanguages[u.ID] = langs
	return u
}

// AddLanguage stores language name
func (db *DB) AddLanguage(id int64, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.languages[id] = name
}

// AddBlacklist blocks translator for the customer
func (db *DB) AddBlacklist(customerID, translatorID int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.blacklist[customerID] == nil {
		db.blacklist[customerID] = map[int64]bool{}
	}
	db.blacklist[customerID][translatorID] = true
}

// AddPotentialJob adds the job to the translator allow list
func (db *DB) AddPotentialJob(translatorID, jobID int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.potentialJobs[translatorID] == nil {
		db.potentialJobs[translatorID] = map[int64]bool{}
	}
	db.potentialJobs[translatorID][jobID] = true
}

// Booking returns stored booking copy
func (db *DB) Booking(id int64) *persistence.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	b, ok := db.bookings[id]
	if !ok {
		return nil
	}
	return b.Clone()
}

// User returns stored user copy
func (db *DB) User(id int64) *persistence.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

// AllAssignments returns stored relations of the job ordered by id
func (db *DB) AllAssignments(jobID int64) []*persistence.Assignment {
	res, _ := db.Assignments(context.Background(), jobID)
	return res
}

// Audits returns stored audit records
func (db *DB) Audits() []*persistence.AuditRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*persistence.AuditRecord{}, db.audits...)
}

// BookingCount returns number of stored bookings
func (db *DB) BookingCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.bookings)
}

// InTx runs f serialized with other transactions, the state is restored if f fails
func (db *DB) InTx(ctx context.Context, f func(context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return f(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()
	snap := db.snapshot()
	if err := f(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

// LoadBooking returns booking
func (db *DB) LoadBooking(ctx context.Context, id int64) (*persistence.Booking, error) {
	if b := db.Booking(id); b != nil {
		return b, nil
	}
	return nil, utils.NewUserErrorf(utils.ErrNotFound, "no booking %d", id)
}

// LockBooking returns booking, locking is done by InTx
func (db *DB) LockBooking(ctx context.Context, id int64) (*persistence.Booking, error) {
	if ctx.Value(txKey{}) == nil {
		return nil, fmt.Errorf("lock outside transaction")
	}
	return db.LoadBooking(ctx, id)
}

// InsertBooking stores a new booking
func (db *DB) InsertBooking(ctx context.Context, b *persistence.Booking) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	b.ID = db.nextID()
	b.Version = 1
	db.bookings[b.ID] = b.Clone()
	return nil
}

// UpdateBooking stores booking if version matches
func (db *DB) UpdateBooking(ctx context.Context, b *persistence.Booking) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	old, ok := db.bookings[b.ID]
	if !ok || old.Version != b.Version {
		return utils.NewUserErrorf(utils.ErrConflict, "booking %d was changed", b.ID)
	}
	b.Version++
	db.bookings[b.ID] = b.Clone()
	return nil
}

// ListBookings returns filtered bookings page and total count
func (db *DB) ListBookings(ctx context.Context, f *persistence.BookingFilter) ([]*persistence.Booking, int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	all := []*persistence.Booking{}
	for _, b := range db.bookings {
		if db.match(b, f) {
			all = append(all, b.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Due.Equal(all[j].Due) {
			return all[i].ID < all[j].ID
		}
		if f.Desc {
			return all[i].Due.After(all[j].Due)
		}
		return all[i].Due.Before(all[j].Due)
	})
	limit, offset := f.Limit()
	if limit == 0 {
		return all, len(all), nil
	}
	if offset >= len(all) {
		return []*persistence.Booking{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

// ExpiredPending returns pending bookings expired before now
func (db *DB) ExpiredPending(ctx context.Context, now time.Time) ([]*persistence.Booking, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	res := []*persistence.Booking{}
	for _, b := range db.bookings {
		if b.Status == status.Pending && !b.IgnoreExpired && b.WillExpireAt != nil && !b.WillExpireAt.After(now) {
			res = append(res, b.Clone())
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// Assignments returns relations of the job ordered by creation
func (db *DB) Assignments(ctx context.Context, jobID int64) ([]*persistence.Assignment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	res := []*persistence.Assignment{}
	for _, a := range db.assignments {
		if a.JobID == jobID {
			res = append(res, cloneAssignment(a))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// InsertAssignment stores a new relation
func (db *DB) InsertAssignment(ctx context.Context, a *persistence.Assignment) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a.ID = db.nextID()
	db.assignments[a.ID] = cloneAssignment(a)
	return nil
}

// UpdateAssignment stores relation
func (db *DB) UpdateAssignment(ctx context.Context, a *persistence.Assignment) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.assignments[a.ID]; !ok {
		return utils.NewUserErrorf(utils.ErrNotFound, "no assignment %d", a.ID)
	}
	db.assignments[a.ID] = cloneAssignment(a)
	return nil
}

// DeleteAssignment removes relation
func (db *DB) DeleteAssignment(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.assignments, id)
	return nil
}

// TranslatorBookedAt checks other assigned or started bookings of the translator with the same due
func (db *DB) TranslatorBookedAt(ctx context.Context, translatorID int64, due time.Time, excludeJobID int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range db.assignments {
		if a.UserID != translatorID || a.JobID == excludeJobID || a.CancelAt != nil {
			continue
		}
		b, ok := db.bookings[a.JobID]
		if ok && (b.Status == status.Assigned || b.Status == status.Started) && b.Due.Equal(due) {
			return true, nil
		}
	}
	return false, nil
}

// LoadUser returns user
func (db *DB) LoadUser(ctx context.Context, id int64) (*persistence.User, error) {
	if u := db.User(id); u != nil {
		return u, nil
	}
	return nil, utils.NewUserErrorf(utils.ErrNotFound, "no user %d", id)
}

// UserIDByEmail returns user id by email
func (db *DB) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			return u.ID, nil
		}
	}
	return 0, utils.NewUserErrorf(utils.ErrNotFound, "no user %s", email)
}

// IncrementBookingCount increments user's number of bookings
func (db *DB) IncrementBookingCount(ctx context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[userID]
	if !ok {
		return utils.NewUserErrorf(utils.ErrNotFound, "no user %d", userID)
	}
	u.NumberOfBookings++
	return nil
}

// EligibleTranslators returns translators suitable for the booking
func (db *DB) EligibleTranslators(ctx context.Context, b *persistence.Booking, excludeUserID int64) ([]*persistence.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	levels := map[string]bool{}
	for _, l := range timing.TranslatorLevels(b.Certified) {
		levels[l] = true
	}
	tt := timing.TranslatorTypeFromJobType(b.JobType)
	res := []*persistence.User{}
	for _, u := range db.users {
		if u.Role != persistence.RoleTranslator || !u.Active || u.ID == excludeUserID {
			continue
		}
		if b.Immediate && u.Meta.NotGetEmergency {
			continue
		}
		if pj := db.potentialJobs[u.ID]; len(pj) > 0 && !pj[b.ID] {
			continue
		}
		if u.Meta.TranslatorType != tt || !levels[u.Meta.TranslatorLevel] {
			continue
		}
		if b.Gender != persistence.GenderNone && u.Meta.Gender != b.Gender {
			continue
		}
		if !slices.Contains(db.userLanguages[u.ID], b.FromLanguageID) || db.blacklist[b.UserID][u.ID] {
			continue
		}
		c := *u
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// LanguageName returns language name
func (db *DB) LanguageName(ctx context.Context, id int64) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	res, ok := db.languages[id]
	if !ok {
		return "", utils.NewUserErrorf(utils.ErrNotFound, "no language %d", id)
	}
	return res, nil
}

// InsertAudit stores audit record
func (db *DB) InsertAudit(ctx context.Context, r *persistence.AuditRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := *r
	db.audits = append(db.audits, &c)
	return nil
}

func (db *DB) match(b *persistence.Booking, f *persistence.BookingFilter) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, b.ID) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if len(f.LanguageIDs) > 0 && !slices.Contains(f.LanguageIDs, b.FromLanguageID) {
		return false
	}
	if len(f.JobTypes) > 0 && !slices.Contains(f.JobTypes, b.JobType) {
		return false
	}
	if f.CustomerID != 0 && b.UserID != f.CustomerID {
		return false
	}
	if f.CustomerEmail != "" {
		u, ok := db.users[b.UserID]
		if !ok || !strings.EqualFold(u.Email, f.CustomerEmail) {
			return false
		}
	}
	if f.TranslatorID != 0 || f.TranslatorEmail != "" {
		if !db.hasTranslator(b.ID, f.TranslatorID, f.TranslatorEmail) {
			return false
		}
	}
	if f.Immediate != nil && b.Immediate != *f.Immediate {
		return false
	}
	if f.DueFrom != nil && b.Due.Before(*f.DueFrom) {
		return false
	}
	if f.DueTo != nil && b.Due.After(*f.DueTo) {
		return false
	}
	if f.CreatedFrom != nil && b.Created.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && b.Created.After(*f.CreatedTo) {
		return false
	}
	return true
}

func (db *DB) hasTranslator(jobID, translatorID int64, email string) bool {
	for _, a := range db.assignments {
		if a.JobID != jobID || a.CancelAt != nil {
			continue
		}
		if translatorID != 0 && a.UserID != translatorID {
			continue
		}
		if email != "" {
			u, ok := db.users[a.UserID]
			if !ok || !strings.EqualFold(u.Email, email) {
				continue
			}
		}
		return true
	}
	return false
}

type snapshot struct {
	bookings    map[int64]*persistence.Booking
	assignments map[int64]*persistence.Assignment
	counts      map[int64]int
	audits      int
}

func (db *DB) snapshot() *snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	res := &snapshot{bookings: map[int64]*persistence.Booking{}, assignments: map[int64]*persistence.Assignment{},
		counts: map[int64]int{}, audits: len(db.audits)}
	for k, v := range db.bookings {
		res.bookings[k] = v.Clone()
	}
	for k, v := range db.assignments {
		res.assignments[k] = cloneAssignment(v)
	}
	for k, v := range db.users {
		res.counts[k] = v.NumberOfBookings
	}
	return res
}

func (db *DB) restore(s *snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.bookings = s.bookings
	db.assignments = s.assignments
	for k, v := range s.counts {
		if u, ok := db.users[k]; ok {
			u.NumberOfBookings = v
		}
	}
	db.audits = db.audits[:s.audits]
}

func (db *DB) nextID() int64 {
	db.lastID++
	return db.lastID
}

func cloneAssignment(a *persistence.Assignment) *persistence.Assignment {
	res := *a
	if a.CancelAt != nil {
		res.CancelAt = persistence.TimePtr(*a.CancelAt)
	}
	if a.CompletedAt != nil {
		res.CompletedAt = persistence.TimePtr(*a.CompletedAt)
	}
	return &res
}
