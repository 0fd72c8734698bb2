package database

import (
	"context"
	"errors"
	"fmt"

	"tomotachi/backend/internal/models"
	"tomotachi/backend/internal/social"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const intersectFriendsQuery = `
SELECT a.member_email
FROM user_relations a
JOIN user_relations b ON b.member_email = a.member_email
WHERE a.owner_email = ? AND a.kind = ?
  AND b.owner_email = ? AND b.kind = ?
ORDER BY a.member_email`

// GormStore implements social.Store on the identities and user_relations tables.
type GormStore struct {
	db *gorm.DB
}

var _ social.Store = (*GormStore)(nil)

// NewGormStore wraps an open connection. Run Migrate before first use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) IdentityExists(ctx context.Context, email string) (bool, error) {
	return identityExists(s.db.WithContext(ctx), email, false)
}

func (s *GormStore) CreateIdentity(ctx context.Context, email string) (bool, error) {
	return createIdentity(s.db.WithContext(ctx), email)
}

func (s *GormStore) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	return readRelationships(s.db.WithContext(ctx), email, false)
}

func (s *GormStore) AppendSubscriber(ctx context.Context, target, subscriber string) (bool, error) {
	return insertRelations(s.db.WithContext(ctx), target, models.KindSubscriber, subscriber)
}

func (s *GormStore) AppendBlocker(ctx context.Context, target, blocker string) (bool, error) {
	return insertRelations(s.db.WithContext(ctx), target, models.KindBlocker, blocker)
}

func (s *GormStore) IntersectFriends(ctx context.Context, a, b string) ([]string, error) {
	var common []string
	err := s.db.WithContext(ctx).
		Raw(intersectFriendsQuery, a, string(models.KindFriend), b, string(models.KindFriend)).
		Scan(&common).Error
	if err != nil {
		return nil, fmt.Errorf("intersect friends: %w", err)
	}
	return common, nil
}

// WithinTx runs fn inside a database transaction. gorm rolls back when fn
// returns an error or panics.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx social.Tx) error) error {
	lock := s.db.Dialector.Name() != "sqlite"
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, lock: lock})
	})
}

type gormTx struct {
	db *gorm.DB
	// lock takes row locks on identities read inside the transaction. SQLite has
	// no SELECT ... FOR UPDATE; its single connection already serialises writers.
	lock bool
}

func (t *gormTx) ReadRelationships(ctx context.Context, email string) (*social.Relationships, error) {
	return readRelationships(t.db.WithContext(ctx), email, t.lock)
}

func (t *gormTx) WriteFriendSet(ctx context.Context, email string, friends []string) (bool, error) {
	db := t.db.WithContext(ctx)
	created, err := createIdentity(db, email)
	if err != nil {
		return false, err
	}
	added, err := insertRelations(db, email, models.KindFriend, friends...)
	if err != nil {
		return false, err
	}
	return created || added, nil
}

// identityExists optionally locks the identity row. While it is held, concurrent
// inserts of relation rows owned by that identity wait on their foreign key check.
func identityExists(db *gorm.DB, email string, lock bool) (bool, error) {
	q := db.Model(&models.Identity{}).Select("email").Where("email = ?", email)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var found []string
	if err := q.Limit(1).Pluck("email", &found).Error; err != nil {
		return false, fmt.Errorf("lookup identity: %w", err)
	}
	return len(found) > 0, nil
}

func createIdentity(db *gorm.DB, email string) (bool, error) {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Identity{Email: email})
	if res.Error != nil {
		return false, fmt.Errorf("create identity: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func readRelationships(db *gorm.DB, email string, lock bool) (*social.Relationships, error) {
	exists, err := identityExists(db, email, lock)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, social.ErrIdentityAbsent
	}

	var rows []models.UserRelation
	if err := db.Where("owner_email = ?", email).Order("member_email").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read relations: %w", err)
	}

	rel := &social.Relationships{
		Friends:     []string{},
		Subscribers: []string{},
		Blockers:    []string{},
	}
	for _, r := range rows {
		switch r.Kind {
		case models.KindFriend:
			rel.Friends = append(rel.Friends, r.MemberEmail)
		case models.KindSubscriber:
			rel.Subscribers = append(rel.Subscribers, r.MemberEmail)
		case models.KindBlocker:
			rel.Blockers = append(rel.Blockers, r.MemberEmail)
		}
	}
	return rel, nil
}

// insertRelations adds the given members to one edge set of owner, skipping
// rows that already exist. It reports whether any row was inserted.
func insertRelations(db *gorm.DB, owner string, kind models.RelationKind, members ...string) (bool, error) {
	if len(members) == 0 {
		return false, nil
	}
	rows := make([]models.UserRelation, 0, len(members))
	for _, m := range members {
		rows = append(rows, models.UserRelation{OwnerEmail: owner, MemberEmail: m, Kind: kind})
	}
	res := db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return false, social.ErrIdentityAbsent
		}
		return false, fmt.Errorf("insert %s relation: %w", kind, res.Error)
	}
	return res.RowsAffected > 0, nil
}
