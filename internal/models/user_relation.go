package models

import "time"

// RelationKind names which edge set of the owner a relation row belongs to.
type RelationKind string

const (
	// KindFriend puts Member in Owner's friend set. Friendships are stored as two rows.
	KindFriend RelationKind = "friend"

	// KindSubscriber means Member receives Owner's updates.
	KindSubscriber RelationKind = "subscriber"

	// KindBlocker means Member has blocked Owner.
	KindBlocker RelationKind = "blocker"
)

// UserRelation is one edge of an identity's friend, subscriber or blocker set.
// The primary key is a composite of (OwnerEmail, MemberEmail, Kind) so re-inserting
// an edge is a no-op.
type UserRelation struct {
	OwnerEmail  string       `gorm:"primaryKey;size:255"`
	MemberEmail string       `gorm:"primaryKey;size:255;index"`
	Kind        RelationKind `gorm:"primaryKey;type:varchar(20)"`
	CreatedAt   time.Time

	// Only the owner side is constrained: Connect writes A's row before B may exist.
	Owner Identity `gorm:"foreignKey:OwnerEmail;references:Email;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
