package models

import "time"

// ParticipantRole представляет роль участника в групповой активности.
type ParticipantRole string

const (
	RoleCreator     ParticipantRole = "creator"
	RoleOrganizer   ParticipantRole = "organizer"
	RoleParticipant ParticipantRole = "participant"
	RoleSpectator   ParticipantRole = "spectator"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case RoleCreator, RoleOrganizer, RoleParticipant, RoleSpectator:
		return true
	}
	return false
}

// ParticipantStatus представляет статус подтверждения участия.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantDeclined  ParticipantStatus = "declined"
	ParticipantMaybe     ParticipantStatus = "maybe"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantPending, ParticipantConfirmed, ParticipantDeclined, ParticipantMaybe:
		return true
	}
	return false
}

// Participant представляет членство профиля в групповой активности.
// Пара (GroupPostID, ProfileID) уникальна; строка с ролью creator создаётся
// вместе с постом и не может быть удалена.
type Participant struct {
	ID               int               `json:"id" db:"id"`
	GroupPostID      int               `json:"group_post_id" db:"group_post_id"`
	ProfileID        int               `json:"profile_id" db:"profile_id"`
	Role             ParticipantRole   `json:"role" db:"role"`
	Status           ParticipantStatus `json:"status" db:"status"`
	AttestedAt       *time.Time        `json:"attested_at,omitempty" db:"attested_at"`
	DataContributed  bool              `json:"data_contributed" db:"data_contributed"`
	LastContribution *time.Time        `json:"last_contribution,omitempty" db:"last_contribution"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}
