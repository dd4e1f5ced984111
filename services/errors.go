package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrInvalidPostType        = errors.New("invalid group post type")
	ErrInvalidVisibility      = errors.New("invalid group post visibility")
	ErrInvalidPostStatus      = errors.New("invalid group post status")
	ErrPostTitleRequired      = errors.New("group post title is required")
	ErrPostDateRequired       = errors.New("group post date is required")
	ErrEmptyUpdate            = errors.New("update must change at least one field")
	ErrNoParticipantIDs       = errors.New("at least one participant id is required")
	ErrInvalidParticipantRole = errors.New("invalid participant role")
	ErrInvalidAttestStatus    = errors.New("invalid attestation status")
	ErrPostTypeMismatch       = errors.New("group post type does not match the extension data sport")
	ErrInvalidRoundType       = errors.New("round type must be outdoor or indoor")
	ErrHolesPlayedOutOfRange  = errors.New("holes played must be between 1 and 18")
	ErrCourseNameRequired     = errors.New("course name is required")
	ErrNoHoleScores           = errors.New("at least one hole score is required")
	ErrHoleNumberOutOfRange   = errors.New("hole number must be between 1 and 18")
	ErrDuplicateHoleNumber    = errors.New("duplicate hole number in submitted scores")
	ErrStrokesOutOfRange      = errors.New("strokes must be between 1 and 15")
	ErrPuttsOutOfRange        = errors.New("putts must be between 0 and strokes")
	ErrParOutOfRange          = errors.New("par must be between 3 and 6")

	// Ошибки конфликтов
	ErrParticipantConflict = errors.New("profile is already a participant of this group post")
	ErrScorecardConflict   = errors.New("a scorecard already exists for this group post")

	// Ошибки авторизации и доступа
	ErrForbiddenOperation       = errors.New("operation not allowed for the current user")
	ErrCreatorOnlyOperation     = errors.New("only the group post creator can perform this action")
	ErrOrganizerActionForbidden = errors.New("only the creator or an organizer can perform this action")
	ErrCannotRemoveCreator      = errors.New("the creator participant cannot be removed")
	ErrScoresLocked             = errors.New("scores are confirmed and locked for this participant")
	ErrScorecardLocked          = errors.New("scorecard is locked: a participant has confirmed scores")

	// Ресурс не найден; guard возвращает эти же ошибки, когда членство
	// не должно раскрываться.
	ErrGroupPostNotFound   = errors.New("group post not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrScorecardNotFound   = errors.New("scorecard not found")
	ErrScoresNotFound      = errors.New("participant scores not found")
)
