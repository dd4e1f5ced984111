package services

import "github.com/fieldmates/fieldmates/models"

// Operation — операция, запрашиваемая у AuthorizationGuard.
type Operation string

const (
	OpCreatePost            Operation = "group_post.create"
	OpReadPost              Operation = "group_post.read"
	OpUpdatePost            Operation = "group_post.update"
	OpDeletePost            Operation = "group_post.delete"
	OpAddParticipants       Operation = "participant.add"
	OpRemoveParticipant     Operation = "participant.remove"
	OpUpdateParticipantRole Operation = "participant.update_role"
	OpAttest                Operation = "participant.attest"
	OpCreateScorecard       Operation = "scorecard.create"
	OpUpdateScorecard       Operation = "scorecard.update"
	OpReadScorecard         Operation = "scorecard.read"
	OpRecordScores          Operation = "scores.record"
	OpConfirmScores         Operation = "scores.confirm"
	OpUnlockScores          Operation = "scores.unlock"
)

// GuardContext несёт сущности, против которых проверяется операция.
// Actor — строка участника самого действующего профиля (nil, если он не
// участник поста), Subject — участник, над которым совершается действие.
type GuardContext struct {
	Post      *models.GroupPost
	Actor     *models.Participant
	Subject   *models.Participant
	EnteredBy int // для операций над результатами: profile id из entered_by, 0 если агрегата ещё нет
}

// Guard — AuthorizationGuard: чистая проверка полномочий, вычисляемая до
// любой мутации. Никогда не изменяет состояние. Отказ выражается типизированной
// ошибкой: forbidden-семейство или not-found, когда сам факт членства не должен
// раскрываться.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Can возвращает nil, если actorID может выполнить операцию op в контексте gc.
func (g *Guard) Can(actorID int, op Operation, gc GuardContext) error {
	if actorID <= 0 {
		return ErrForbiddenOperation
	}

	switch op {
	case OpCreatePost:
		// Любой аутентифицированный профиль.
		return nil

	case OpReadPost:
		if !g.canReadPost(actorID, gc) {
			return ErrGroupPostNotFound
		}
		return nil

	case OpUpdatePost, OpDeletePost:
		if gc.Post == nil {
			return ErrGroupPostNotFound
		}
		if gc.Post.CreatorID != actorID {
			// Невидимый пост не должен подтверждать своё существование.
			if !g.canReadPost(actorID, gc) {
				return ErrGroupPostNotFound
			}
			return ErrCreatorOnlyOperation
		}
		return nil

	case OpAddParticipants:
		if !g.isCreatorOrOrganizer(actorID, gc) {
			return ErrOrganizerActionForbidden
		}
		return nil

	case OpUpdateParticipantRole:
		if gc.Subject != nil && gc.Subject.Role == models.RoleCreator {
			return ErrForbiddenOperation
		}
		if !g.isCreatorOrOrganizer(actorID, gc) {
			return ErrOrganizerActionForbidden
		}
		return nil

	case OpRemoveParticipant:
		if gc.Subject == nil {
			return ErrParticipantNotFound
		}
		if gc.Subject.Role == models.RoleCreator {
			return ErrCannotRemoveCreator
		}
		if gc.Subject.ProfileID == actorID {
			return nil // участник всегда может выйти сам
		}
		if !g.isCreatorOrOrganizer(actorID, gc) {
			return ErrOrganizerActionForbidden
		}
		return nil

	case OpAttest:
		// Только собственная строка. Отсутствие членства не отличимо от
		// отсутствия ресурса, чтобы не раскрывать список участников.
		if gc.Actor == nil || gc.Actor.ProfileID != actorID {
			return ErrParticipantNotFound
		}
		return nil

	case OpCreateScorecard, OpUpdateScorecard:
		if gc.Post == nil {
			return ErrGroupPostNotFound
		}
		if gc.Post.CreatorID != actorID {
			return ErrCreatorOnlyOperation
		}
		return nil

	case OpReadScorecard:
		if !g.canReadPost(actorID, gc) {
			return ErrGroupPostNotFound
		}
		return nil

	case OpRecordScores, OpConfirmScores:
		if gc.Subject == nil {
			return ErrParticipantNotFound
		}
		if gc.Subject.ProfileID == actorID {
			return nil
		}
		if gc.EnteredBy != 0 && gc.EnteredBy == actorID {
			return nil
		}
		return ErrForbiddenOperation

	case OpUnlockScores:
		if gc.Post == nil {
			return ErrGroupPostNotFound
		}
		if gc.Post.CreatorID != actorID {
			return ErrCreatorOnlyOperation
		}
		return nil
	}

	return ErrForbiddenOperation
}

func (g *Guard) canReadPost(actorID int, gc GuardContext) bool {
	if gc.Post == nil {
		return false
	}
	if gc.Post.Visibility == models.VisibilityPublic {
		return true
	}
	if gc.Post.CreatorID == actorID {
		return true
	}
	return gc.Actor != nil && gc.Actor.ProfileID == actorID
}

func (g *Guard) isCreatorOrOrganizer(actorID int, gc GuardContext) bool {
	if gc.Post != nil && gc.Post.CreatorID == actorID {
		return true
	}
	return gc.Actor != nil && gc.Actor.ProfileID == actorID && gc.Actor.Role == models.RoleOrganizer
}
