package services

import (
	"time"

	"github.com/fieldmates/fieldmates/models"
)

// ApplyAttestation применяет переход машины состояний подтверждения участия
// к строке участника. Целевой статус — только confirmed, declined или maybe;
// pending — исходное состояние приглашения, вернуться в него нельзя. Из любого
// статуса разрешён переход в любой допустимый: участник может передумывать
// неограниченно, терминального состояния нет. Эффекты перехода:
//   - confirmed: attested_at = now
//   - declined:  attested_at = NULL
//   - maybe:     attested_at не трогается
//
// Повторное подтверждение идемпотентно с точностью до метки времени.
func ApplyAttestation(p *models.Participant, next models.ParticipantStatus, now time.Time) error {
	switch next {
	case models.ParticipantConfirmed:
		t := now
		p.AttestedAt = &t
	case models.ParticipantDeclined:
		p.AttestedAt = nil
	case models.ParticipantMaybe:
		// attested_at остаётся как есть
	default:
		return ErrInvalidAttestStatus
	}

	p.Status = next
	return nil
}
