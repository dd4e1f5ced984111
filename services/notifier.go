package services

// EventType — тип доменного события, публикуемого наружу.
type EventType string

const (
	EventParticipantInvited  EventType = "PARTICIPANT_INVITED"
	EventParticipantAttested EventType = "PARTICIPANT_ATTESTED"
	EventParticipantRemoved  EventType = "PARTICIPANT_REMOVED"
	EventScoresConfirmed     EventType = "SCORES_CONFIRMED"
	EventScoresUnlocked      EventType = "SCORES_UNLOCKED"
)

// Event — полезная нагрузка уведомления; привязана к групповому посту.
type Event struct {
	Type        EventType   `json:"type"`
	GroupPostID int         `json:"group_post_id"`
	ProfileID   int         `json:"profile_id,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
}

// NotificationPublisher — внешний коллаборатор доставки уведомлений.
// Публикация fire-and-forget: сервисы никогда не ждут доставки и не
// считают её ошибку ошибкой операции.
type NotificationPublisher interface {
	Publish(event Event)
}

// NopPublisher используется в тестах и в конфигурациях без доставки.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
