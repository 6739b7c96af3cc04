package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ActionBookingCreated  = "BOOKING_CREATED"
	ActionRuleCreated     = "AVAILABILITY_RULE_CREATED"
	ActionRuleDeactivated = "AVAILABILITY_RULE_DEACTIVATED"
	ActionOverrideSet     = "AVAILABILITY_OVERRIDE_SET"
	ActionServiceCreated  = "SERVICE_CREATED"

	EntityBooking  = "booking"
	EntityRule     = "availability_rule"
	EntityOverride = "availability_override"
	EntityService  = "service"

	SeverityInfo = "info"
)

// AuditEvent неизменяемая запись журнала аудита
type AuditEvent struct {
	ID             uuid.UUID      `json:"id"`
	ActorProfileID *uuid.UUID     `json:"actorProfileId"` // nil для системных действий
	Action         string         `json:"action"`
	EntityType     string         `json:"entityType"`
	EntityID       uuid.UUID      `json:"entityId"`
	Payload        map[string]any `json:"payload"`
	Severity       string         `json:"severity"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// BookingStatusAction строит имя события для смены статуса: BOOKING_<STATUS>
func BookingStatusAction(status BookingStatus) string {
	return fmt.Sprintf("BOOKING_%s", strings.ToUpper(string(status)))
}
