package fund

import (
	"context"
	"fmt"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FundCreatedHandler runs the duplicate check for each new fund
type FundCreatedHandler struct {
	checker *DuplicateChecker
}

// NewFundCreatedHandler creates a handler for fund_created events
func NewFundCreatedHandler(checker *DuplicateChecker) *FundCreatedHandler {
	return &FundCreatedHandler{checker: checker}
}

// EventTypes returns the event types this handler is interested in
func (h *FundCreatedHandler) EventTypes() []string {
	return []string{fund.EventTypeCreated}
}

// Handle processes a fund_created event
func (h *FundCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var id int64
	switch e := event.(type) {
	case *fund.CreatedEvent:
		id = e.ID
	case fund.CreatedEvent:
		id = e.ID
	default:
		return fmt.Errorf("unexpected event type: expected %s, got %s", fund.EventTypeCreated, event.EventType())
	}
	return h.checker.Check(ctx, id)
}

// DuplicateNotification describes a detected duplicate fund
type DuplicateNotification struct {
	FundID    int64  `json:"fund_id"`
	Name      string `json:"name"`
	Manager   int64  `json:"manager"`
	StartYear uint16 `json:"start_year"`
}

// DuplicateNotifier delivers duplicate notifications to an outside channel
type DuplicateNotifier interface {
	NotifyDuplicate(ctx context.Context, notification DuplicateNotification) error
}

// FundDuplicateHandler reports fund_duplicate events
type FundDuplicateHandler struct {
	logger   *zap.Logger
	notifier DuplicateNotifier
}

// NewFundDuplicateHandler creates a handler for fund_duplicate events
func NewFundDuplicateHandler(logger *zap.Logger) *FundDuplicateHandler {
	return &FundDuplicateHandler{logger: logger.Named("duplicate_handler")}
}

// WithNotifier sets the notifier for sending notifications
func (h *FundDuplicateHandler) WithNotifier(notifier DuplicateNotifier) *FundDuplicateHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *FundDuplicateHandler) EventTypes() []string {
	return []string{fund.EventTypeDuplicate}
}

// Handle logs the duplicate and forwards it to the notifier.
// A notifier failure fails the event so that a redelivery can notify again.
func (h *FundDuplicateHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var f fund.Fund
	switch e := event.(type) {
	case *fund.DuplicateEvent:
		f = e.Fund
	case fund.DuplicateEvent:
		f = e.Fund
	default:
		return fmt.Errorf("unexpected event type: expected %s, got %s", fund.EventTypeDuplicate, event.EventType())
	}

	h.logger.Warn("duplicate fund detected",
		zap.Int64("fund_id", f.ID),
		zap.String("name", f.Name),
		zap.Int64("manager", f.Manager),
	)

	if h.notifier == nil {
		return nil
	}
	notification := DuplicateNotification{
		FundID:    f.ID,
		Name:      f.Name,
		Manager:   f.Manager,
		StartYear: f.StartYear,
	}
	if err := h.notifier.NotifyDuplicate(ctx, notification); err != nil {
		return fmt.Errorf("notify duplicate of fund %d: %w", f.ID, err)
	}
	return nil
}

// LoggingDuplicateNotifier writes notifications to the log
type LoggingDuplicateNotifier struct {
	logger *zap.Logger
}

// NewLoggingDuplicateNotifier creates a new logging notifier
func NewLoggingDuplicateNotifier(logger *zap.Logger) *LoggingDuplicateNotifier {
	return &LoggingDuplicateNotifier{logger: logger}
}

// NotifyDuplicate logs the notification
func (n *LoggingDuplicateNotifier) NotifyDuplicate(_ context.Context, notification DuplicateNotification) error {
	n.logger.Warn("DUPLICATE FUND",
		zap.Int64("fund_id", notification.FundID),
		zap.String("name", notification.Name),
		zap.Int64("manager", notification.Manager),
	)
	return nil
}

var (
	_ shared.EventHandler = (*FundCreatedHandler)(nil)
	_ shared.EventHandler = (*FundDuplicateHandler)(nil)
	_ DuplicateNotifier   = (*LoggingDuplicateNotifier)(nil)
)
