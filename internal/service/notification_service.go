package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/observability"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

const notificationBufferSize = 16

// Message types carried by dispatched notifications.
const (
	MessageSubmissionReceipt     = "submissionreceipt"
	MessageTeamSubmissionReceipt = "teamsubmissionreceipt"
	MessageGraderUpdated         = "gradersubmissionupdated"
	MessageFeedbackAvailable     = "feedbackavailable"
)

// Notifier is the surface the workflow services use to emit messages.
type Notifier interface {
	NotifySubmissionReceipt(ctx context.Context, scope *Scope, submitterID uint, teamMembers []uint)
	NotifyGraders(ctx context.Context, scope *Scope, submitterID uint)
	NotifyFeedbackAvailable(ctx context.Context, scope *Scope, userID, graderID uint) error
}

// NotificationService composes, persists and fans out notifications. Local
// subscribers receive events through an in-process broker; the injected
// delivery transports them to other nodes and external consumers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) (models.Notification, error)
	Subscribe(userID uint) (<-chan NotificationEvent, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo     repository.NotificationRepository
	delivery NotificationDelivery
	groups   GroupDirectory
	logger   zerolog.Logger
	tracer   trace.Tracer
	broker   *notificationBroker
	now      func() time.Time

	// receiptsEnabled is the site-wide switch for submission receipts.
	receiptsEnabled bool
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan NotificationEvent]struct{}
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(repo repository.NotificationRepository, delivery NotificationDelivery, groups GroupDirectory, receiptsEnabled bool, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:            repo,
		delivery:        delivery,
		groups:          groups,
		logger:          logger.With().Str("component", "notification_service").Logger(),
		tracer:          otel.Tracer("github.com/noah-isme/assignflow-api/internal/service/notification"),
		broker:          &notificationBroker{subscribers: make(map[uint]map[chan NotificationEvent]struct{})},
		now:             time.Now,
		receiptsEnabled: receiptsEnabled,
	}
}

// Start wires the cross-node mirror so events published by other instances
// reach local stream subscribers.
func (s *notificationService) Start(ctx context.Context) {
	mirror, ok := s.delivery.(interface {
		Mirror(ctx context.Context, handler func(NotificationEvent))
	})
	if !ok {
		return
	}
	mirror.Mirror(ctx, func(event NotificationEvent) {
		s.broker.broadcast(event.ToUserID, event)
	})
}

// NotifySubmissionReceipt confirms a submission to its author and, for team
// assignments, tells the other members someone submitted on their behalf.
// Receipts are a site-wide opt-in and never fail the submit flow.
func (s *notificationService) NotifySubmissionReceipt(ctx context.Context, scope *Scope, submitterID uint, teamMembers []uint) {
	if !s.receiptsEnabled {
		return
	}

	name := scope.Assignment.Name
	s.dispatch(ctx, NotificationEvent{
		FromUserID:  submitterID,
		ToUserID:    submitterID,
		MessageType: MessageSubmissionReceipt,
		EventType:   "assignment_submitted",
		Subject:     fmt.Sprintf("Submission receipt: %s", name),
		Body:        fmt.Sprintf("You have submitted your work for %q.", name),
	})

	for _, memberID := range teamMembers {
		if memberID == submitterID {
			continue
		}
		s.dispatch(ctx, NotificationEvent{
			FromUserID:  submitterID,
			ToUserID:    memberID,
			MessageType: MessageTeamSubmissionReceipt,
			EventType:   "assignment_submitted",
			Subject:     fmt.Sprintf("Submission receipt: %s", name),
			Body:        fmt.Sprintf("A member of your group has submitted the team work for %q.", name),
		})
	}
}

// NotifyGraders tells everyone who grades the course that a submission changed.
// Gated per assignment; with only the late flag set, notices go out solely for
// submissions arriving after the due date.
func (s *notificationService) NotifyGraders(ctx context.Context, scope *Scope, submitterID uint) {
	late := scope.Assignment.IsPastDue(s.now())
	if !scope.Assignment.SendNotifications && !(scope.Assignment.SendLateNotifications && late) {
		return
	}

	graders, err := s.groups.Graders(ctx, scope.Assignment.CourseID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("course_id", scope.Assignment.CourseID).Msg("failed to resolve graders for notification")
		return
	}

	name := scope.Assignment.Name
	body := fmt.Sprintf("A student has updated their submission for %q.", name)
	if late {
		body = fmt.Sprintf("A student has updated their submission for %q after the due date.", name)
	}

	for _, graderID := range graders {
		s.dispatch(ctx, NotificationEvent{
			FromUserID:  submitterID,
			ToUserID:    graderID,
			MessageType: MessageGraderUpdated,
			EventType:   "assignment_submitted",
			Subject:     fmt.Sprintf("Submission updated: %s", name),
			Body:        body,
		})
	}
}

// NotifyFeedbackAvailable tells a student their work has been graded. Unlike
// the other notices the error is surfaced, so the mailer only marks a grade
// as mailed once the message actually went out.
func (s *notificationService) NotifyFeedbackAvailable(ctx context.Context, scope *Scope, userID, graderID uint) error {
	from := graderID
	if scope.Assignment.IdentitiesHidden() {
		from = 0
	}

	name := scope.Assignment.Name
	return s.dispatch(ctx, NotificationEvent{
		FromUserID:  from,
		ToUserID:    userID,
		MessageType: MessageFeedbackAvailable,
		EventType:   "assignment_graded",
		Subject:     fmt.Sprintf("Feedback available: %s", name),
		Body:        fmt.Sprintf("Your submission for %q has been graded. Feedback is now available.", name),
	})
}

func (s *notificationService) dispatch(ctx context.Context, event NotificationEvent) error {
	event.SentAt = s.now().UTC()

	attrs := []attribute.KeyValue{
		attribute.Int("notification.to_user_id", int(event.ToUserID)),
		attribute.String("notification.message_type", event.MessageType),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.dispatch", trace.WithAttributes(attrs...))
	defer span.End()

	outbox := models.Notification{
		FromUserID:  event.FromUserID,
		ToUserID:    event.ToUserID,
		MessageType: event.MessageType,
		EventType:   event.EventType,
		Subject:     event.Subject,
		Body:        event.Body,
	}
	if err := s.repo.Create(spanCtx, &outbox); err != nil {
		span.RecordError(err)
		observability.Notifications().WithLabelValues(event.MessageType, "failure").Inc()
		return err
	}

	s.broker.broadcast(event.ToUserID, event)

	if err := s.delivery.Send(spanCtx, event); err != nil {
		s.logger.Warn().Err(err).
			Str("message_type", event.MessageType).
			Uint("to_user_id", event.ToUserID).
			Msg("notification delivery failed")
		observability.Notifications().WithLabelValues(event.MessageType, "failure").Inc()
		return err
	}

	observability.Notifications().WithLabelValues(event.MessageType, "success").Inc()
	return nil
}

func (s *notificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (models.Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

// Subscribe attaches a live stream for one user.
func (s *notificationService) Subscribe(userID uint) (<-chan NotificationEvent, func()) {
	channel := make(chan NotificationEvent, notificationBufferSize)
	s.broker.subscribe(userID, channel)

	cleanup := func() {
		s.broker.unsubscribe(userID, channel)
	}
	return channel, cleanup
}

func (b *notificationBroker) subscribe(userID uint, ch chan NotificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan NotificationEvent]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID uint, ch chan NotificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *notificationBroker) broadcast(userID uint, event NotificationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}
