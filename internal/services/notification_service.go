package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mpiyush15/pixels-official-sub001/internal/apperrors"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/db"
	"github.com/mpiyush15/pixels-official-sub001/internal/invoicedoc"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

// Actor identifies whose feed is built and whose read markers are written.
type Actor struct {
	ID   string
	Kind models.ActorKind
}

// INotificationService derives notification feeds from recent ledger events.
type INotificationService interface {
	Build(ctx context.Context, actor Actor) (*models.NotificationFeed, error)
	MarkRead(ctx context.Context, actor Actor, notificationID string) error
	// MarkManyRead marks the given ids read, or every currently visible notification when ids is empty.
	MarkManyRead(ctx context.Context, actor Actor, ids []string) (int, error)
}

type notificationService struct {
	db  *mongo.Database
	cfg *config.Config
	now func() time.Time
}

func NewNotificationService(database *mongo.Database, cfg *config.Config) INotificationService {
	return &notificationService{
		db:  database,
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func checkActor(actor Actor) error {
	if actor.ID == "" {
		return apperrors.ErrUnauthorized
	}
	if actor.Kind != models.ActorAdmin && actor.Kind != models.ActorStaff {
		return fmt.Errorf("no notification feed for %q: %w", actor.Kind, apperrors.ErrBadRequest)
	}
	return nil
}

func (s *notificationService) Build(ctx context.Context, actor Actor) (*models.NotificationFeed, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	now := s.now()
	since := now.Add(-s.cfg.NotificationLookback)

	var (
		items []models.Notification
		err   error
	)
	if actor.Kind == models.ActorAdmin {
		items, err = s.adminEvents(ctx, since)
	} else {
		items, err = s.staffEvents(ctx, actor.ID, since, now)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].ID < items[j].ID
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if actor.Kind == models.ActorAdmin && len(items) > s.cfg.AdminNotificationCap {
		items = items[:s.cfg.AdminNotificationCap]
	}

	read, err := s.readSet(ctx, actor, items)
	if err != nil {
		return nil, err
	}
	feed := &models.NotificationFeed{Items: make([]models.Notification, 0, len(items))}
	for _, n := range items {
		n.Read = read[n.ID]
		if !n.Read {
			feed.UnreadCount++
		}
		feed.Items = append(feed.Items, n)
	}
	return feed, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, internalErr("query "+coll.Name(), err)
	}
	defer cursor.Close(ctx)
	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, internalErr("decode "+coll.Name(), err)
	}
	return out, nil
}

func (s *notificationService) adminEvents(ctx context.Context, since time.Time) ([]models.Notification, error) {
	var items []models.Notification
	projects := s.db.Collection(projectsCollection)
	accepted, err := findAll[models.Project](ctx, projects, bson.M{"contract_accepted": true, "contract_accepted_at": bson.M{"$gte": since}},
		options.Find().SetLimit(int64(s.cfg.AdminNotificationCap)).SetSort(bson.D{{Key: "contract_accepted_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	for _, p := range accepted {
		items = append(items, models.Notification{
			ID:        "contract-" + p.ID.String(),
			Kind:      models.NotificationContractAccepted,
			Title:     "Contract accepted",
			Message:   fmt.Sprintf("The contract for %s was accepted", p.Name),
			Link:      "/admin/projects/" + p.ID.String(),
			Timestamp: *p.ContractAcceptedAt,
		})
	}

	payments, err := findAll[models.Payment](ctx, s.db.Collection(paymentsCollection),
		bson.M{"status": models.PaymentStatusCompleted, "payment_date": bson.M{"$gte": since}},
		options.Find().SetLimit(int64(s.cfg.AdminNotificationCap)).SetSort(bson.D{{Key: "payment_date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		items = append(items, models.Notification{
			ID:        "payment-" + p.ID.String(),
			Kind:      models.NotificationPaymentReceived,
			Title:     "Payment received",
			Message:   fmt.Sprintf("Payment of %s received", invoicedoc.FormatMoney(p.Amount, s.cfg.CurrencyCode)),
			Link:      "/admin/payments",
			Timestamp: p.PaymentDate,
		})
	}

	subs, err := findAll[models.WorkSubmission](ctx, s.db.Collection(workSubmissionsCollection),
		bson.M{"created_at": bson.M{"$gte": since}},
		options.Find().SetLimit(int64(s.cfg.AdminNotificationCap)).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		items = append(items, models.Notification{
			ID:        "submission-" + sub.ID.String(),
			Kind:      models.NotificationWorkSubmitted,
			Title:     "New work submission",
			Message:   sub.Title,
			Link:      "/admin/submissions",
			Timestamp: sub.CreatedAt,
		})
	}

	changed, err := findAll[models.Project](ctx, projects, bson.M{"status_changed_at": bson.M{"$gte": since}},
		options.Find().SetLimit(int64(s.cfg.AdminNotificationCap)).SetSort(bson.D{{Key: "status_changed_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	for _, p := range changed {
		items = append(items, models.Notification{
			// Keyed by the change time so each status change is its own notification.
			ID:        fmt.Sprintf("status-%s-%d", p.ID.String(), p.StatusChangedAt.Unix()),
			Kind:      models.NotificationStatusChanged,
			Title:     "Project status changed",
			Message:   fmt.Sprintf("%s is now %s", p.Name, p.Status),
			Link:      "/admin/projects/" + p.ID.String(),
			Timestamp: *p.StatusChangedAt,
		})
	}
	return items, nil
}

func (s *notificationService) staffEvents(ctx context.Context, assigneeID string, since, now time.Time) ([]models.Notification, error) {
	tasks, err := findAll[models.Task](ctx, s.db.Collection(tasksCollection), bson.M{
		"assignee_id": assigneeID,
		"$or": bson.A{
			bson.M{"assigned_at": bson.M{"$gte": since}},
			bson.M{"approved_at": bson.M{"$gte": since}},
			bson.M{"revision_requested_at": bson.M{"$gte": since}},
			bson.M{"due_date": bson.M{"$gte": now, "$lte": now.Add(s.cfg.DeadlineWarningWindow)}},
		},
	})
	if err != nil {
		return nil, err
	}

	var items []models.Notification
	for _, t := range tasks {
		id := t.ID.String()
		link := "/staff/tasks/" + id
		if !t.AssignedAt.Before(since) {
			items = append(items, models.Notification{
				ID: "task-assigned-" + id, Kind: models.NotificationTaskAssigned,
				Title: "New task assigned", Message: t.Title, Link: link, Timestamp: t.AssignedAt,
			})
		}
		if t.DueDate != nil && t.Status != models.TaskStatusApproved &&
			!t.DueDate.Before(now) && !t.DueDate.After(now.Add(s.cfg.DeadlineWarningWindow)) {
			items = append(items, models.Notification{
				ID: "deadline-" + id, Kind: models.NotificationDeadline,
				Title:   "Deadline approaching",
				Message: fmt.Sprintf("%s is due %s", t.Title, t.DueDate.UTC().Format("02 Jan 15:04")),
				Link:    link,
				// Surfaces at the start of the warning window.
				Timestamp: t.DueDate.Add(-s.cfg.DeadlineWarningWindow),
			})
		}
		if t.ApprovedAt != nil && !t.ApprovedAt.Before(since) {
			items = append(items, models.Notification{
				ID: "task-approved-" + id, Kind: models.NotificationTaskApproved,
				Title: "Task approved", Message: t.Title, Link: link, Timestamp: *t.ApprovedAt,
			})
		}
		if t.RevisionRequestedAt != nil && !t.RevisionRequestedAt.Before(since) {
			items = append(items, models.Notification{
				ID:   fmt.Sprintf("task-revision-%s-%d", id, t.RevisionRequestedAt.Unix()),
				Kind: models.NotificationRevisionRequested, Title: "Revision requested",
				Message: t.Title, Link: link, Timestamp: *t.RevisionRequestedAt,
			})
		}
	}
	return items, nil
}

func (s *notificationService) readSet(ctx context.Context, actor Actor, items []models.Notification) (map[string]bool, error) {
	read := map[string]bool{}
	if len(items) == 0 {
		return read, nil
	}
	ids := make([]string, len(items))
	for i, n := range items {
		ids[i] = n.ID
	}
	markers, err := findAll[models.ReadNotification](ctx, s.db.Collection(readNotificationsCollection), bson.M{
		"actor_id":        actor.ID,
		"actor_kind":      actor.Kind,
		"notification_id": bson.M{"$in": ids},
	})
	if err != nil {
		return nil, err
	}
	for _, m := range markers {
		read[m.NotificationID] = true
	}
	return read, nil
}

func readMarkerUpsert(actor Actor, id string, now time.Time) mongo.WriteModel {
	return mongo.NewUpdateOneModel().
		SetFilter(bson.M{"actor_id": actor.ID, "actor_kind": actor.Kind, "notification_id": id}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{"_id": utils.NewSixID(), "read_at": now}}).
		SetUpsert(true)
}

func (s *notificationService) MarkRead(ctx context.Context, actor Actor, notificationID string) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if notificationID == "" {
		return fmt.Errorf("notification id is required: %w", apperrors.ErrBadRequest)
	}
	_, err := s.MarkManyRead(ctx, actor, []string{notificationID})
	return err
}

func (s *notificationService) MarkManyRead(ctx context.Context, actor Actor, ids []string) (int, error) {
	if err := checkActor(actor); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		feed, err := s.Build(ctx, actor)
		if err != nil {
			return 0, err
		}
		for _, n := range feed.Items {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	now := s.now()
	seen := map[string]bool{}
	writes := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		writes = append(writes, readMarkerUpsert(actor, id, now))
	}
	if len(writes) == 0 {
		return 0, nil
	}
	_, err := s.db.Collection(readNotificationsCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	// A concurrent upsert of the same marker loses on the unique index; the marker exists either way.
	if err != nil && !db.IsMongoDuplicateKeyError(err) {
		return 0, internalErr("mark notifications read", err)
	}
	return len(writes), nil
}
