// Package docstore is the typed client for the real-time document
// store holding canonical report state. Partitions follow the scheme
// reports/{category}/reports/{id} with userFeedback and workerFeedback
// sub-partitions, a deletedReports soft-delete archive, a
// globalNotification broadcast partition and a verifyAccount partition.
//
// Backed by Redis: one hash per category partition, one list per
// feedback sub-partition, and a pub/sub channel per category carrying
// full document payloads so live consumers converge without re-reading.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
)

// ErrNotFound indicates the document does not exist in its partition.
var ErrNotFound = errors.New("document not found")

const (
	deletedReportsKey     = "deletedReports"
	globalNotificationKey = "globalNotification"
	verifyAccountKey      = "verifyAccount"
)

// Store wraps the Redis connection with the partition scheme.
type Store struct {
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

// NewStore creates a document store client.
func NewStore(rdb *redis.Client, logger *zap.SugaredLogger) *Store {
	return &Store{rdb: rdb, logger: logger}
}

// NewClient connects to Redis from a URL and verifies connectivity.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func categoryKey(c models.Category) string {
	return fmt.Sprintf("reports:%s", c)
}

func feedbackKey(c models.Category, id, kind string) string {
	return fmt.Sprintf("reports:%s:%s:%s", c, id, kind)
}

// Channel returns the pub/sub channel name for a category partition.
func Channel(c models.Category) string {
	return fmt.Sprintf("reports:%s", c)
}

// ListReports returns every report in a category partition, optionally
// narrowed to report_date >= since (zero since means no bound).
func (s *Store) ListReports(ctx context.Context, category models.Category, since time.Time) ([]models.Report, error) {
	raw, err := s.rdb.HGetAll(ctx, categoryKey(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s reports: %w", category, err)
	}

	reports := make([]models.Report, 0, len(raw))
	for id, doc := range raw {
		r, err := decodeReport(category, id, []byte(doc))
		if err != nil {
			s.logger.Warnw("Skipping malformed report document",
				"category", category, "id", id, "error", err)
			continue
		}
		if !since.IsZero() && r.ReportDate.Before(since) {
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// GetReport fetches a single report by its partition key.
func (s *Store) GetReport(ctx context.Context, category models.Category, id string) (*models.Report, error) {
	doc, err := s.rdb.HGet(ctx, categoryKey(category), id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s/%s: %w", category, id, err)
	}
	r, err := decodeReport(category, id, doc)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// PutReport writes a report document and notifies live subscribers.
func (s *Store) PutReport(ctx context.Context, r models.Report) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := s.rdb.HSet(ctx, categoryKey(r.Category), r.ID, doc).Err(); err != nil {
		return fmt.Errorf("put report %s/%s: %w", r.Category, r.ID, err)
	}
	if err := s.rdb.Publish(ctx, Channel(r.Category), doc).Err(); err != nil {
		s.logger.Warnw("Failed to publish report change",
			"category", r.Category, "id", r.ID, "error", err)
	}
	return nil
}

// Validate marks a report validated. The transition happens exactly
// once; validating an already-validated report is a no-op.
func (s *Store) Validate(ctx context.Context, category models.Category, id string) (*models.Report, error) {
	r, err := s.GetReport(ctx, category, id)
	if err != nil {
		return nil, err
	}
	if r.IsValidated {
		return r, nil
	}
	r.IsValidated = true
	r.UpdateDate = time.Now().UTC()
	if err := s.PutReport(ctx, *r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateStatus sets a report's status and touches update_date.
func (s *Store) UpdateStatus(ctx context.Context, category models.Category, id string, status models.ReportStatus) (*models.Report, error) {
	r, err := s.GetReport(ctx, category, id)
	if err != nil {
		return nil, err
	}
	r.Status = status
	r.UpdateDate = time.Now().UTC()
	if err := s.PutReport(ctx, *r); err != nil {
		return nil, err
	}
	return r, nil
}

// Assign routes a report to a worker or department-admin account.
func (s *Store) Assign(ctx context.Context, category models.Category, id, accountID string) (*models.Report, error) {
	r, err := s.GetReport(ctx, category, id)
	if err != nil {
		return nil, err
	}
	r.AssignedToID = accountID
	r.UpdateDate = time.Now().UTC()
	if err := s.PutReport(ctx, *r); err != nil {
		return nil, err
	}
	return r, nil
}

// SoftDelete archives a report into deletedReports, then removes the
// original document and its feedback sub-partitions.
func (s *Store) SoftDelete(ctx context.Context, category models.Category, id string) error {
	r, err := s.GetReport(ctx, category, id)
	if err != nil {
		return err
	}

	archived := struct {
		models.Report
		DeletedAt time.Time `json:"deleted_at"`
	}{Report: *r, DeletedAt: time.Now().UTC()}

	doc, err := json.Marshal(archived)
	if err != nil {
		return fmt.Errorf("encode archived report: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, deletedReportsKey, fmt.Sprintf("%s:%s", category, id), doc)
	pipe.HDel(ctx, categoryKey(category), id)
	pipe.Del(ctx,
		feedbackKey(category, id, "userFeedback"),
		feedbackKey(category, id, "workerFeedback"),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("soft delete %s/%s: %w", category, id, err)
	}

	// Removal payload: id only, no document body.
	tomb, _ := json.Marshal(map[string]string{"id": id, "deleted": "true"})
	if err := s.rdb.Publish(ctx, Channel(category), tomb).Err(); err != nil {
		s.logger.Warnw("Failed to publish report removal",
			"category", category, "id", id, "error", err)
	}
	return nil
}

// UserFeedback lists the userFeedback sub-partition of a report.
func (s *Store) UserFeedback(ctx context.Context, category models.Category, id string) ([]models.Feedback, error) {
	return s.feedback(ctx, feedbackKey(category, id, "userFeedback"))
}

// WorkerFeedback lists the workerFeedback sub-partition of a report.
func (s *Store) WorkerFeedback(ctx context.Context, category models.Category, id string) ([]models.Feedback, error) {
	return s.feedback(ctx, feedbackKey(category, id, "workerFeedback"))
}

func (s *Store) feedback(ctx context.Context, key string) ([]models.Feedback, error) {
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list feedback %s: %w", key, err)
	}
	out := make([]models.Feedback, 0, len(raw))
	for _, doc := range raw {
		var f models.Feedback
		if err := json.Unmarshal([]byte(doc), &f); err != nil {
			s.logger.Warnw("Skipping malformed feedback entry", "key", key, "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// AppendFeedback adds an entry to a report's feedback sub-partition.
// kind is "userFeedback" or "workerFeedback".
func (s *Store) AppendFeedback(ctx context.Context, category models.Category, id, kind string, f models.Feedback) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	key := feedbackKey(category, id, kind)
	if err := s.rdb.RPush(ctx, key, doc).Err(); err != nil {
		return fmt.Errorf("append feedback %s: %w", key, err)
	}
	return nil
}

// PublishNotification appends a broadcast to globalNotification.
func (s *Store) PublishNotification(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	if err := s.rdb.RPush(ctx, globalNotificationKey, doc).Err(); err != nil {
		return nil, fmt.Errorf("publish notification: %w", err)
	}
	if err := s.rdb.Publish(ctx, globalNotificationKey, doc).Err(); err != nil {
		s.logger.Warnw("Failed to publish notification change", "error", err)
	}
	return &n, nil
}

// ListNotifications returns broadcasts, newest last.
func (s *Store) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	raw, err := s.rdb.LRange(ctx, globalNotificationKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]models.Notification, 0, len(raw))
	for _, doc := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(doc), &n); err != nil {
			s.logger.Warnw("Skipping malformed notification", "error", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// VerificationRequests lists pending entries in verifyAccount.
func (s *Store) VerificationRequests(ctx context.Context) ([]models.VerificationRequest, error) {
	raw, err := s.rdb.HGetAll(ctx, verifyAccountKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	out := make([]models.VerificationRequest, 0, len(raw))
	for userID, doc := range raw {
		var v models.VerificationRequest
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			s.logger.Warnw("Skipping malformed verification request",
				"user_id", userID, "error", err)
			continue
		}
		v.UserID = userID
		out = append(out, v)
	}
	return out, nil
}

// AddVerificationRequest records a pending account verification.
func (s *Store) AddVerificationRequest(ctx context.Context, v models.VerificationRequest) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.RequestedAt.IsZero() {
		v.RequestedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verification request: %w", err)
	}
	return s.rdb.HSet(ctx, verifyAccountKey, v.UserID, doc).Err()
}

// ResolveVerification removes a user's entry from verifyAccount once
// the account has been approved or denied.
func (s *Store) ResolveVerification(ctx context.Context, userID string) error {
	n, err := s.rdb.HDel(ctx, verifyAccountKey, userID).Result()
	if err != nil {
		return fmt.Errorf("resolve verification %s: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Watch opens a live subscription on a category partition. Documents
// published on the channel are decoded and delivered on the returned
// channel; the cancel func closes the subscription. Deletion tombstones
// (payloads without a report_date) are dropped — consumers pick up
// removals on the next re-scope.
func (s *Store) Watch(ctx context.Context, category models.Category) (<-chan models.Report, func(), error) {
	sub := s.rdb.Subscribe(ctx, Channel(category))

	// Force the subscription to be established before returning so
	// callers never miss messages published after Watch returns.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", category, err)
	}

	out := make(chan models.Report)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			r, err := decodeReport(category, "", []byte(msg.Payload))
			if err != nil || r.ID == "" || r.ReportDate.IsZero() {
				continue
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { sub.Close() }
	return out, cancel, nil
}

// decodeReport normalizes a raw document into the canonical shape:
// the partition's category is attached and the id falls back to the
// partition field when the document body omits it.
func decodeReport(category models.Category, id string, doc []byte) (models.Report, error) {
	var r models.Report
	if err := json.Unmarshal(doc, &r); err != nil {
		return models.Report{}, fmt.Errorf("decode report: %w", err)
	}
	r.Category = category
	if r.ID == "" {
		r.ID = id
	}
	return r, nil
}
