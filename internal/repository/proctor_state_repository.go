package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// proctorStateTTL bounds how long monitoring state outlives the session.
// The durable one-strike record is the sessions table itself (a critical
// violation writes status=NULLIFIED there), so expiry here is safe.
const proctorStateTTL = 24 * time.Hour

// ErrProctorStateNotFound is returned when no monitoring state exists for
// a session.
var ErrProctorStateNotFound = errors.New("proctor state not found")

// ProctorStateRepository keeps per-session monitoring state in Redis
// hashes. Keeping it out of process memory means a restart cannot silently
// erase violation history behind the one-strike policy.
type ProctorStateRepository struct {
	rdb *redis.Client
}

// NewProctorStateRepository creates a new ProctorStateRepository.
func NewProctorStateRepository(rdb *redis.Client) *ProctorStateRepository {
	return &ProctorStateRepository{rdb: rdb}
}

// Initialize writes a fresh monitoring state for a session.
func (r *ProctorStateRepository) Initialize(ctx context.Context, state *model.ProctorState) error {
	key := config.CacheKey.ProctorStateKey(state.SessionID.String())

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":           state.UserID,
		"started_at":        state.StartedAt.UTC().Format(time.RFC3339),
		"active":            boolField(state.Active),
		"camera_enabled":    boolField(state.CameraEnabled),
		"fullscreen_active": boolField(state.FullscreenActive),
	})
	pipe.Expire(ctx, key, proctorStateTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get retrieves the monitoring state for a session.
func (r *ProctorStateRepository) Get(ctx context.Context, sessionID uuid.UUID) (*model.ProctorState, error) {
	key := config.CacheKey.ProctorStateKey(sessionID.String())

	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrProctorStateNotFound
	}

	state := &model.ProctorState{
		SessionID:        sessionID,
		Active:           fields["active"] == "1",
		CameraEnabled:    fields["camera_enabled"] == "1",
		FullscreenActive: fields["fullscreen_active"] == "1",
	}
	state.UserID, _ = strconv.Atoi(fields["user_id"])
	state.StartedAt, _ = time.Parse(time.RFC3339, fields["started_at"])
	return state, nil
}

// SetFlags updates the camera/fullscreen flags that are present.
func (r *ProctorStateRepository) SetFlags(ctx context.Context, sessionID uuid.UUID, camera, fullscreen *bool) error {
	key := config.CacheKey.ProctorStateKey(sessionID.String())

	fields := map[string]interface{}{}
	if camera != nil {
		fields["camera_enabled"] = boolField(*camera)
	}
	if fullscreen != nil {
		fields["fullscreen_active"] = boolField(*fullscreen)
	}
	if len(fields) == 0 {
		return nil
	}
	return r.rdb.HSet(ctx, key, fields).Err()
}

// Deactivate marks monitoring as stopped for a session.
func (r *ProctorStateRepository) Deactivate(ctx context.Context, sessionID uuid.UUID) error {
	key := config.CacheKey.ProctorStateKey(sessionID.String())
	return r.rdb.HSet(ctx, key, "active", "0").Err()
}

// IncrementCount bumps the severity counter for a session and returns the
// updated counts.
func (r *ProctorStateRepository) IncrementCount(ctx context.Context, sessionID uuid.UUID, severity model.ViolationSeverity) (model.ViolationCounts, error) {
	key := config.CacheKey.ViolationCountsKey(sessionID.String())

	pipe := r.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, string(severity), 1)
	pipe.Expire(ctx, key, proctorStateTTL)
	getAll := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return model.ViolationCounts{}, err
	}
	return parseCounts(getAll.Val()), nil
}

// Counts returns the current severity counters for a session.
func (r *ProctorStateRepository) Counts(ctx context.Context, sessionID uuid.UUID) (model.ViolationCounts, error) {
	key := config.CacheKey.ViolationCountsKey(sessionID.String())
	fields, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return model.ViolationCounts{}, err
	}
	return parseCounts(fields), nil
}

func parseCounts(fields map[string]string) model.ViolationCounts {
	var counts model.ViolationCounts
	counts.Warnings, _ = strconv.Atoi(fields[string(model.SeverityWarning)])
	counts.Critical, _ = strconv.Atoi(fields[string(model.SeverityCritical)])
	return counts
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
