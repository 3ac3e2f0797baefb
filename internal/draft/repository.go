// Package draft owns the persistence policy for the in-progress wizard
// draft: a Redis-backed repository storing one JSON envelope per admin
// session, and a debounced autosaver that coalesces rapid edits.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mealsub-admin/internal/common/database"
	"mealsub-admin/internal/common/logger"
	"mealsub-admin/internal/wizard"

	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"
)

// Envelope is the persisted record shape.
type Envelope struct {
	FormData    wizard.Draft `json:"formData"`
	CurrentStep int          `json:"currentStep,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

// Repository persists the wizard draft. Load returns nil without error
// when no draft exists or the stored record is unusable.
type Repository interface {
	Load(ctx context.Context) (*Envelope, error)
	Save(ctx context.Context, env *Envelope) error
	Clear(ctx context.Context) error
}

// envelopeSchema guards Load against records written by incompatible
// builds or corrupted by hand. Schema failure degrades to "no draft".
const envelopeSchema = `{
	"type": "object",
	"properties": {
		"formData": {"type": "object"},
		"currentStep": {"type": "integer"},
		"timestamp": {"type": "string"}
	},
	"required": ["formData", "timestamp"]
}`

// RedisRepository stores the envelope under a single key per session.
type RedisRepository struct {
	rdb    *database.RedisClient
	key    string
	ttl    time.Duration
	schema *gojsonschema.Schema
	log    logger.Logger
}

func NewRedisRepository(rdb *database.RedisClient, key string, ttl time.Duration, log logger.Logger) (*RedisRepository, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		return nil, err
	}
	return &RedisRepository{
		rdb:    rdb,
		key:    key,
		ttl:    ttl,
		schema: schema,
		log:    log.WithFields(map[string]interface{}{"component": "draftRepository"}),
	}, nil
}

func (r *RedisRepository) Load(ctx context.Context) (*Envelope, error) {
	raw, err := r.rdb.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	result, err := r.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil || !result.Valid() {
		r.log.Warn("persisted draft failed schema check, discarding", map[string]interface{}{
			"key": r.key,
		})
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.log.Warn("persisted draft failed to decode, discarding", map[string]interface{}{
			"key":   r.key,
			"error": err.Error(),
		})
		return nil, nil
	}
	return &env, nil
}

func (r *RedisRepository) Save(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key, data, r.ttl)
}

func (r *RedisRepository) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key)
}
