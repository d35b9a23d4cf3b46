package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/devmahmoudi/formgen/pkg/models"
)

// DefaultFormTTL keeps cached forms short-lived so relation resolution and
// filter rendering see schema edits quickly.
const DefaultFormTTL = 30 * time.Second

// FormCache stores serialized forms under a short TTL. All failures are
// logged and treated as misses so Redis outages never block reads.
type FormCache struct {
	client *Client
	ttl    time.Duration
	logger ectologger.Logger
}

func NewFormCache(client *Client, ttl time.Duration, logger ectologger.Logger) *FormCache {
	if ttl <= 0 {
		ttl = DefaultFormTTL
	}
	return &FormCache{client: client, ttl: ttl, logger: logger}
}

func formKey(id string) string {
	return "formgen:form:" + id
}

// Get returns the cached form or nil on a miss.
func (c *FormCache) Get(ctx context.Context, id string) *models.Form {
	raw, err := c.client.Get(ctx, formKey(id))
	if err != nil {
		if !IsMiss(err) {
			c.logger.WithContext(ctx).WithError(err).WithField("form_id", id).Warn("Form cache read failed")
		}
		return nil
	}

	var form models.Form
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("form_id", id).Warn("Form cache entry is malformed")
		return nil
	}
	return &form
}

// Set stores the form under the cache TTL.
func (c *FormCache) Set(ctx context.Context, form *models.Form) {
	raw, err := json.Marshal(form)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("form_id", form.ID).Warn("Form cache encode failed")
		return
	}
	if err := c.client.Set(ctx, formKey(form.ID), raw, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("form_id", form.ID).Warn("Form cache write failed")
	}
}

// Invalidate drops the cached form after a write or delete.
func (c *FormCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, formKey(id)); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("form_id", id).Warn("Form cache invalidation failed")
	}
}
