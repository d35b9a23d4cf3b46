// Package events handles event emission for form and response lifecycle
// changes. Emission is best-effort: failures are logged and returned but
// callers treat them as non-fatal so a broker outage never blocks writes.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/devmahmoudi/formgen/pkg/kafka"
	"github.com/devmahmoudi/formgen/pkg/models"
	"github.com/devmahmoudi/formgen/pkg/tracing"
)

// Emitter handles lifecycle event emission
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil producer disables emission.
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitFormCreated emits a form.created event
func (e *Emitter) EmitFormCreated(ctx context.Context, form *models.Form) error {
	return e.emitForm(ctx, "form.created", form)
}

// EmitFormUpdated emits a form.updated event
func (e *Emitter) EmitFormUpdated(ctx context.Context, form *models.Form) error {
	return e.emitForm(ctx, "form.updated", form)
}

// EmitFormDeleted emits a form.deleted event
func (e *Emitter) EmitFormDeleted(ctx context.Context, formID string) error {
	if e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitFormDeleted")
	defer span.End()

	event := &kafka.FormEvent{
		EventType: "form.deleted",
		FormID:    formID,
	}
	if err := e.producer.PublishFormEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit form.deleted event")
		return err
	}
	return nil
}

// EmitResponseSubmitted emits a response.submitted event
func (e *Emitter) EmitResponseSubmitted(ctx context.Context, resp *models.Response) error {
	return e.emitResponse(ctx, "response.submitted", resp)
}

// EmitResponseUpdated emits a response.updated event
func (e *Emitter) EmitResponseUpdated(ctx context.Context, resp *models.Response) error {
	return e.emitResponse(ctx, "response.updated", resp)
}

// EmitResponseDeleted emits a response.deleted event
func (e *Emitter) EmitResponseDeleted(ctx context.Context, formID, responseID string) error {
	if e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitResponseDeleted")
	defer span.End()

	event := &kafka.ResponseEvent{
		EventType:  "response.deleted",
		ResponseID: responseID,
		FormID:     formID,
	}
	if err := e.producer.PublishResponseEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit response.deleted event")
		return err
	}
	return nil
}

func (e *Emitter) emitForm(ctx context.Context, eventType string, form *models.Form) error {
	if e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitForm")
	defer span.End()

	event := &kafka.FormEvent{
		EventType: eventType,
		FormID:    form.ID,
		Title:     form.Title,
		Schema:    form.Schema,
		Version:   form.Version,
	}
	if err := e.producer.PublishFormEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", eventType).Error("Failed to emit form event")
		return err
	}
	return nil
}

func (e *Emitter) emitResponse(ctx context.Context, eventType string, resp *models.Response) error {
	if e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitResponse")
	defer span.End()

	event := &kafka.ResponseEvent{
		EventType:  eventType,
		ResponseID: resp.ID,
		FormID:     resp.FormID,
		Data:       resp.Data,
	}
	if err := e.producer.PublishResponseEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", eventType).Error("Failed to emit response event")
		return err
	}
	return nil
}
