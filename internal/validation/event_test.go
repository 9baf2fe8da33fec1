package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEventPayload = `{
  "id": "3e2fbe6a-6f0a-4f86-9e5c-0c2f41a2d9b1",
  "title": "Go meetup",
  "description": "Monthly meetup about Go and infrastructure",
  "datetime_from": "2026-09-01T19:00:00Z",
  "datetime_to": null,
  "city": "Moscow",
  "venue": {"title": "Community hall", "address": null, "lat": 55.75, "lon": 37.61},
  "picture": {"image_url": "https://example.org/p.jpg", "local_image": null},
  "price": {"price": 0, "currency": "RUB"},
  "tags": ["it", "meetup"],
  "contact": null,
  "service_id": "kudago:190443",
  "service_type": "KUDAGO",
  "service_data": {"age_restriction": "18+"}
}`

func TestEventValidator(t *testing.T) {
	validator, err := NewEventValidator()
	require.NoError(t, err)

	t.Run("valid payload", func(t *testing.T) {
		assert.NoError(t, validator.ValidateEvent([]byte(validEventPayload)))
	})

	t.Run("minimal payload", func(t *testing.T) {
		minimal := `{
		  "id": "3e2fbe6a-6f0a-4f86-9e5c-0c2f41a2d9b1",
		  "title": "Go meetup",
		  "datetime_from": "2026-09-01T19:00:00Z",
		  "venue": {},
		  "picture": {},
		  "service_id": "kudago:190443",
		  "service_type": "KUDAGO"
		}`
		assert.NoError(t, validator.ValidateEvent([]byte(minimal)))
	})

	t.Run("missing title", func(t *testing.T) {
		payload := `{
		  "id": "3e2fbe6a-6f0a-4f86-9e5c-0c2f41a2d9b1",
		  "datetime_from": "2026-09-01T19:00:00Z",
		  "venue": {},
		  "picture": {},
		  "service_id": "kudago:190443",
		  "service_type": "KUDAGO"
		}`
		err := validator.ValidateEvent([]byte(payload))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "title")
	})

	t.Run("unknown service type", func(t *testing.T) {
		payload := `{
		  "id": "3e2fbe6a-6f0a-4f86-9e5c-0c2f41a2d9b1",
		  "title": "Go meetup",
		  "datetime_from": "2026-09-01T19:00:00Z",
		  "venue": {},
		  "picture": {},
		  "service_id": "meetupcom:1",
		  "service_type": "MEETUPCOM"
		}`
		assert.Error(t, validator.ValidateEvent([]byte(payload)))
	})

	t.Run("unexpected property", func(t *testing.T) {
		payload := `{
		  "id": "3e2fbe6a-6f0a-4f86-9e5c-0c2f41a2d9b1",
		  "title": "Go meetup",
		  "datetime_from": "2026-09-01T19:00:00Z",
		  "venue": {},
		  "picture": {},
		  "service_id": "kudago:190443",
		  "service_type": "KUDAGO",
		  "organizer": "somebody"
		}`
		assert.Error(t, validator.ValidateEvent([]byte(payload)))
	})

	t.Run("malformed json", func(t *testing.T) {
		assert.Error(t, validator.ValidateEvent([]byte(`{"title": `)))
	})
}
