package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// eventSchema is the strict shape of the event payload stored in the
// vector index. Payloads read back from the index are validated against
// it before being decoded into models.Event, so a drifted or hand-edited
// payload fails the request instead of producing a half-filled event.
const eventSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "datetime_from", "venue", "picture", "service_id", "service_type"],
  "additionalProperties": false,
  "properties": {
    "id": {"type": "string", "format": "uuid"},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": ["string", "null"]},
    "datetime_from": {"type": "string", "format": "date-time"},
    "datetime_to": {"type": ["string", "null"], "format": "date-time"},
    "city": {"type": ["string", "null"]},
    "venue": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "title": {"type": ["string", "null"]},
        "address": {"type": ["string", "null"]},
        "lat": {"type": ["number", "null"]},
        "lon": {"type": ["number", "null"]}
      }
    },
    "picture": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "image_url": {"type": ["string", "null"]},
        "local_image": {"type": ["string", "null"]}
      }
    },
    "price": {
      "type": ["object", "null"],
      "required": ["price", "currency"],
      "additionalProperties": false,
      "properties": {
        "price": {"type": "number"},
        "currency": {"type": "string"}
      }
    },
    "tags": {"type": ["array", "null"], "items": {"type": "string"}},
    "contact": {"type": ["string", "null"]},
    "service_id": {"type": "string", "minLength": 1},
    "service_type": {"type": "string", "enum": ["KUDAGO", "TIMEPAD", "NETWORKLY", "RESONANSE"]},
    "service_data": {"type": ["object", "null"]}
  }
}`

// EventValidator validates raw event payloads against the schema above.
type EventValidator struct {
	schema *gojsonschema.Schema
}

func NewEventValidator() (*EventValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eventSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}
	return &EventValidator{schema: schema}, nil
}

// ValidateEvent checks raw JSON against the event schema and returns a
// descriptive error on the first mismatch.
func (v *EventValidator) ValidateEvent(raw []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("event payload validation failed: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("event payload does not match schema: %v", msgs)
	}
	return nil
}
