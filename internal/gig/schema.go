package gig

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const draftSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "skills"],
  "properties": {
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string"},
    "activity": {"type": "string"},
    "industries": {"type": "array", "items": {"type": "string"}},
    "skills": {
      "type": "object",
      "properties": {
        "soft": {"$ref": "#/definitions/skills"},
        "technical": {"$ref": "#/definitions/skills"},
        "professional": {"$ref": "#/definitions/skills"},
        "languages": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["ref"],
            "properties": {
              "ref": {"$ref": "#/definitions/ref"},
              "proficiency": {"type": "string", "enum": ["A1", "A2", "B1", "B2", "C1", "C2", "Native"]}
            }
          }
        }
      },
      "additionalProperties": false
    }
  },
  "definitions": {
    "ref": {
      "oneOf": [
        {"type": "string", "minLength": 1},
        {
          "type": "object",
          "anyOf": [{"required": ["id"]}, {"required": ["$oid"]}, {"required": ["_id"]}]
        }
      ]
    },
    "skills": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["ref"],
        "properties": {
          "ref": {"$ref": "#/definitions/ref"},
          "level": {"type": "integer", "minimum": 0, "maximum": 5},
          "details": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func draftSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(draftSchemaJSON))
	})
	return schema, schemaErr
}

// validateDraftJSON 用 JSON Schema 校验原始请求体。
func validateDraftJSON(data []byte) error {
	s, err := draftSchema()
	if err != nil {
		return fmt.Errorf("load draft schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate draft: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(msgs, "; "))
}
