package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SchemaResult is the outcome of checking an event payload.
type SchemaResult string

const (
	SchemaValid   SchemaResult = "valid"
	SchemaInvalid SchemaResult = "invalid"
	// SchemaNone means the event type has no registered schema.
	SchemaNone SchemaResult = "none"
)

var eventSchemaSources = map[string]string{
	"page_view": `{
		"type": "object",
		"properties": {
			"page": {"type": "string", "minLength": 1},
			"title": {"type": "string"},
			"referrer": {"type": "string"}
		},
		"required": ["page"]
	}`,
	"email_signup": `{
		"type": "object",
		"properties": {
			"email": {"type": "string", "format": "email"},
			"source": {"type": "string"}
		},
		"required": ["email"]
	}`,
	"navigation": `{
		"type": "object",
		"properties": {
			"from": {"type": "string"},
			"to": {"type": "string", "minLength": 1}
		},
		"required": ["to"]
	}`,
	"download": `{
		"type": "object",
		"properties": {
			"file": {"type": "string", "minLength": 1},
			"url": {"type": "string"}
		},
		"required": ["file"]
	}`,
}

// EventSchemas holds the compiled schemas of the known event types.
type EventSchemas struct {
	schemas map[string]*jsonschema.Schema
}

// NewEventSchemas compiles every known event schema
func NewEventSchemas() (*EventSchemas, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	es := &EventSchemas{schemas: make(map[string]*jsonschema.Schema, len(eventSchemaSources))}
	for name, src := range eventSchemaSources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("parse %s schema: %w", name, err)
		}
		url := "mem://events/" + name + ".json"
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		es.schemas[name] = sch
	}
	return es, nil
}

// Known reports whether eventType has a schema.
func (es *EventSchemas) Known(eventType string) bool {
	_, ok := es.schemas[eventType]
	return ok
}

// Check validates data against the schema for eventType. The returned
// error describes why an invalid payload failed.
func (es *EventSchemas) Check(eventType string, data []byte) (SchemaResult, error) {
	sch, ok := es.schemas[eventType]
	if !ok {
		return SchemaNone, nil
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return SchemaInvalid, err
	}
	if err := sch.Validate(inst); err != nil {
		return SchemaInvalid, err
	}
	return SchemaValid, nil
}
