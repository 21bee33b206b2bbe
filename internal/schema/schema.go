// Package schema validates device-type content schemas and structured content
// values against them. Schemas are JSON Schema Draft 2020-12 documents.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const resourceURL = "urn:content-schema"

// ValidateSchema checks that the value is a JSON object and a valid Draft
// 2020-12 schema. Errors carry the JSON path of the offending node.
func ValidateSchema(doc map[string]any) error {
	if doc == nil {
		return apperror.NewValidation("content_schema", "schema must be a JSON object")
	}
	_, err := compile(doc)
	return err
}

// Compile builds a validator for the given schema document.
func Compile(doc map[string]any) (*jsonschema.Schema, error) {
	return compile(doc)
}

func compile(doc map[string]any) (*jsonschema.Schema, error) {
	normalized, err := normalize(doc)
	if err != nil {
		return nil, apperror.NewValidation("content_schema", err.Error())
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource(resourceURL, normalized); err != nil {
		return nil, apperror.NewValidation("content_schema", err.Error())
	}

	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, schemaError(err)
	}
	return compiled, nil
}

// normalize round-trips a value through the JSON decoder the validator
// expects, so numbers keep their schema-level semantics.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

func schemaError(err error) error {
	fields := apperror.FieldErrors{}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		collectCauses(verr, fields)
	} else {
		fields.Add("content_schema", err.Error())
	}
	return &apperror.ValidationError{Fields: fields}
}

// ValidateContent validates a content value against a compiled schema. The
// value must already be in its JSON form (see Coerce for tabular inputs).
func ValidateContent(compiled *jsonschema.Schema, value any) error {
	normalized, err := normalize(value)
	if err != nil {
		return apperror.NewValidation("content_s", err.Error())
	}

	if err := compiled.Validate(normalized); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			fields := apperror.FieldErrors{}
			collectCauses(verr, fields)
			return &apperror.ValidationError{Fields: fields}
		}
		return apperror.NewValidation("content_s", err.Error())
	}
	return nil
}

func collectCauses(verr *jsonschema.ValidationError, fields apperror.FieldErrors) {
	if len(verr.Causes) == 0 {
		path := "content_s"
		if len(verr.InstanceLocation) > 0 {
			path = path + "." + strings.Join(verr.InstanceLocation, ".")
		}
		fields.Add(path, fmt.Sprintf("%v", verr.ErrorKind))
		return
	}
	for _, cause := range verr.Causes {
		collectCauses(cause, fields)
	}
}

// cache holds compiled schemas keyed by device type id and update stamp, so a
// schema is compiled once per process per catalogue revision.
type cache struct {
	mu sync.RWMutex
	m  map[string]*jsonschema.Schema
}

var compiledCache = &cache{m: map[string]*jsonschema.Schema{}}

// CompileCached compiles doc, reusing a previous compilation under the same
// key. Keys should include the owning type's updated-at stamp.
func CompileCached(key string, doc map[string]any) (*jsonschema.Schema, error) {
	compiledCache.mu.RLock()
	hit, ok := compiledCache.m[key]
	compiledCache.mu.RUnlock()
	if ok {
		return hit, nil
	}

	compiled, err := compile(doc)
	if err != nil {
		return nil, err
	}

	compiledCache.mu.Lock()
	compiledCache.m[key] = compiled
	compiledCache.mu.Unlock()
	return compiled, nil
}
