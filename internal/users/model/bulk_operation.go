package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// OpKind names a bulk-update operation variant. The value is the JSON key the
// client uses to select it.
type OpKind string

const (
	OpUpdateOne  OpKind = "updateOne"
	OpUpdateMany OpKind = "updateMany"
	OpInsertOne  OpKind = "insertOne"
	OpReplaceOne OpKind = "replaceOne"
	OpDeleteOne  OpKind = "deleteOne"
	OpDeleteMany OpKind = "deleteMany"
)

// IsUpdate reports whether the translator rewrites this kind into a $set.
func (k OpKind) IsUpdate() bool {
	return k == OpUpdateOne || k == OpUpdateMany
}

// BulkOperation is one item of a bulk-update request. Which payload fields are
// set depends on Kind:
//
//	updateOne, updateMany: Filter, Update
//	replaceOne:            Filter, Replacement, Upsert
//	insertOne:             Document
//	deleteOne, deleteMany: Filter
type BulkOperation struct {
	Kind        OpKind
	Filter      bson.M
	Update      bson.M
	Replacement bson.M
	Document    bson.M
	Upsert      bool
}

var ErrEmptyOperation = errors.New("operation must be an object with a single operation key")

type opBody struct {
	Filter      json.RawMessage `json:"filter"`
	Update      json.RawMessage `json:"update"`
	Replacement json.RawMessage `json:"replacement"`
	Document    json.RawMessage `json:"document"`
	Upsert      bool            `json:"upsert"`
}

// ParseBulkOperation decodes `{"<kind>": {...}}`. Filters, updates and
// documents are read as relaxed MongoDB Extended JSON so that values such as
// {"$oid": "..."} and {"$date": "..."} keep their BSON types.
func ParseBulkOperation(raw json.RawMessage) (*BulkOperation, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrEmptyOperation
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("invalid operation: %w", err)
	}
	if len(envelope) != 1 {
		return nil, ErrEmptyOperation
	}

	var (
		kind OpKind
		body json.RawMessage
	)
	for k, v := range envelope {
		kind, body = OpKind(k), v
	}

	var b opBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("%s: body must be an object", kind)
	}

	op := &BulkOperation{Kind: kind}
	var err error
	switch kind {
	case OpUpdateOne, OpUpdateMany:
		// updates never upsert; records are created by bulk-create only
		if op.Filter, err = requireDoc(kind, "filter", b.Filter); err != nil {
			return nil, err
		}
		if op.Update, err = requireDoc(kind, "update", b.Update); err != nil {
			return nil, err
		}
		if len(op.Update) == 0 {
			return nil, fmt.Errorf("%s: update must not be empty", kind)
		}
	case OpReplaceOne:
		if op.Filter, err = requireDoc(kind, "filter", b.Filter); err != nil {
			return nil, err
		}
		if op.Replacement, err = requireDoc(kind, "replacement", b.Replacement); err != nil {
			return nil, err
		}
		op.Upsert = b.Upsert
	case OpInsertOne:
		if op.Document, err = requireDoc(kind, "document", b.Document); err != nil {
			return nil, err
		}
	case OpDeleteOne, OpDeleteMany:
		if op.Filter, err = requireDoc(kind, "filter", b.Filter); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported bulk operation %q", string(kind))
	}
	return op, nil
}

func requireDoc(kind OpKind, name string, raw json.RawMessage) (bson.M, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%s: %s is required", kind, name)
	}
	doc := bson.M{}
	if err := bson.UnmarshalExtJSON(trimmed, false, &doc); err != nil {
		return nil, fmt.Errorf("%s: %s must be an object", kind, name)
	}
	return doc, nil
}
