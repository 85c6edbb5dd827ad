package adapter

import (
	"fmt"
	"time"

	"usersvc/internal/users/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IndexedModel is a driver write model tagged with the position of the
// operation it came from in the client request.
type IndexedModel struct {
	Index int
	Model mongo.WriteModel
}

// WriteModelAdapter translates bulk-update operations into driver write
// models. updateOne/updateMany payloads are wrapped in $set and stamped with
// updatedAt and never upsert; every other kind is passed through as given.
type WriteModelAdapter struct {
	now func() time.Time
}

func NewWriteModelAdapter() *WriteModelAdapter {
	return &WriteModelAdapter{now: time.Now}
}

// NewWriteModelAdapterWithClock is used by tests that need a fixed timestamp.
func NewWriteModelAdapterWithClock(now func() time.Time) *WriteModelAdapter {
	return &WriteModelAdapter{now: now}
}

// Translate converts ops in order. indexes[i] is the request position of
// ops[i]; the output keeps both order and index.
func (a *WriteModelAdapter) Translate(ops []*model.BulkOperation, indexes []int) ([]IndexedModel, error) {
	if len(ops) != len(indexes) {
		return nil, fmt.Errorf("translate: %d operations but %d indexes", len(ops), len(indexes))
	}

	now := a.now()
	out := make([]IndexedModel, 0, len(ops))
	for i, op := range ops {
		wm, err := a.toWriteModel(op, now)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", indexes[i], err)
		}
		out = append(out, IndexedModel{Index: indexes[i], Model: wm})
	}
	return out, nil
}

func (a *WriteModelAdapter) toWriteModel(op *model.BulkOperation, now time.Time) (mongo.WriteModel, error) {
	switch op.Kind {
	case model.OpUpdateOne:
		return mongo.NewUpdateOneModel().
			SetFilter(op.Filter).
			SetUpdate(setWithTimestamp(op.Update, now)), nil
	case model.OpUpdateMany:
		return mongo.NewUpdateManyModel().
			SetFilter(op.Filter).
			SetUpdate(setWithTimestamp(op.Update, now)), nil
	case model.OpReplaceOne:
		m := mongo.NewReplaceOneModel().
			SetFilter(op.Filter).
			SetReplacement(op.Replacement)
		if op.Upsert {
			m.SetUpsert(true)
		}
		return m, nil
	case model.OpInsertOne:
		return mongo.NewInsertOneModel().SetDocument(op.Document), nil
	case model.OpDeleteOne:
		return mongo.NewDeleteOneModel().SetFilter(op.Filter), nil
	case model.OpDeleteMany:
		return mongo.NewDeleteManyModel().SetFilter(op.Filter), nil
	}
	return nil, fmt.Errorf("unsupported bulk operation %q", string(op.Kind))
}

// setWithTimestamp builds {$set: fields + updatedAt}. The caller's map is not
// modified and any client updatedAt is overwritten.
func setWithTimestamp(fields bson.M, now time.Time) bson.M {
	set := make(bson.M, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	set[model.FieldUpdatedAt] = now
	return bson.M{"$set": set}
}

// Models strips the indexes for handing the batch to the store.
func Models(indexed []IndexedModel) []mongo.WriteModel {
	out := make([]mongo.WriteModel, len(indexed))
	for i, im := range indexed {
		out[i] = im.Model
	}
	return out
}
