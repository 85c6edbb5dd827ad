package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"usersvc/internal/users/adapter"
	"usersvc/internal/users/model"
)

// BulkCreate validates every record independently and inserts the valid ones
// in one unordered batch. Invalid records and store rejections are reported at
// their request index. When nothing passes validation a ValidationFailure is
// returned; when some items fail the result comes back together with a
// PartialBatchFailure.
func (s *Service) BulkCreate(ctx context.Context, records []json.RawMessage) (*model.BulkCreateResult, error) {
	if len(records) == 0 {
		return nil, model.NewValidationFailure("Array cannot be empty")
	}

	now := s.now()
	failures := []model.ItemFailure{}
	var messages []string

	users := make([]*model.User, 0, len(records))
	positions := make([]int, 0, len(records))
	for i, raw := range records {
		in, msgs := model.DecodeUserInput(raw)
		if len(msgs) == 0 {
			msgs = in.Validate()
		}
		if len(msgs) > 0 {
			failures = append(failures, model.ItemFailure{Index: i, ErrMsg: strings.Join(msgs, "; ")})
			messages = append(messages, indexMessages(i, len(records), msgs)...)
			continue
		}
		users = append(users, in.ToUser(now))
		positions = append(positions, i)
	}

	if len(users) == 0 {
		return nil, model.NewValidationFailure(messages...)
	}

	res, err := s.Repo.InsertMany(ctx, users)
	if err != nil {
		return nil, err
	}
	failures = append(failures, remap(res.Failures, positions)...)
	sortFailures(failures)

	result := &model.BulkCreateResult{Inserted: res.Inserted, Failures: failures}
	if result.Inserted == nil {
		result.Inserted = []*model.User{}
	}

	s.Logger.Info("bulk create completed",
		"requested", len(records),
		"inserted", len(result.Inserted),
		"failed", len(failures),
	)

	if len(failures) > 0 {
		return result, &model.Failure{Kind: model.PartialBatchFailure, Items: failures}
	}
	return result, nil
}

// BulkUpdate parses each operation, validates update payloads and executes
// the translated batch unordered. Operation failures are reported at their
// request index with the store's raw error detail.
func (s *Service) BulkUpdate(ctx context.Context, rawOps []json.RawMessage) (*model.BulkWriteResult, error) {
	if len(rawOps) == 0 {
		return nil, model.NewValidationFailure("Operations array cannot be empty")
	}

	failures := []model.ItemFailure{}
	var messages []string

	ops := make([]*model.BulkOperation, 0, len(rawOps))
	indexes := make([]int, 0, len(rawOps))
	for i, raw := range rawOps {
		op, err := model.ParseBulkOperation(raw)
		var msgs []string
		if err != nil {
			msgs = []string{err.Error()}
		} else if op.Kind.IsUpdate() {
			msgs = model.ValidateUpdateFields(op.Update)
		}
		if len(msgs) > 0 {
			failures = append(failures, model.ItemFailure{Index: i, ErrMsg: strings.Join(msgs, "; ")})
			messages = append(messages, indexMessages(i, len(rawOps), msgs)...)
			continue
		}
		ops = append(ops, op)
		indexes = append(indexes, i)
	}

	if len(ops) == 0 {
		return nil, model.NewValidationFailure(messages...)
	}

	indexed, err := s.Adapter.Translate(ops, indexes)
	if err != nil {
		return nil, err
	}

	res, err := s.Repo.BulkWrite(ctx, adapter.Models(indexed))
	if err != nil {
		return nil, err
	}
	failures = append(failures, remap(res.Failures, requestIndexes(indexed))...)
	sortFailures(failures)

	result := &model.BulkWriteResult{BulkWriteCounts: res.BulkWriteCounts, Failures: failures}

	s.Logger.Info("bulk update completed",
		"operations", len(rawOps),
		"matched", result.Matched,
		"modified", result.Modified,
		"failed", len(failures),
	)

	if len(failures) > 0 {
		return result, &model.Failure{Kind: model.PartialBatchFailure, Items: failures}
	}
	return result, nil
}

// remap rewrites store-relative indexes to request positions. Indexes the
// store reports out of range are kept as reported.
func remap(in []model.ItemFailure, positions []int) []model.ItemFailure {
	out := make([]model.ItemFailure, 0, len(in))
	for _, f := range in {
		if f.Index >= 0 && f.Index < len(positions) {
			f.Index = positions[f.Index]
		}
		out = append(out, f)
	}
	return out
}

func requestIndexes(indexed []adapter.IndexedModel) []int {
	out := make([]int, len(indexed))
	for i, im := range indexed {
		out[i] = im.Index
	}
	return out
}

func sortFailures(failures []model.ItemFailure) {
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
}

func indexMessages(i, total int, msgs []string) []string {
	if total == 1 {
		return msgs
	}
	out := make([]string, len(msgs))
	for j, m := range msgs {
		out[j] = fmt.Sprintf("[%d] %s", i, m)
	}
	return out
}
