package repository

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"usersvc/internal/users/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// codeDocumentValidation is the server code for a $jsonSchema/validator rejection.
const codeDocumentValidation = 121

var dupKeyPattern = regexp.MustCompile(`dup key: \{ ?"?([\w.]+)"?\s*:`)

// classifyError converts a driver error into a *model.Failure. It is the only
// place that inspects driver error fields.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var failure *model.Failure
	if errors.As(err, &failure) {
		return failure
	}

	switch {
	case errors.Is(err, primitive.ErrInvalidHex):
		return model.NewCastFailure(err)
	case mongo.IsDuplicateKeyError(err):
		return &model.Failure{Kind: model.DuplicateKeyFailure, Field: duplicateField(err), Err: err}
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err):
		return &model.Failure{
			Kind:    model.StoreFailure,
			Status:  http.StatusGatewayTimeout,
			Message: "Database operation timed out",
			Err:     err,
		}
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) && serverErr.HasErrorCode(codeDocumentValidation) {
		return &model.Failure{Kind: model.ValidationFailure, Messages: []string{"Document failed validation"}, Err: err}
	}

	return &model.Failure{Kind: model.StoreFailure, Err: err}
}

// duplicateField extracts the unique field that was violated, preferring the
// server supplied keyPattern over parsing the message.
func duplicateField(err error) string {
	var writeErrs []mongo.WriteError
	var we mongo.WriteException
	var bwe mongo.BulkWriteException
	switch {
	case errors.As(err, &we):
		writeErrs = we.WriteErrors
	case errors.As(err, &bwe):
		for _, e := range bwe.WriteErrors {
			writeErrs = append(writeErrs, e.WriteError)
		}
	}

	for _, e := range writeErrs {
		if field := keyPatternField(e.Raw); field != "" {
			return field
		}
		if m := dupKeyPattern.FindStringSubmatch(e.Message); m != nil {
			return m[1]
		}
	}
	if m := dupKeyPattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return "field"
}

func keyPatternField(raw bson.Raw) string {
	if len(raw) == 0 {
		return ""
	}
	val, err := raw.LookupErr("keyPattern")
	if err != nil {
		return ""
	}
	doc, ok := val.DocumentOK()
	if !ok {
		return ""
	}
	elems, err := doc.Elements()
	if err != nil || len(elems) == 0 {
		return ""
	}
	return elems[0].Key()
}

// itemFailures reports write errors with their raw server detail.
func itemFailures(errs []mongo.BulkWriteError) []model.ItemFailure {
	out := make([]model.ItemFailure, 0, len(errs))
	for _, e := range errs {
		out = append(out, model.ItemFailure{
			Index:  e.Index,
			Code:   e.Code,
			ErrMsg: e.Message,
		})
	}
	return out
}
