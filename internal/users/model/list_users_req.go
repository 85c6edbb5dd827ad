package model

import (
	"errors"
	"math"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var ErrPageOutOfRange = errors.New("page is out of range")

type ListUsersReq struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// Normalize applies pagination defaults. Non-positive values fall back to the
// defaults and limit is capped at maxLimit when maxLimit is positive. A page
// whose skip does not fit in an int64 is rejected with ErrPageOutOfRange.
func (r *ListUsersReq) Normalize(maxLimit int) error {
	if r.Page <= 0 {
		r.Page = DefaultPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	if int64(r.Page-1) > math.MaxInt64/int64(r.Limit) {
		return ErrPageOutOfRange
	}
	return nil
}

func (r *ListUsersReq) Skip() int64 {
	return int64(r.Page-1) * int64(r.Limit)
}

// NewPagination computes page metadata; pages is ceil(total/limit).
func NewPagination(page, limit int, total int64) *Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return &Pagination{
		CurrentPage: page,
		Limit:       limit,
		Total:       total,
		Pages:       pages,
	}
}

// ListUsersResult is a page of users with the collection total.
type ListUsersResult struct {
	Users []*User
	Total int64
}
