package model

// Response is the success envelope shared by every endpoint.
type Response struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorResponse is the failure envelope. Errors carries field messages for
// validation failures.
type ErrorResponse struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	Pages       int64 `json:"pages"`
}

// BulkCreatePartialResponse is returned with 207 when some records failed.
type BulkCreatePartialResponse struct {
	Success       bool          `json:"success"`
	StatusCode    int           `json:"statusCode"`
	Message       string        `json:"message"`
	InsertedCount int           `json:"insertedCount"`
	FailedCount   int           `json:"failedCount"`
	InsertedDocs  []*User       `json:"insertedDocs"`
	Errors        []ItemFailure `json:"errors"`
}

// BulkUpdatePartialResponse is returned with 207 when some operations failed.
type BulkUpdatePartialResponse struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       BulkWriteCounts `json:"data"`
	Errors     []ItemFailure   `json:"errors"`
}
