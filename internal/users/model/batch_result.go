package model

// InsertManyResult is the outcome of an unordered insert. Failures are indexed
// relative to the slice handed to the repository; the service remaps them to
// request positions.
type InsertManyResult struct {
	Inserted []*User
	Failures []ItemFailure
}

// BulkWriteCounts mirrors the store's aggregate bulk write counters.
type BulkWriteCounts struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
	Upserted int64 `json:"upserted"`
	Deleted  int64 `json:"deletedCount"`
	Inserted int64 `json:"insertedCount"`
}

// BulkWriteResult is the outcome of an unordered bulk write.
type BulkWriteResult struct {
	BulkWriteCounts
	Failures []ItemFailure
}

// BulkCreateResult is what the service reports for bulk-create. On partial
// failure it is returned together with a PartialBatchFailure.
type BulkCreateResult struct {
	Inserted []*User
	Failures []ItemFailure
}
