package models

import "time"

// ListResult is the state of a list fetch as seen by one observer
type ListResult struct {
	Data       []Record   `json:"-"`
	IsPending  bool       `json:"isPending"`  // no response has settled yet
	IsFetching bool       `json:"isFetching"` // a request is in flight, including background refetches
	IsError    bool       `json:"isError"`    // the latest request failed after retries
	Error      string     `json:"error,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// DetailResult is the outcome of a single-record lookup.
// NotFound is not an error: the id simply is not in the data set.
type DetailResult struct {
	Data     Record `json:"data,omitempty"`
	NotFound bool   `json:"notFound"`
	IsError  bool   `json:"isError"`
	Error    string `json:"error,omitempty"`
}
