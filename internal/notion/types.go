// Package notion provides the record-database client used to read sprint,
// task and project pages from a Notion workspace.
package notion

import "github.com/foospace/sprintsync/internal/types"

// DefaultAPIVersion is sent as the Notion-Version header when none is configured.
const DefaultAPIVersion = "2022-06-28"

// DefaultBaseURL is the public Notion REST endpoint.
const DefaultBaseURL = "https://api.notion.com/v1"

// pageSize is the largest page the query endpoint accepts.
const pageSize = 100

// QueryResponse is one page of a database query.
type QueryResponse struct {
	Object     string         `json:"object"`
	Results    []types.Record `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor *string        `json:"next_cursor"`
}

// APIError is the error body returned by the Notion API.
type APIError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
