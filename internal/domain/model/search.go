package model

// SearchResult is the payload of the user search endpoint.
// Items keep the relevance order returned by the server.
type SearchResult struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []User `json:"items"`
}
