package search

// Settings is the schema and ranking configuration for one index,
// using the engine's wire field names.
type Settings struct {
	SearchableAttributes  []string `json:"searchableAttributes,omitempty"`
	AttributesForFaceting []string `json:"attributesForFaceting,omitempty"`
	CustomRanking         []string `json:"customRanking,omitempty"`
}

// QueryResult is the subset of a search response this service reads.
// Queries are issued only for stats, never for serving results.
type QueryResult struct {
	Hits   []map[string]interface{} `json:"hits"`
	NbHits int                      `json:"nbHits"`
}

type batchRequest struct {
	Requests []batchOperation `json:"requests"`
}

type batchOperation struct {
	Action string      `json:"action"`
	Body   interface{} `json:"body"`
}

type indexOperation struct {
	Operation   string `json:"operation"`
	Destination string `json:"destination"`
}

type apiErrorBody struct {
	Message string `json:"message"`
}
