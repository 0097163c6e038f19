package api

// List wraps collection responses.
type List struct {
	Object string      `json:"object"`
	Data   interface{} `json:"data"`
}

func NewList(data interface{}) List {
	return List{Object: "list", Data: data}
}

// SelectionResponse carries the ids picked by outcome-driven selection.
// An empty selection is a valid, non-error result.
type SelectionResponse struct {
	RunID   string   `json:"run_id"`
	Outcome string   `json:"outcome"`
	IDs     []string `json:"ids"`
	Count   int      `json:"count"`
}
