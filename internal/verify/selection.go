package verify

// SelectByOutcome returns the ids of jobs whose state equals outcome,
// restricted to the caller's active view. Ids outside the view are excluded
// even if already tested; a nil or empty view means no restriction. An empty
// result is not an error.
func SelectByOutcome(run *Run, outcome State, view []string) []string {
	var visible map[string]struct{}
	if len(view) > 0 {
		visible = make(map[string]struct{}, len(view))
		for _, id := range view {
			visible[id] = struct{}{}
		}
	}

	selected := []string{}
	for _, js := range run.Jobs() {
		if js.State != outcome {
			continue
		}
		if visible != nil {
			if _, ok := visible[js.ID]; !ok {
				continue
			}
		}
		selected = append(selected, js.ID)
	}
	return selected
}
