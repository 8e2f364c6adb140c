package schedule

// recencyWindow is a bounded FIFO of the most recently used source ids
// within one output video. A zero capacity window records nothing, which
// is the degenerate single-source case.
type recencyWindow struct {
	ids []string
	cap int
}

func newRecencyWindow(capacity int) *recencyWindow {
	return &recencyWindow{cap: capacity}
}

func (w *recencyWindow) push(id string) {
	if w.cap <= 0 {
		return
	}
	w.ids = append(w.ids, id)
	if len(w.ids) > w.cap {
		w.ids = w.ids[1:]
	}
}

func (w *recencyWindow) items() []string { return w.ids }

func (w *recencyWindow) contains(id string) bool {
	for _, v := range w.ids {
		if v == id {
			return true
		}
	}
	return false
}

// last returns the most recently pushed id, if any.
func (w *recencyWindow) last() (string, bool) {
	if len(w.ids) == 0 {
		return "", false
	}
	return w.ids[len(w.ids)-1], true
}
