package conversation

// RecentWindow is the number of trailing messages sent to the model
// verbatim. Everything older is a candidate for summarization.
const RecentWindow = 15

// SelectWindow splits the full ordered history into the recent window
// and the old remainder. The split is recomputed from the current
// history on every call; nothing is cached.
func SelectWindow(history []Turn) (recent, old []Turn) {
	if len(history) <= RecentWindow {
		return history, nil
	}
	cut := len(history) - RecentWindow
	return history[cut:], history[:cut]
}
