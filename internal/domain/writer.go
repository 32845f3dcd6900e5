package domain

// WriterConfig is one configured comment style. The selector hands off
// generation to one writer, or rejects outright.
type WriterConfig struct {
	Name         string
	Instructions string
	MinLength    int
	MaxLength    int
	Model        string // optional override; empty means use selector's default
}

// SelectorConfig tunes the model that picks (or rejects) a writer.
type SelectorConfig struct {
	Model        string
	Instructions string
}

// CommentContext is the packaged input handed to the comment generator.
type CommentContext struct {
	CurrentText      string
	HistoricalText   string
	UncommentedText  string
	Events           []Event
	PreviousComments []Comment
}

// GenResult is the outcome of one generation attempt: either accepted
// content attributed to a writer, or a rejection with a reason.
type GenResult struct {
	Reject  bool
	Reason  string
	Content string
	Writer  string
}
