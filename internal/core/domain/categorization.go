package domain

type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type CategorizationSource string

const (
	SourceContactPattern CategorizationSource = "contact_pattern"
	SourceClassifier     CategorizationSource = "classifier"
	SourceFallback       CategorizationSource = "fallback"
)

// Categorization is the outcome of one categorize call. Labels is never empty;
// Err is set when the labels come from the fallback because the classifier failed.
type Categorization struct {
	Labels []string             `json:"labels"`
	Source CategorizationSource `json:"source"`
	Err    error                `json:"-"`
}

func (c Categorization) ErrorMessage() string {
	if c.Err == nil {
		return ""
	}
	return c.Err.Error()
}

type RequestPhase string

const (
	PhaseIdle    RequestPhase = "idle"
	PhaseLoading RequestPhase = "loading"
	PhaseSuccess RequestPhase = "success"
	PhaseError   RequestPhase = "error"
)

type RequestState struct {
	Phase   RequestPhase `json:"phase"`
	Labels  []string     `json:"labels,omitempty"`
	Message string       `json:"message,omitempty"`
}

func IdleState() RequestState {
	return RequestState{Phase: PhaseIdle}
}

func LoadingState() RequestState {
	return RequestState{Phase: PhaseLoading}
}

func SuccessState(labels []string) RequestState {
	return RequestState{Phase: PhaseSuccess, Labels: append([]string(nil), labels...)}
}

func ErrorState(message string) RequestState {
	return RequestState{Phase: PhaseError, Message: message}
}

// ZeroShotRequest is what the categorizer asks the remote classifier.
type ZeroShotRequest struct {
	Text       string
	Candidates []string
	MultiLabel bool
}

// ZeroShotResult pairs each returned label with its score, in response order.
type ZeroShotResult struct {
	Sequence string
	Scores   []LabelScore
}
