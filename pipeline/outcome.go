package pipeline

import "fmt"

type Result int

const (
	Accepted Result = iota
	Rejected
	Failed
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Outcome is what a caller learns about one run.
type Outcome struct {
	Result Result
	Reason string
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Result.String()
	}
	return o.Result.String() + ": " + o.Reason
}
