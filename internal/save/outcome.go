package save

import "time"

// Outcome is the result of one background save phase. It is produced once
// by Run and is read-only afterwards.
type Outcome struct {
	Success  bool
	Err      error
	Target   string
	Bytes    int64
	Duration time.Duration
}

// Kind classifies the failure, or KindNone for a successful save.
func (o Outcome) Kind() Kind {
	if o.Success {
		return KindNone
	}
	if o.Err == nil {
		return KindInternal
	}
	return KindOf(o.Err)
}

func failure(target string, err error) Outcome {
	return Outcome{Target: target, Err: err}
}
