package deal

import "time"

// Session tracks the bookkeeping of one collection run against a source
type Session struct {
	Source    string
	StartedAt time.Time
	EndedAt   time.Time

	PagesFetched   int
	PagesFromCache int
	ItemsSeen      int
	ItemsDropped   int
	DealsEmitted   int

	Stopped string
	Errs    []error
}

// NewSession starts the clock for a source run
func NewSession(source string) *Session {
	return &Session{
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end time and records why pagination stopped
func (s *Session) Finish(reason string) {
	s.EndedAt = time.Now().UTC()
	s.Stopped = reason
}

// Duration is zero until Finish was called
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// AddError collects a non-fatal extraction error
func (s *Session) AddError(err error) {
	if err != nil {
		s.Errs = append(s.Errs, err)
	}
}
