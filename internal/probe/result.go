package probe

import "strings"

type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is the outcome of one checklist step.
type Result struct {
	Name   string
	Status Status
	Err    error
}

// Summary collects step results for the footer. Only hard failures make a
// run unsuccessful; warnings never do.
type Summary struct {
	Results []Result
}

func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

// OK reports whether no step failed.
func (s *Summary) OK() bool {
	return len(s.with(StatusFail)) == 0
}

func (s *Summary) Failed() []string {
	return s.with(StatusFail)
}

func (s *Summary) Warned() []string {
	return s.with(StatusWarn)
}

// Get returns the result for the named step.
func (s *Summary) Get(name string) (Result, bool) {
	for _, r := range s.Results {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

func (s *Summary) with(st Status) []string {
	var names []string
	for _, r := range s.Results {
		if r.Status == st {
			names = append(names, r.Name)
		}
	}
	return names
}

func (s *Summary) String() string {
	parts := make([]string, 0, len(s.Results))
	for _, r := range s.Results {
		parts = append(parts, r.Name+"="+string(r.Status))
	}
	return strings.Join(parts, " ")
}
