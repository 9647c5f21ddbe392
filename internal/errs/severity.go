package errs

import "fmt"

// Severity classifies the result of a bootstrap step.
//
//	SeverityNone       the step reached its desired end state
//	SeverityBenign     a failure that means the end state already holds
//	SeverityDiagnostic the end state is wrong and operators must look
//	SeverityFatal      the step could not complete
//
// Severities are ordered; Max picks the worst of a set.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityBenign
	SeverityDiagnostic
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityBenign:
		return "benign"
	case SeverityDiagnostic:
		return "diagnostic"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON reports.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *Severity) UnmarshalText(b []byte) error {
	for c := SeverityNone; c <= SeverityFatal; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return New(ErrKindInvalidInput, fmt.Sprintf("unknown severity %q", b))
}

// Max returns the worst severity in ss, or SeverityNone for an empty list.
func Max(ss ...Severity) Severity {
	worst := SeverityNone
	for _, s := range ss {
		if s > worst {
			worst = s
		}
	}
	return worst
}
