package convert

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/untillpro/goutils/logger"
)

// Note describes one unit (feature, cell block, graph node) that was skipped
// or degraded during a conversion.
type Note struct {
	FeatureID string
	Kind      error
	Reason    string
}

func (n Note) String() string {
	kind := "error"
	if n.Kind != nil {
		kind = n.Kind.Error()
	}
	if n.FeatureID == "" {
		return fmt.Sprintf("%s: %s", kind, n.Reason)
	}
	return fmt.Sprintf("%s [%s]: %s", n.FeatureID, kind, n.Reason)
}

// Report collects the notes of one send or receive operation. It is
// returned next to the converted data, never instead of it.
type Report struct {
	OperationID string
	Notes       []Note
}

// NewReport ...
func NewReport() *Report {
	return &Report{OperationID: uuid.NewString()}
}

// Add records err against featureID. A nil report or a nil err is ignored.
func (r *Report) Add(featureID string, err error) {
	if r == nil || err == nil {
		return
	}
	n := Note{FeatureID: featureID, Kind: KindOf(err), Reason: err.Error()}
	logger.Warning(n.String())
	r.Notes = append(r.Notes, n)
}

// Addf records a formatted note of the given kind.
func (r *Report) Addf(featureID string, kind error, format string, args ...interface{}) {
	if r == nil {
		return
	}
	n := Note{FeatureID: featureID, Kind: kind, Reason: fmt.Sprintf(format, args...)}
	logger.Warning(n.String())
	r.Notes = append(r.Notes, n)
}

// Merge appends the notes of other.
func (r *Report) Merge(other *Report) {
	if r == nil || other == nil {
		return
	}
	r.Notes = append(r.Notes, other.Notes...)
}

// Count returns how many notes of the given kind were recorded.
func (r *Report) Count(kind error) int {
	if r == nil {
		return 0
	}
	c := 0
	for _, n := range r.Notes {
		if n.Kind == kind {
			c++
		}
	}
	return c
}

func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Notes)
}

func (r *Report) String() string {
	if r.Len() == 0 {
		return "no issues"
	}
	lines := make([]string, 0, len(r.Notes))
	for _, n := range r.Notes {
		lines = append(lines, n.String())
	}
	return strings.Join(lines, "\n")
}
