// Package capability reports which on-device speech facilities the host has.
package capability

import (
	"errors"
	"os/exec"
)

// ErrUnsupportedEnvironment is returned when the host lacks the facility an
// operation needs (on-device synthesis or speech recognition).
var ErrUnsupportedEnvironment = errors.New("unsupported environment")

// Check answers whether one capability is present. Checks are synchronous
// and must not fail.
type Check func() bool

type Capabilities struct {
	Synthesis   bool `json:"synthesis"`
	Recognition bool `json:"recognition"`
}

type Detector struct {
	synthesis   Check
	recognition Check
}

// NewDetector — nil check означает "нет возможности".
func NewDetector(synthesis, recognition Check) *Detector {
	return &Detector{synthesis: synthesis, recognition: recognition}
}

func (d *Detector) SupportsSynthesis() bool {
	return d.synthesis != nil && d.synthesis()
}

func (d *Detector) SupportsRecognition() bool {
	return d.recognition != nil && d.recognition()
}

func (d *Detector) Capabilities() Capabilities {
	return Capabilities{
		Synthesis:   d.SupportsSynthesis(),
		Recognition: d.SupportsRecognition(),
	}
}

// LookPath returns the first of names found in PATH.
func LookPath(names ...string) (string, bool) {
	for _, n := range names {
		if p, err := exec.LookPath(n); err == nil {
			return p, true
		}
	}
	return "", false
}
