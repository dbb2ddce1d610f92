package lifecycle

import "github.com/vango-dev/weft/internal/errors"

// Phase identifies a lifecycle phase.
type Phase uint8

const (
	Init Phase = iota + 1
	Render
	Compile
	BeforeMount
	Mount
	Mounted
	Ready
	BeforeUpdate
	Update
	BeforeUnmount
	Unmount
	Destroy
	Change
	Error
	Visible
	Resize
	Connect
	Disconnect

	phaseCount = int(Disconnect)
)

var phaseNames = [...]string{
	Init:          "init",
	Render:        "render",
	Compile:       "compile",
	BeforeMount:   "beforeMount",
	Mount:         "mount",
	Mounted:       "mounted",
	Ready:         "ready",
	BeforeUpdate:  "beforeUpdate",
	Update:        "update",
	BeforeUnmount: "beforeUnmount",
	Unmount:       "unmount",
	Destroy:       "destroy",
	Change:        "change",
	Error:         "error",
	Visible:       "visible",
	Resize:        "resize",
	Connect:       "connect",
	Disconnect:    "disconnect",
}

// String returns the phase name.
func (p Phase) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the declared phases.
func (p Phase) Valid() bool {
	return p >= Init && int(p) <= phaseCount
}

// Phases returns every declared phase in declaration order.
func Phases() []Phase {
	out := make([]Phase, 0, phaseCount)
	for p := Init; int(p) <= phaseCount; p++ {
		out = append(out, p)
	}
	return out
}

// ParsePhase resolves a phase by name.
func ParsePhase(name string) (Phase, error) {
	for p := Init; int(p) <= phaseCount; p++ {
		if phaseNames[p] == name {
			return p, nil
		}
	}
	return 0, unknownPhase(name)
}

func unknownPhase(name string) error {
	return errors.New(errors.CodeUnknownLifecyclePhase).
		WithDetailf("phase %q does not exist", name).
		WithField("phase", name)
}

// runIfPassed reports whether handlers registered after p has fired run
// immediately.
func (p Phase) runIfPassed() bool {
	switch p {
	case Init, Mount, Mounted, Ready:
		return true
	}
	return false
}

// once reports whether p can fire at most once.
func (p Phase) once() bool {
	switch p {
	case Init, Mount, Destroy, Ready:
		return true
	}
	return false
}
