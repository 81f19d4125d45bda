package progress

import (
	"sync"

	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

// Func receives normalized progress updates, in call order.
type Func func(phase consts.Phase, percent int, message string)

type band struct {
	from, to int
}

// Each phase owns a fixed percentage band so percentages stay comparable no
// matter how many content entries a site has.
var bands = map[consts.Phase]band{
	consts.PhaseAuth:          {0, 10},
	consts.PhaseRepo:          {10, 30},
	consts.PhaseContentAccess: {30, 40},
	consts.PhaseContentCopy:   {40, 70},
	consts.PhaseClone:         {70, 80},
	consts.PhaseConfigure:     {80, 90},
	consts.PhaseComplete:      {100, 100},
}

type Reporter struct {
	mu   sync.Mutex
	emit Func
	last int
}

func NewReporter(emit Func) *Reporter {
	if emit == nil {
		emit = func(consts.Phase, int, string) {}
	}
	return &Reporter{emit: emit}
}

// Phase reports the start of a phase at the bottom of its band.
func (r *Reporter) Phase(phase consts.Phase, message string) {
	b := bands[phase]
	r.report(phase, b.from, message)
}

// Sub rescales step current/total linearly into the phase's band.
func (r *Reporter) Sub(phase consts.Phase, current, total int, message string) {
	b := bands[phase]
	percent := b.from
	if total > 0 {
		percent = b.from + (b.to-b.from)*current/total
	}
	r.report(phase, percent, message)
}

func (r *Reporter) Complete(message string) {
	r.report(consts.PhaseComplete, 100, message)
}

func (r *Reporter) report(phase consts.Phase, percent int, message string) {
	r.mu.Lock()
	// percentages never go backwards within a run
	if percent < r.last {
		percent = r.last
	}
	r.last = percent
	r.mu.Unlock()
	r.emit(phase, percent, message)
}
