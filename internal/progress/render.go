package progress

import (
	"fmt"
	"strings"

	"github.com/nao1215/proxysort/internal/model"
)

// CompleteMessage is shown once a scan has finished.
const CompleteMessage = "Scan complete!"

// Render formats a progress snapshot:
//
//	Scanning... 40% (2/5)
//	CatX (3) +1
//
// One line follows per category that gained a link so far, showing the size
// before the run and the number of links added.
func Render(p model.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scanning... %d%% (%d/%d)\n", p.Percent(), p.Done, p.Total)
	for _, s := range p.Stats {
		fmt.Fprintf(&b, "%s (%d) +%d\n", s.Name, s.Initial, s.Added)
	}
	return b.String()
}
