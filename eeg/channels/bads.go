package channels

import (
	"slices"

	"github.com/cwbudde/algo-eeg/eeg"
)

// MarkBad returns a copy of rec whose bad set is exactly the candidates that
// name a channel of rec. When no candidate matches, the current bad set is
// kept. Candidates that match no channel are returned as absent, in the
// order given and without duplicates; they are not an error.
func MarkBad(rec *eeg.Recording, candidates ...string) (*eeg.Recording, []string) {
	var bads, absent []string
	for _, name := range candidates {
		if _, ok := rec.ChannelIndex(name); !ok {
			if !slices.Contains(absent, name) {
				absent = append(absent, name)
			}
			continue
		}
		bads = append(bads, name)
	}
	if len(bads) == 0 {
		return rec.Clone(), absent
	}

	out, err := rec.WithBads(bads...)
	if err != nil {
		// Every name was checked against rec above.
		panic(err)
	}
	return out, absent
}
