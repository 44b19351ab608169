package pipeline

import (
	"github.com/poe2tools/patchwatch/app/patch"
	"github.com/poe2tools/patchwatch/app/scrape"
	"github.com/poe2tools/patchwatch/app/storage"
)

// Sink receives human-readable status strings during a batch run. It
// is the orchestrator's only side channel, so it must be safe to call
// from any context: a console print, a log line, or a GUI-marshaled
// append are all just functions.
type Sink func(msg string)

// Normalizer converts one raw record into a canonical note. A nil
// note with a nil error means the record could not be identified and
// should be counted as skipped.
type Normalizer interface {
	Run(raw scrape.RawPatchRecord) (*patch.Note, error)
}

// Saver persists a note unless its identity key is already present.
type Saver interface {
	Save(note *patch.Note) (string, storage.SaveResult, error)
}
