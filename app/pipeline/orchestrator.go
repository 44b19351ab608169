package pipeline

import (
	"fmt"

	"github.com/poe2tools/patchwatch/app/scrape"
	"github.com/poe2tools/patchwatch/app/storage"
)

// Tally is the outcome of one batch run.
type Tally struct {
	New     int `json:"new_count"`
	Skipped int `json:"skipped_count"`
	Errors  int `json:"error_count"`
}

// Orchestrator runs normalize -> save across a batch of raw records,
// strictly sequentially and in the order given. One record's failure
// never aborts the batch.
type Orchestrator struct {
	normalizer Normalizer
	saver      Saver
}

func NewOrchestrator(normalizer Normalizer, saver Saver) *Orchestrator {
	return &Orchestrator{
		normalizer: normalizer,
		saver:      saver,
	}
}

// Run processes the records one at a time and reports through the
// progress sink. A nil or empty batch yields a zeroed tally.
func (o *Orchestrator) Run(raws []scrape.RawPatchRecord, progress Sink) Tally {
	var tally Tally

	if len(raws) == 0 {
		progress("No patch notes to process.")
		return tally
	}

	progress(fmt.Sprintf("Processing %d patch notes...", len(raws)))

	for i, raw := range raws {
		o.processOne(i, raw, progress, &tally)
	}

	progress(fmt.Sprintf("Done: %d new, %d skipped, %d errors.",
		tally.New, tally.Skipped, tally.Errors))

	return tally
}

// processOne classifies one record into the three tallies. Panics from
// normalize or save are recovered here so the batch always continues.
func (o *Orchestrator) processOne(i int, raw scrape.RawPatchRecord, progress Sink, tally *Tally) {
	defer func() {
		if r := recover(); r != nil {
			tally.Errors++
			progress(fmt.Sprintf("Error processing %q: %v", raw.Title, r))
		}
	}()

	note, err := o.normalizer.Run(raw)
	if err != nil {
		tally.Errors++
		progress(fmt.Sprintf("Error normalizing %q: %v", raw.Title, err))
		return
	}
	if note == nil {
		tally.Skipped++
		progress(fmt.Sprintf("Skipped record %d: missing title.", i+1))
		return
	}

	_, result, err := o.saver.Save(note)
	switch {
	case err != nil:
		tally.Errors++
		progress(fmt.Sprintf("Error saving %q: %v", note.Title, err))
	case result == storage.AlreadyExists:
		tally.Skipped++
		progress(fmt.Sprintf("Already stored: %s", note.Title))
	default:
		tally.New++
		progress(fmt.Sprintf("Stored new patch note: %s", note.Title))
	}
}
