package domain

// IntakeEntry is one submitted row. Component is kept raw so that unknown
// values can be reported as skipped rather than rejected.
type IntakeEntry struct {
	BarcodeID     string
	DateCollected *string
	Component     string
	Volume        *string
}

// IntakeOutcome describes what happened to a single IntakeEntry.
type IntakeOutcome string

const (
	IntakeInserted         IntakeOutcome = "inserted"
	IntakeDuplicate        IntakeOutcome = "duplicate"
	IntakeUnknownComponent IntakeOutcome = "unknown_component"
	IntakeBlankBarcode     IntakeOutcome = "blank_barcode"
)

type IntakeResult struct {
	Entry     IntakeEntry
	Component Component
	Outcome   IntakeOutcome
}

// IntakeSummary counts intake outcomes.
type IntakeSummary struct {
	Inserted   int
	Duplicates int
	Unknown    int
	Blank      int
}

// Summarize tallies results by outcome.
func Summarize(results []IntakeResult) IntakeSummary {
	var s IntakeSummary
	for _, r := range results {
		switch r.Outcome {
		case IntakeInserted:
			s.Inserted++
		case IntakeDuplicate:
			s.Duplicates++
		case IntakeUnknownComponent:
			s.Unknown++
		case IntakeBlankBarcode:
			s.Blank++
		}
	}
	return s
}
