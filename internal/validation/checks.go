package validation

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"multitrack/internal/services"
)

// Check is a named validation check.
type Check string

const (
	CheckSilent             Check = "Silent"
	CheckEmpty              Check = "Empty"
	CheckWrongStats         Check = "Wrong_Stats"
	CheckLengthAsMix        Check = "Length_As_Mix"
	CheckRawsInStems        Check = "Raws_In_Stems"
	CheckStemsInMix         Check = "Stems_In_Mix"
	CheckRawSumAlignment    Check = "Raw_Sum_Alignment"
	CheckStemSumAlignment   Check = "Stem_Sum_Alignment"
	CheckRawToStemAlignment Check = "Raw_to_Stem_Alignment"
	CheckStemsHaveRaw       Check = "Stems_Have_Raw"
	CheckRawStemMapping     Check = "Raw_Stem_Mapping"

	// Reserved. They have messages but no check sets them.
	CheckInstrumentLabel Check = "Instrument_Label"
	CheckRawsMatchStems  Check = "Raws_Match_Stems"
	CheckStemDuplicates  Check = "Stem_Duplicates"
	CheckRawDuplicates   Check = "Raw_Duplicates"
	CheckSilentSections  Check = "Silent_Sections"
	CheckSpeech          Check = "Speech"
)

// AllChecks returns every known check in table order.
func AllChecks() []Check {
	return []Check{
		CheckSilent, CheckEmpty, CheckWrongStats, CheckLengthAsMix,
		CheckRawsInStems, CheckStemsInMix, CheckRawSumAlignment,
		CheckStemSumAlignment, CheckRawToStemAlignment, CheckStemsHaveRaw,
		CheckRawStemMapping, CheckInstrumentLabel, CheckRawsMatchStems,
		CheckStemDuplicates, CheckRawDuplicates, CheckSilentSections,
		CheckSpeech,
	}
}

// Reserved reports whether c is a reserved check that is never recorded.
func (c Check) Reserved() bool {
	switch c {
	case CheckInstrumentLabel, CheckRawsMatchStems, CheckStemDuplicates,
		CheckRawDuplicates, CheckSilentSections, CheckSpeech:
		return true
	}
	return false
}

// Known reports whether c is one of AllChecks.
func (c Check) Known() bool {
	for _, k := range AllChecks() {
		if k == c {
			return true
		}
	}
	return false
}

var defaultMessages = map[Check]string{
	CheckSilent:             "File is silent.",
	CheckEmpty:              "Folder is empty.",
	CheckWrongStats:         "File has the wrong sample rate, bit depth, or channel count.",
	CheckLengthAsMix:        "File is not the same length as the mix.",
	CheckRawsInStems:        "Raw file is not present in its stem.",
	CheckStemsInMix:         "Stem file is not present in the mix.",
	CheckRawSumAlignment:    "Raw files are not aligned with the mix.",
	CheckStemSumAlignment:   "Stem files are not aligned with the mix.",
	CheckRawToStemAlignment: "Raw files are not aligned with their stem.",
	CheckStemsHaveRaw:       "Stem has no raw files.",
	CheckRawStemMapping:     "Raw file is not mapped to exactly one known stem.",
	CheckInstrumentLabel:    "Instrument label is not in the taxonomy.",
	CheckRawsMatchStems:     "Raw files do not match the stems.",
	CheckStemDuplicates:     "Stem file is a duplicate.",
	CheckRawDuplicates:      "Raw file is a duplicate.",
	CheckSilentSections:     "File has long silent sections.",
	CheckSpeech:             "File contains speech.",
}

// Messages maps checks to the human-readable text of their failure.
// A Messages value cannot be changed after it is built.
type Messages struct {
	text map[Check]string
}

// DefaultMessages returns the built-in message table.
func DefaultMessages() Messages {
	return Messages{text: maps.Clone(defaultMessages)}
}

// NewMessages returns the default table with overrides applied. Overrides for
// unknown checks are ignored.
func NewMessages(overrides map[Check]string) Messages {
	m := DefaultMessages()
	for check, text := range overrides {
		if check.Known() && text != "" {
			m.text[check] = text
		}
	}
	return m
}

// ParseMessages builds a message table from configuration overrides keyed by
// check name. Unknown check names are a configuration error.
func ParseMessages(overrides map[string]string) (Messages, error) {
	typed, unknown := messageOverrides(overrides)
	if len(unknown) > 0 {
		return Messages{}, services.Wrap(services.ErrConfiguration, "validation", "messages",
			fmt.Sprintf("unknown checks %s", strings.Join(unknown, ", ")), nil)
	}
	return NewMessages(typed), nil
}

func messageOverrides(overrides map[string]string) (map[Check]string, []string) {
	typed := make(map[Check]string, len(overrides))
	var unknown []string
	for name, text := range overrides {
		check := Check(strings.TrimSpace(name))
		if !check.Known() {
			unknown = append(unknown, name)
			continue
		}
		typed[check] = strings.TrimSpace(text)
	}
	sort.Strings(unknown)
	return typed, unknown
}

// Message returns the failure text for check. Unknown checks fall back to
// the check name.
func (m Messages) Message(check Check) string {
	if text, ok := m.text[check]; ok {
		return text
	}
	return string(check)
}
