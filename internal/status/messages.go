package status

import "strings"

// Messages holds the status texts shown during a save. Placeholders
// {file} and {store} are substituted when rendered.
type Messages struct {
	Pending             string `yaml:"pending"`
	Saving              string `yaml:"saving"`
	Saved               string `yaml:"saved"`
	InvalidTarget       string `yaml:"invalid_target"`
	SerializationFailed string `yaml:"serialization_failed"`
	WriteFailed         string `yaml:"write_failed"`
	CommitFailed        string `yaml:"commit_failed"`
	Failed              string `yaml:"failed"`
}

// DefaultMessages returns the built-in English messages.
func DefaultMessages() Messages {
	return Messages{
		Pending:             "Preparing to save data...",
		Saving:              "Saving data to {file}...",
		Saved:               "Data saved to {file}.",
		InvalidTarget:       "Could not save: no writable data file is configured.",
		SerializationFailed: "Could not save: the {store} data could not be prepared.",
		WriteFailed:         "Could not save: writing {file} failed.",
		CommitFailed:        "Could not save: {file} could not be replaced. The previous version is unchanged.",
		Failed:              "Could not save {file}.",
	}
}

// Merge returns m with every non-empty field of overrides applied.
func (m Messages) Merge(overrides Messages) Messages {
	pick := func(base, override string) string {
		if strings.TrimSpace(override) == "" {
			return base
		}
		return override
	}
	return Messages{
		Pending:             pick(m.Pending, overrides.Pending),
		Saving:              pick(m.Saving, overrides.Saving),
		Saved:               pick(m.Saved, overrides.Saved),
		InvalidTarget:       pick(m.InvalidTarget, overrides.InvalidTarget),
		SerializationFailed: pick(m.SerializationFailed, overrides.SerializationFailed),
		WriteFailed:         pick(m.WriteFailed, overrides.WriteFailed),
		CommitFailed:        pick(m.CommitFailed, overrides.CommitFailed),
		Failed:              pick(m.Failed, overrides.Failed),
	}
}

// Render substitutes placeholders in text.
func Render(text, file, store string) string {
	return strings.NewReplacer("{file}", file, "{store}", store).Replace(text)
}
