package compression

// Preset is a named point on the quality/size tradeoff curve understood by
// Ghostscript's pdfwrite device.
type Preset string

const (
	PresetScreen   Preset = "screen"
	PresetEbook    Preset = "ebook"
	PresetPrinter  Preset = "printer"
	PresetPrepress Preset = "prepress"
)

// presetDescriptions maps each preset to its informal tradeoff description.
// The map doubles as the closed set of valid presets.
var presetDescriptions = map[Preset]string{
	PresetScreen:   "Low quality, smallest size",
	PresetEbook:    "Medium quality",
	PresetPrinter:  "High quality",
	PresetPrepress: "Highest quality",
}

// Presets returns the enumerated set of valid presets in display order.
func Presets() []Preset {
	return []Preset{PresetScreen, PresetEbook, PresetPrinter, PresetPrepress}
}

// ParsePreset validates a requested preset string against the enumerated set.
func ParsePreset(s string) (Preset, error) {
	p := Preset(s)
	if _, ok := presetDescriptions[p]; !ok {
		return "", &InvalidPresetError{Requested: s}
	}
	return p, nil
}

// Description returns the informal quality/size tradeoff text for the preset.
func (p Preset) Description() string {
	return presetDescriptions[p]
}

// Flag returns the -dPDFSETTINGS argument value for the preset.
func (p Preset) Flag() string {
	return "/" + string(p)
}
