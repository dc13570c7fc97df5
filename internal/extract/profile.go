package extract

// Default markers of the scenario workbook layout.
const (
	DefaultScenarioMarker = "シナリオ名"
	DefaultHeaderMarker   = "No"
)

var (
	// DefaultScreenLabels are A1 values announcing that the screen name
	// sits in A2 (or B1).
	DefaultScreenLabels = []string{"テスト画面名", "画面名", "画面"}

	// DefaultReservedPrefixes mark non-scenario sheets (bug reports,
	// shared fields, samples).
	DefaultReservedPrefixes = []string{"不具合報告", "共通項目", "サンプル"}
)

// Profile describes the literal markers the extractor recognises.
type Profile struct {
	ScenarioMarker   string
	HeaderMarker     string
	ScreenLabels     []string
	ReservedPrefixes []string
	Fields           FieldAliases
}

// DefaultProfile returns the standard scenario workbook layout.
func DefaultProfile() Profile {
	return Profile{
		ScenarioMarker:   DefaultScenarioMarker,
		HeaderMarker:     DefaultHeaderMarker,
		ScreenLabels:     append([]string(nil), DefaultScreenLabels...),
		ReservedPrefixes: append([]string(nil), DefaultReservedPrefixes...),
		Fields:           DefaultFieldAliases(),
	}
}

// withDefaults fills zero-valued fields from DefaultProfile.
func (p Profile) withDefaults() Profile {
	d := DefaultProfile()
	if p.ScenarioMarker == "" {
		p.ScenarioMarker = d.ScenarioMarker
	}
	if p.HeaderMarker == "" {
		p.HeaderMarker = d.HeaderMarker
	}
	if p.ScreenLabels == nil {
		p.ScreenLabels = d.ScreenLabels
	}
	if p.ReservedPrefixes == nil {
		p.ReservedPrefixes = d.ReservedPrefixes
	}
	// Copy before merging so the caller's map stays untouched.
	fields := make(FieldAliases, len(d.Fields))
	for f, aliases := range p.Fields {
		fields[f] = aliases
	}
	for f, aliases := range d.Fields {
		if _, ok := fields[f]; !ok {
			fields[f] = aliases
		}
	}
	p.Fields = fields
	return p
}
