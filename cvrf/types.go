package cvrf

// ThreatType is the category code attached to a threat entry.
type ThreatType int

const (
	ThreatTypeImpact        ThreatType = 0
	ThreatTypeExploitStatus ThreatType = 1
	ThreatTypeSeverity      ThreatType = 3
)

// NoteType is the category code attached to a note entry.
type NoteType int

// NoteTypeProduct marks the note carrying the affected product name.
const NoteTypeProduct NoteType = 7

// Document is one month-keyed CVRF advisory document.
type Document struct {
	DocumentTitle    Value            `json:"DocumentTitle"`
	DocumentType     Value            `json:"DocumentType"`
	DocumentTracking DocumentTracking `json:"DocumentTracking"`
	Vulnerability    []Vulnerability  `json:"Vulnerability"`
}

// Value is the string wrapper object used throughout CVRF JSON.
type Value struct {
	Value string `json:"Value"`
}

type DocumentTracking struct {
	Identification     Identification `json:"Identification"`
	Status             int            `json:"Status"`
	Version            string         `json:"Version"`
	InitialReleaseDate string         `json:"InitialReleaseDate"`
	CurrentReleaseDate string         `json:"CurrentReleaseDate"`
}

type Identification struct {
	ID    Value `json:"ID"`
	Alias Value `json:"Alias"`
}

// Vulnerability is one advisory record within a document.
type Vulnerability struct {
	Title         Value          `json:"Title"`
	Notes         []Note         `json:"Notes,omitempty"`
	CVE           string         `json:"CVE"`
	Threats       []Threat       `json:"Threats,omitempty"`
	CVSSScoreSets []CVSSScoreSet `json:"CVSSScoreSets,omitempty"`
	Ordinal       string         `json:"Ordinal,omitempty"`
}

type Note struct {
	Title   string   `json:"Title"`
	Type    NoteType `json:"Type"`
	Ordinal string   `json:"Ordinal,omitempty"`
	Value   string   `json:"Value"`
}

type Threat struct {
	Type        ThreatType `json:"Type"`
	Description Value      `json:"Description"`
	ProductID   []string   `json:"ProductID,omitempty"`
}

type CVSSScoreSet struct {
	BaseScore     float64  `json:"BaseScore"`
	TemporalScore float64  `json:"TemporalScore,omitempty"`
	Vector        string   `json:"Vector,omitempty"`
	ProductID     []string `json:"ProductID,omitempty"`
}
