package analysis

// TrackID identifies a track by lowercased name and artist. A raw ID
// carries the name as reported; a canonical ID has had edition suffixes
// stripped so that re-release variants merge.
type TrackID struct {
	Track  string
	Artist string
}

// TrackStats is the per-track outcome of the reference pass.
type TrackStats struct {
	// ReferenceMs is the most common observed play length. Never zero:
	// tracks with no usable observations default to 1 so FLE division is
	// always defined.
	ReferenceMs int64

	// Trust is the fraction of observations that reached at least 80% of
	// the reference. Gap repair is only applied above 0.5.
	Trust float64

	// First-seen display names. Later plays never overwrite these.
	Name   string
	Artist string
}

// Stats counts what happened to the input corpus during a run.
type Stats struct {
	Processed  int `yaml:"processed"`
	Skipped    int `yaml:"skipped"`
	Duplicates int `yaml:"duplicates"`
	Repaired   int `yaml:"repaired"`
	Fused      int `yaml:"fused"`
	Canonized  int `yaml:"canonized"`
}

// Era is a contiguous span of months with a stable taste distribution.
type Era struct {
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Artist string `yaml:"artist"`
}

type Intelligence struct {
	Eras    []Era              `yaml:"eras"`
	Entropy map[string]float64 `yaml:"entropy"`
}

type RankedArtist struct {
	Name         string  `yaml:"name"`
	Score        float64 `yaml:"score"`
	LoyaltyScore float64 `yaml:"loyalty_score"`
	BingeIndex   float64 `yaml:"binge_index,omitempty"`
	PeakHour     int     `yaml:"peak_hour,omitempty"`
}

type RankedSong struct {
	Name   string  `yaml:"name"`
	Artist string  `yaml:"artist"`
	Score  float64 `yaml:"score"`
}

// PeriodSummary is one bucket's ranked output. Entropy is only set for
// monthly buckets.
type PeriodSummary struct {
	Artists []RankedArtist `yaml:"artists"`
	Songs   []RankedSong   `yaml:"songs"`
	Entropy float64        `yaml:"entropy,omitempty"`
}

// Report is the full analysis output.
type Report struct {
	Stats        Stats                     `yaml:"stats"`
	Intelligence Intelligence              `yaml:"intelligence"`
	Monthly      map[string]*PeriodSummary `yaml:"monthly"`
	Yearly       map[string]*PeriodSummary `yaml:"yearly"`
	AllTime      *PeriodSummary            `yaml:"alltime"`
}
