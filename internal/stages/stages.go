// Package stages is the simpler, single-pass alternative to the era
// segmenter: it bins listening into fixed windows and starts a new
// stage whenever the cosine similarity between adjacent windows drops.
// It trades the FLE engine's rigor for speed and predictability.
package stages

import (
	"math"
	"sort"
	"time"
)

// Listen is the minimal input the detector needs. Durations weight the
// artist vectors so deep listens count for more than background plays.
type Listen struct {
	Time   time.Time
	Artist string
	Ms     int64
}

type Stage struct {
	Start        time.Time
	End          time.Time
	TopArtists   []string
	DurationDays int
}

type Config struct {
	WindowDays          int
	SimilarityThreshold float64
	TopArtists          int
}

func DefaultConfig() Config {
	return Config{
		WindowDays:          30,
		SimilarityThreshold: 0.3,
		TopArtists:          5,
	}
}

// listens shorter than this are too shallow to signal taste.
const minStageListenMs = 30000

type window struct {
	start  time.Time
	end    time.Time
	vector map[string]float64
}

// Detect bins the listens into consecutive windows and closes a stage
// whenever adjacent windows diverge. Returns nil when there is nothing
// to segment.
func Detect(listens []Listen, cfg Config) []Stage {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.TopArtists <= 0 {
		cfg.TopArtists = 5
	}

	kept := make([]Listen, 0, len(listens))
	for _, l := range listens {
		if l.Ms >= minStageListenMs {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Time.Before(kept[j].Time)
	})

	windows := binListens(kept, cfg.WindowDays)
	if len(windows) == 0 {
		return nil
	}

	var stages []Stage
	stageStart := windows[0].start
	aggregate := map[string]float64{}
	mergeVector(aggregate, windows[0].vector)

	for i := 1; i < len(windows); i++ {
		similarity := cosineSimilarity(windows[i-1].vector, windows[i].vector)
		if similarity < cfg.SimilarityThreshold {
			stages = append(stages, summarizeStage(stageStart, windows[i-1].end, aggregate, cfg.TopArtists))
			stageStart = windows[i].start
			aggregate = map[string]float64{}
		}
		mergeVector(aggregate, windows[i].vector)
	}

	stages = append(stages, summarizeStage(stageStart, windows[len(windows)-1].end, aggregate, cfg.TopArtists))
	return stages
}

func binListens(listens []Listen, windowDays int) []window {
	var windows []window
	width := time.Duration(windowDays) * 24 * time.Hour

	current := listens[0].Time
	end := listens[len(listens)-1].Time
	i := 0
	for !current.After(end) {
		binEnd := current.Add(width)
		vector := map[string]float64{}
		for i < len(listens) && listens[i].Time.Before(binEnd) {
			vector[listens[i].Artist] += float64(listens[i].Ms)
			i++
		}
		if len(vector) > 0 {
			windows = append(windows, window{start: current, end: binEnd, vector: vector})
		}
		current = binEnd
	}
	return windows
}

func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, magA, magB float64
	for k, v := range a {
		dot += v * b[k]
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

func mergeVector(dst, src map[string]float64) {
	for k, v := range src {
		dst[k] += v
	}
}

func summarizeStage(start, end time.Time, aggregate map[string]float64, topN int) Stage {
	artists := make([]string, 0, len(aggregate))
	for a := range aggregate {
		artists = append(artists, a)
	}
	sort.Slice(artists, func(i, j int) bool {
		if aggregate[artists[i]] != aggregate[artists[j]] {
			return aggregate[artists[i]] > aggregate[artists[j]]
		}
		return artists[i] < artists[j]
	})
	if len(artists) > topN {
		artists = artists[:topN]
	}

	return Stage{
		Start:        start,
		End:          end,
		TopArtists:   artists,
		DurationDays: int(end.Sub(start).Hours() / 24),
	}
}
