package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ademuri/spotify-history-tools/internal/history"
)

// tsLayout is the timestamp format of the extended export. Offsets
// other than Z are rejected as malformed.
const tsLayout = "2006-01-02T15:04:05Z"

// Listen is one validated, deduplicated play event. Immutable after
// normalization.
type Listen struct {
	Time time.Time
	ID   TrackID // canonical
	Ms   int64
	Hour int
}

type sourceKind int

const (
	musicSource sourceKind = iota
	podcastSource
	unknownSource
)

// eventSource is the raw event's metadata resolved once into a fixed
// shape: music fields take priority, podcast fields are the fallback.
type eventSource struct {
	kind   sourceKind
	track  string
	artist string
}

// ResolveDisplay returns the display track and artist names for a raw
// event, or ok=false when the event names no playable source.
func ResolveDisplay(ev history.RawEvent) (track, artist string, ok bool) {
	src := resolveSource(ev)
	if src.kind == unknownSource {
		return "", "", false
	}
	return src.track, src.artist, true
}

// ParseTimestamp parses an export timestamp. Only UTC "Z" timestamps
// are accepted.
func ParseTimestamp(ts string) (time.Time, error) {
	return time.Parse(tsLayout, ts)
}

func resolveSource(ev history.RawEvent) eventSource {
	if track := coerceString(ev.TrackName); track != "" {
		return eventSource{musicSource, track, coerceString(ev.ArtistName)}
	}
	if episode := coerceString(ev.EpisodeName); episode != "" {
		return eventSource{podcastSource, episode, coerceString(ev.ShowName)}
	}
	return eventSource{unknownSource, "", ""}
}

// coerceString converts any scalar metadata value to a trimmed string.
// Exports occasionally carry numeric track names; those must not be
// dropped, let alone crash.
func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// canonicalRules strips edition and version qualifiers so re-releases
// of the same work collapse to one identity. The rules are data, not
// code: an ordered list of (pattern, replacement) applied to the
// lowercased track name.
var canonicalRules = []struct {
	Pattern string
	Replace string
}{
	{` *[-–—] *\d{4} remaster(ed)?( version)?$`, ""},
	{` *[-–—] *remaster(ed)?( \d{4})?( version)?$`, ""},
	{` *\((\d{4} )?remaster(ed)?( version)?\)$`, ""},
	{` *[-–—] *(live|mono|stereo)( version)?$`, ""},
	{` *\((live|mono|stereo)( version)?\)$`, ""},
	{` *[-–—] *radio edit$`, ""},
	{` *\(radio edit\)$`, ""},
	{` *[-–—] *(deluxe|bonus track)( version| edition)?$`, ""},
	{` *\((deluxe|bonus track)( version| edition)?\)$`, ""},
}

var compiledRules = compileRules()

type canonicalRule struct {
	re      *regexp.Regexp
	replace string
}

func compileRules() []canonicalRule {
	rules := make([]canonicalRule, 0, len(canonicalRules))
	for _, r := range canonicalRules {
		rules = append(rules, canonicalRule{regexp.MustCompile(r.Pattern), r.Replace})
	}
	return rules
}

// canonicalizeTrack applies the rule table in order to a lowercased
// track name.
func canonicalizeTrack(track string) string {
	for _, rule := range compiledRules {
		track = rule.re.ReplaceAllString(track, rule.replace)
	}
	return strings.TrimSpace(track)
}

// dedupKey identifies a raw event. The raw (uncanonicalized) track ID
// is deliberate: two distinct raw entries that collide only after
// canonicalization are both legitimate listens.
type dedupKey struct {
	ts string
	ms int64
	id TrackID
}

// Collect normalizes and admits raw events into the run. Rejections
// are counted, never errors; a malformed record can't abort a run.
func (r *Run) Collect(events []history.RawEvent) {
	for _, ev := range events {
		r.collectOne(ev)
	}
}

func (r *Run) collectOne(ev history.RawEvent) {
	src := resolveSource(ev)
	if ev.Ts == "" || src.track == "" || src.artist == "" {
		r.stats.Skipped++
		return
	}

	ts, err := time.Parse(tsLayout, ev.Ts)
	if err != nil {
		r.stats.Skipped++
		return
	}

	var ms int64
	if ev.MsPlayed != nil {
		ms = *ev.MsPlayed
	}

	rawID := TrackID{
		Track:  strings.ToLower(src.track),
		Artist: strings.ToLower(src.artist),
	}
	canonID := TrackID{
		Track:  canonicalizeTrack(rawID.Track),
		Artist: rawID.Artist,
	}
	if canonID != rawID {
		r.stats.Canonized++
		r.canonical[rawID] = canonID
	}

	key := dedupKey{ts: ev.Ts, ms: ms, id: rawID}
	if _, seen := r.dedup[key]; seen {
		r.stats.Duplicates++
		return
	}
	r.dedup[key] = struct{}{}

	if _, ok := r.display[canonID]; !ok {
		r.display[canonID] = displayName{track: src.track, artist: src.artist}
	}
	if _, ok := r.artistDisplay[canonID.Artist]; !ok {
		r.artistDisplay[canonID.Artist] = src.artist
	}

	r.stats.Processed++
	r.listens = append(r.listens, Listen{
		Time: ts.UTC(),
		ID:   canonID,
		Ms:   ms,
		Hour: ts.UTC().Hour(),
	})
}
