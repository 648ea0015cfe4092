// Package progress encodes playback progress inside a bookmark's note field.
//
// Raindrop has no structured-metadata field, so progress rides along in the
// free-text note as a JSON payload wrapped in a fixed comment marker. The
// codec also builds platform-specific resume deep links and converts between
// seconds and human-readable timestamps.
package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Marker is the sentinel that delimits the embedded JSON block.
const Marker = "BOOKMARK_PROGRESS"

// Platform identifiers returned by DetectPlatform.
const (
	PlatformYouTube = "youtube"
	PlatformVimeo   = "vimeo"
	PlatformSpotify = "spotify"
	PlatformTwitch  = "twitch"
	PlatformUnknown = "unknown"
)

var (
	// blockRegexp matches a sentinel block and captures the JSON payload.
	blockRegexp = regexp.MustCompile(`(?s)<!-- ` + Marker + `\s*(.*?)\s*-->`)
	// stripRegexp additionally consumes trailing whitespace so removal
	// leaves no blank gaps behind.
	stripRegexp = regexp.MustCompile(`(?s)<!-- ` + Marker + `\s*.*?\s*-->\s*`)

	timestampRegexp = regexp.MustCompile(`^\d{1,2}:[0-5]\d(:[0-5]\d)?$`)
)

// VideoProgress records how far into a video or audio resource the user got.
type VideoProgress struct {
	Type        string `json:"type"` // always "video"
	Timestamp   int    `json:"timestamp"`
	LastUpdated string `json:"lastUpdated"`
	Platform    string `json:"platform"`
}

// Data is the payload stored inside the sentinel block.
type Data struct {
	Video *VideoProgress `json:"video,omitempty"`
}

// ParseNote extracts progress data from a note. The second return value is
// false when the note carries no sentinel block or the payload is not valid
// JSON; a bad payload is logged and treated as absent, never as an error.
func ParseNote(note string) (*Data, bool) {
	if note == "" {
		return nil, false
	}

	m := blockRegexp.FindStringSubmatch(note)
	if m == nil {
		return nil, false
	}

	var data Data
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		log.Printf("progress: ignoring unparseable progress block: %v", err)
		return nil, false
	}
	return &data, true
}

// UpdateNote returns the note with a fresh sentinel block prepended. Any
// existing blocks are stripped first, so duplicate or malformed prior writes
// cannot accumulate. Re-encoding the same data is idempotent.
func UpdateNote(note string, data Data) string {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		// Data contains only plain fields; this cannot fail in practice.
		log.Printf("progress: marshal failed: %v", err)
		return note
	}

	block := fmt.Sprintf("<!-- %s\n%s\n-->", Marker, payload)

	rest := stripRegexp.ReplaceAllString(note, "")
	if rest == "" {
		return block
	}
	return block + "\n\n" + rest
}

// DetectPlatform classifies a URL by hostname. Malformed URLs are reported
// as unknown rather than failing.
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return PlatformUnknown
	}

	host := u.Hostname()
	switch {
	case strings.Contains(host, "youtube.com") || host == "youtu.be":
		return PlatformYouTube
	case strings.Contains(host, "vimeo.com"):
		return PlatformVimeo
	case strings.Contains(host, "spotify.com"):
		return PlatformSpotify
	case strings.Contains(host, "twitch.tv"):
		return PlatformTwitch
	default:
		return PlatformUnknown
	}
}

// ResumeURL appends a platform-specific seek parameter to a URL so opening
// it resumes playback at the saved timestamp. On a malformed input URL the
// original string is returned unchanged.
func ResumeURL(rawURL string, seconds int, platform string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}

	switch platform {
	case PlatformVimeo:
		// Vimeo seeks via the fragment: #t=XmYs
		u.Fragment = fmt.Sprintf("t=%dm%ds", seconds/60, seconds%60)
	case PlatformTwitch:
		// Twitch VODs use ?t=XhYmZs with zero-valued units left out.
		if param := twitchTimeParam(seconds); param != "" {
			q := u.Query()
			q.Set("t", param)
			u.RawQuery = q.Encode()
		}
	default:
		// YouTube (both hostnames), Spotify, and unknown platforms all
		// take plain seconds.
		q := u.Query()
		q.Set("t", strconv.Itoa(seconds))
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func twitchTimeParam(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm", minutes)
	}
	if secs > 0 {
		fmt.Fprintf(&b, "%ds", secs)
	}
	return b.String()
}

// FormatTimestamp renders seconds as MM:SS, or HH:MM:SS once the duration
// reaches an hour. Components are zero-padded to two digits.
func FormatTimestamp(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// ParseTimestamp converts a MM:SS or HH:MM:SS string to seconds. Any other
// shape yields 0; callers validate with ValidTimestamp first.
func ParseTimestamp(s string) int {
	parts := strings.Split(s, ":")

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums[i] = n
	}

	switch len(nums) {
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0
	}
}

// ValidTimestamp reports whether s is a well-formed MM:SS or HH:MM:SS string.
func ValidTimestamp(s string) bool {
	return timestampRegexp.MatchString(s)
}
