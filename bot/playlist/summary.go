package playlist

import (
	"fmt"
	"strings"

	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// SetupInstructions is sent when a message carries links but the chat has no playlist.
const SetupInstructions = "No playlist configured!\n" +
	"Please set playlist id by sending `set_playlist <catalog> <id>`\n" +
	"You can find the playlist id by sharing a link to your playlist.\n" +
	"In the following (broken) example, the playlist ID is 28XIcmCYkCabWX3f172AbW:\n" +
	"https://open.spotify.com/playlist/28XIcmCYkCabWX3f172AbW?si=2b1d1d361s284f56"

// Summary renders the chat reply for a report. An empty string means stay silent.
func Summary(report *Report, manager platform.Manager) string {
	if report == nil || len(report.Links) == 0 {
		return ""
	}
	if !report.Bound {
		return SetupInstructions
	}
	var lines []string
	for _, res := range report.Results {
		catalog := platform.DisplayName(manager, res.Catalog)
		switch res.Outcome {
		case Appended:
			lines = append(lines, fmt.Sprintf("Added %q by %s to %s playlist %q",
				res.Track.Name(), artistOrUnknown(res.Track.ArtistName()), catalog, playlistLabel(res)))
		case Skipped:
			lines = append(lines, fmt.Sprintf("%q by %s is already in %s playlist %q",
				res.Track.Name(), artistOrUnknown(res.Track.ArtistName()), catalog, playlistLabel(res)))
		}
	}
	return strings.Join(lines, "\n")
}

func playlistLabel(res Result) string {
	if strings.TrimSpace(res.PlaylistName) != "" {
		return res.PlaylistName
	}
	return res.PlaylistID
}

func artistOrUnknown(artist string) string {
	if strings.TrimSpace(artist) == "" {
		return "unknown artist"
	}
	return artist
}
