package playlist

import (
	"context"
	"errors"

	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// Matcher finds the equivalent of a track on another catalog.
// The target's top search hit is trusted as is.
type Matcher struct {
	Logger botpkg.Logger
}

// Match searches target for track. A miss returns (nil, nil): the caller skips the catalog.
// Transient failures are returned so the caller can tell them apart in the report.
func (m *Matcher) Match(ctx context.Context, target platform.Catalog, track botpkg.Track) (*platform.Track, error) {
	if target == nil || track.IsZero() {
		return nil, nil
	}
	hit, err := target.SearchTrack(ctx, track)
	if err != nil {
		if platform.IsNotFound(err) {
			m.log().Info("no search hit", "catalog", target.Name(), "track", track.String())
			return nil, nil
		}
		return nil, err
	}
	if hit == nil {
		m.log().Info("no search hit", "catalog", target.Name(), "track", track.String())
		return nil, nil
	}
	return hit, nil
}

func (m *Matcher) log() botpkg.Logger {
	if m == nil || m.Logger == nil {
		return nopLogger{}
	}
	return m.Logger
}

// errNoHit marks a (track, catalog) pair the matcher could not map.
var errNoHit = errors.New("playlist: no matching track")

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)        {}
func (nopLogger) Info(string, ...any)         {}
func (nopLogger) Warn(string, ...any)         {}
func (nopLogger) Error(string, ...any)        {}
func (n nopLogger) With(...any) botpkg.Logger { return n }
