package playlist

import (
	"context"
	"errors"
	"fmt"

	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// Outcome is the terminal state of one (track, catalog) pair.
type Outcome int

const (
	// Appended means the track was added to the bound playlist.
	Appended Outcome = iota + 1
	// Skipped means the playlist already held the track.
	Skipped
	// NotFound means the target catalog had no equivalent track.
	NotFound
	// Failed means a remote call failed; treated like NotFound but logged as a warning.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Appended:
		return "appended"
	case Skipped:
		return "skipped"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Success reports whether the outcome counts as success in the chat summary.
func (o Outcome) Success() bool {
	return o == Appended || o == Skipped
}

// Resolved is a link turned into a track by its own catalog.
type Resolved struct {
	Link   platform.Link
	Native *platform.Track
	Track  botpkg.Track
}

// Result is the outcome for one resolved track on one bound catalog.
type Result struct {
	Track        botpkg.Track
	Origin       string
	Catalog      string
	PlaylistID   string
	PlaylistName string
	Outcome      Outcome
	Err          error
}

// Report describes what Process did with one message.
type Report struct {
	Links   []platform.Link
	Tracks  []Resolved
	Results []Result
	// Bound is true when the chat has a playlist on at least one registered catalog.
	Bound bool
}

// Succeeded reports whether any track was appended or already present.
func (r *Report) Succeeded() bool {
	if r == nil {
		return false
	}
	for _, res := range r.Results {
		if res.Outcome.Success() {
			return true
		}
	}
	return false
}

// Count returns the number of results with the given outcome.
func (r *Report) Count(outcome Outcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Service runs the append protocol for chat messages.
type Service struct {
	manager  platform.Manager
	bindings botpkg.BindingRepository
	stats    botpkg.StatRepository
	matcher  *Matcher
	logger   botpkg.Logger
}

// NewService creates a Service. stats and logger may be nil.
func NewService(manager platform.Manager, bindings botpkg.BindingRepository, stats botpkg.StatRepository, logger botpkg.Logger) *Service {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Service{
		manager:  manager,
		bindings: bindings,
		stats:    stats,
		matcher:  &Matcher{Logger: logger},
		logger:   logger,
	}
}

type target struct {
	catalog    platform.Catalog
	playlistID string
	playlist   *platform.Playlist
	lookupErr  error
	looked     bool
}

// Process extracts links from text, resolves them and appends every track to each
// playlist bound to chatID. Only binding store failures are returned as errors.
func (s *Service) Process(ctx context.Context, chatID, text string) (*Report, error) {
	if s.manager == nil || s.bindings == nil {
		return nil, errors.New("playlist service not configured")
	}
	report := &Report{Links: platform.DedupeLinks(s.manager.ExtractLinks(text))}
	if len(report.Links) == 0 {
		return report, nil
	}
	logger := s.logger.With("chat_id", chatID)

	targets, err := s.targets(ctx, chatID, logger)
	if err != nil {
		return report, err
	}
	report.Bound = len(targets) > 0
	if !report.Bound {
		return report, nil
	}

	for _, link := range report.Links {
		resolved, ok := s.resolve(ctx, link, logger)
		if !ok {
			continue
		}
		report.Tracks = append(report.Tracks, resolved)

		for _, t := range targets {
			res := s.appendTo(ctx, t, resolved, logger)
			report.Results = append(report.Results, res)
			s.count(ctx, res.Outcome, logger)
		}
	}
	return report, nil
}

func (s *Service) targets(ctx context.Context, chatID string, logger botpkg.Logger) ([]*target, error) {
	var out []*target
	for _, name := range s.manager.List() {
		catalog := s.manager.Get(name)
		if catalog == nil {
			continue
		}
		id, ok, err := s.bindings.GetBinding(ctx, chatID, name)
		if err != nil {
			logger.Error("failed to read binding", "catalog", name, "error", err)
			return nil, fmt.Errorf("get binding %s: %w", name, err)
		}
		if !ok {
			logger.Debug("no playlist bound", "catalog", name)
			continue
		}
		out = append(out, &target{catalog: catalog, playlistID: id})
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, link platform.Link, logger botpkg.Logger) (Resolved, bool) {
	catalog := s.manager.Get(link.Catalog)
	if catalog == nil {
		return Resolved{}, false
	}
	log := logger.With("catalog", link.Catalog, "kind", string(link.Kind), "id", link.ID)

	var native *platform.Track
	var err error
	switch link.Kind {
	case platform.KindTrack:
		native, err = catalog.LookupTrack(ctx, link.ID)
	case platform.KindAlbum:
		var album *platform.Album
		album, err = catalog.LookupAlbum(ctx, link.ID)
		if err == nil {
			native, err = catalog.TrackFromAlbum(ctx, album)
		}
	default:
		return Resolved{}, false
	}
	if err != nil || native == nil {
		logFailure(log, "could not resolve link", err)
		return Resolved{}, false
	}

	track := catalog.ConvertTrack(native)
	if track.IsZero() {
		log.Info("resolved track has no title")
		return Resolved{}, false
	}
	return Resolved{Link: link, Native: native, Track: track}, true
}

func (s *Service) appendTo(ctx context.Context, t *target, resolved Resolved, logger botpkg.Logger) Result {
	name := t.catalog.Name()
	res := Result{
		Track:      resolved.Track,
		Origin:     resolved.Link.Catalog,
		Catalog:    name,
		PlaylistID: t.playlistID,
	}
	log := logger.With("catalog", name, "playlist_id", t.playlistID, "track", resolved.Track.String())

	playlist, err := s.playlistOf(ctx, t)
	if err != nil {
		logFailure(log, "bound playlist unavailable", err)
		return withErr(res, err)
	}
	res.PlaylistName = playlist.Title

	native := resolved.Native
	if name != resolved.Link.Catalog {
		native, err = s.matcher.Match(ctx, t.catalog, resolved.Track)
		if err != nil {
			logFailure(log, "search failed", err)
			return withErr(res, err)
		}
		if native == nil {
			res.Outcome = NotFound
			res.Err = errNoHit
			return res
		}
	}

	result, err := t.catalog.AddToPlaylist(ctx, playlist, native)
	if err != nil {
		logFailure(log, "append failed", err)
		return withErr(res, err)
	}
	switch result {
	case platform.AlreadyPresent:
		log.Info("track already in playlist", "track_id", native.ID)
		res.Outcome = Skipped
	default:
		log.Info("track appended", "track_id", native.ID)
		res.Outcome = Appended
	}
	return res
}

// playlistOf looks the bound playlist up once per message.
func (s *Service) playlistOf(ctx context.Context, t *target) (*platform.Playlist, error) {
	if !t.looked {
		t.looked = true
		t.playlist, t.lookupErr = t.catalog.LookupPlaylist(ctx, t.playlistID)
		if t.lookupErr == nil && t.playlist == nil {
			t.lookupErr = platform.NewNotFoundError(t.catalog.Name(), "playlist", t.playlistID)
		}
	}
	return t.playlist, t.lookupErr
}

func (s *Service) count(ctx context.Context, outcome Outcome, logger botpkg.Logger) {
	if s.stats == nil {
		return
	}
	var key string
	switch outcome {
	case Appended:
		key = botpkg.StatAppendCount
	case Skipped:
		key = botpkg.StatDuplicateCount
	default:
		return
	}
	if err := s.stats.IncrementStat(ctx, key); err != nil {
		logger.Warn("failed to increment stat", "key", key, "error", err)
	}
}

func withErr(res Result, err error) Result {
	res.Err = err
	if platform.IsNotFound(err) {
		res.Outcome = NotFound
	} else {
		res.Outcome = Failed
	}
	return res
}

// logFailure logs not-found at info and everything else at warn.
func logFailure(logger botpkg.Logger, msg string, err error) {
	if err == nil || platform.IsNotFound(err) {
		logger.Info(msg, "error", err)
		return
	}
	logger.Warn(msg, "error", err)
}
