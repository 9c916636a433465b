package search

import (
	"log/slog"
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/vidtube/internal/domain"
	"github.com/mmcdole/vidtube/internal/store"
)

// VideoResult is a matched video with the title positions that matched
type VideoResult struct {
	Video          domain.Video
	MatchedIndexes []int
	Score          int
}

// videoIndex implements fuzzy.Source over lowercased titles
type videoIndex struct {
	videos []domain.Video
	titles []string
}

func (idx *videoIndex) String(i int) string { return idx.titles[i] }
func (idx *videoIndex) Len() int            { return len(idx.videos) }

// Service searches cached entities. It never touches the network.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService creates a search service over st
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Videos fuzzy-matches query against every cached video title, best match
// first. An empty query matches nothing.
func (s *Service) Videos(query string) []VideoResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	videos := s.store.Videos.Values()
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })

	idx := &videoIndex{videos: videos, titles: make([]string, len(videos))}
	for i, v := range videos {
		idx.titles[i] = strings.ToLower(v.Title)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	results := make([]VideoResult, len(matches))
	for i, m := range matches {
		results[i] = VideoResult{
			Video:          idx.videos[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	s.logger.Debug("searched videos", "query", query, "candidates", len(videos), "results", len(results))
	return results
}

// Playlists ranks cached playlists whose name contains query's characters
// in order, case-insensitively.
func (s *Service) Playlists(query string) []domain.Playlist {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	playlists := s.store.Playlists.Values()
	names := make([]string, len(playlists))
	for i, p := range playlists {
		names[i] = p.Name
	}

	ranks := lfuzzy.RankFindFold(query, names)
	scores := make(map[int]int, len(ranks))
	for _, r := range ranks {
		scores[r.OriginalIndex] = matchScore(strings.ToLower(r.Target), strings.ToLower(query), r.Distance)
	}

	out := make([]domain.Playlist, 0, len(ranks))
	order := make([]int, 0, len(ranks))
	for i := range playlists {
		if _, ok := scores[i]; ok {
			order = append(order, i)
		}
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := order[a], order[b]
		if scores[pa] != scores[pb] {
			return scores[pa] < scores[pb]
		}
		return playlists[pa].ID < playlists[pb].ID
	})
	for _, i := range order {
		out = append(out, playlists[i])
	}

	s.logger.Debug("searched playlists", "query", query, "results", len(out))
	return out
}

// Channels ranks cached channels by the better of their username and full
// name match.
func (s *Service) Channels(query string) []domain.Channel {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	lowerQuery := strings.ToLower(query)

	channels := s.store.Channels.Values()
	usernames := make([]string, len(channels))
	fullNames := make([]string, len(channels))
	for i, ch := range channels {
		usernames[i] = ch.Username
		fullNames[i] = ch.FullName
	}

	best := make(map[int]int)
	for _, targets := range [][]string{usernames, fullNames} {
		for _, r := range lfuzzy.RankFindFold(query, targets) {
			score := matchScore(strings.ToLower(r.Target), lowerQuery, r.Distance)
			if prev, ok := best[r.OriginalIndex]; !ok || score < prev {
				best[r.OriginalIndex] = score
			}
		}
	}

	order := make([]int, 0, len(best))
	for i := range best {
		order = append(order, i)
	}
	sort.Slice(order, func(a, b int) bool {
		ca, cb := order[a], order[b]
		if best[ca] != best[cb] {
			return best[ca] < best[cb]
		}
		return channels[ca].ID < channels[cb].ID
	})

	out := make([]domain.Channel, len(order))
	for i, idx := range order {
		out[i] = channels[idx]
	}
	s.logger.Debug("searched channels", "query", query, "results", len(out))
	return out
}

// matchScore orders matches, lower is better: exact, then prefix, then
// substring, then by edit distance.
func matchScore(target, query string, distance int) int {
	switch {
	case target == query:
		return 0
	case strings.HasPrefix(target, query):
		return 10
	case strings.Contains(target, query):
		return 50
	default:
		return 100 + distance
	}
}
