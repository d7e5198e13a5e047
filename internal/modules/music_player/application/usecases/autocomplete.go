package usecases

import (
	"context"
	"strconv"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// MaxAutocompleteChoices is the number of choices Discord accepts per autocomplete response.
const MaxAutocompleteChoices = 25

// AutocompleteChoice is a single suggestion.
type AutocompleteChoice struct {
	Name  string
	Value string
}

// AutocompleteService suggests values for command options.
type AutocompleteService struct {
	registry domain.QueueRegistry
	searcher ports.TrackSearcher
	source   domain.SearchSource
}

// NewAutocompleteService creates a new AutocompleteService.
func NewAutocompleteService(
	registry domain.QueueRegistry,
	searcher ports.TrackSearcher,
	source domain.SearchSource,
) *AutocompleteService {
	return &AutocompleteService{
		registry: registry,
		searcher: searcher,
		source:   source,
	}
}

// SearchTracks suggests tracks for a free-text play query. URLs get no suggestions.
func (s *AutocompleteService) SearchTracks(
	ctx context.Context,
	input string,
) ([]AutocompleteChoice, error) {
	query := domain.NewSearchQueryWithSource(input, s.source)
	if !query.IsValid() || query.IsURL() {
		return nil, nil
	}

	tracks, err := s.searcher.SearchTracks(ctx, query, MaxAutocompleteChoices)
	if err != nil {
		return nil, err
	}

	choices := make([]AutocompleteChoice, 0, len(tracks))
	for _, t := range tracks {
		if t.URI == "" {
			continue
		}
		name := t.Title
		if t.Artist != "" {
			name = t.Title + " - " + t.Artist
		}
		choices = append(choices, AutocompleteChoice{Name: name, Value: t.URI})
	}
	return choices, nil
}

// UpcomingTracks suggests jump targets. Numeric input matches queue positions by prefix,
// anything else matches titles.
func (s *AutocompleteService) UpcomingTracks(
	guildID snowflake.ID,
	input string,
) []AutocompleteChoice {
	queue, ok := s.registry.Get(guildID)
	if !ok {
		return nil
	}

	needle := strings.ToLower(strings.TrimSpace(input))
	_, err := strconv.Atoi(needle)
	numeric := err == nil

	choices := make([]AutocompleteChoice, 0, MaxAutocompleteChoices)
	for i, t := range queue.Upcoming() {
		number := strconv.Itoa(i + 1)
		switch {
		case needle == "":
		case numeric && !strings.HasPrefix(number, needle):
			continue
		case !numeric && !strings.Contains(strings.ToLower(t.Title), needle):
			continue
		}
		choices = append(choices, AutocompleteChoice{
			Name:  number + ". " + t.Title,
			Value: number,
		})
		if len(choices) == MaxAutocompleteChoices {
			break
		}
	}
	return choices
}
