package service

import (
	"strings"

	"github.com/user/dreadscale/internal/model"
)

// SampleMovies 未配置 TMDB 时使用的示例电影
func SampleMovies() []model.Movie {
	movies := []model.Movie{
		{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15", VoteAverage: 8.4, Runtime: 148,
			Overview: "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea.",
			Genres:   []string{"Action", "Science Fiction", "Adventure"}},
		{ID: 155, Title: "The Dark Knight", ReleaseDate: "2008-07-16", VoteAverage: 8.5, Runtime: 152,
			Overview: "Batman raises the stakes in his war on crime and faces the Joker.",
			Genres:   []string{"Drama", "Action", "Crime", "Thriller"}},
		{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31", VoteAverage: 8.2, Runtime: 136,
			Overview: "A computer hacker learns about the true nature of his reality.",
			Genres:   []string{"Action", "Science Fiction"}},
		{ID: 694, Title: "The Shining", ReleaseDate: "1980-05-23", VoteAverage: 8.2, Runtime: 144,
			Overview: "A family heads to an isolated hotel for the winter where an evil presence influences the father.",
			Genres:   []string{"Horror", "Thriller"}},
		{ID: 348, Title: "Alien", ReleaseDate: "1979-05-25", VoteAverage: 8.2, Runtime: 117,
			Overview: "The crew of a commercial spacecraft encounters a deadly lifeform.",
			Genres:   []string{"Horror", "Science Fiction"}},
		{ID: 493922, Title: "Hereditary", ReleaseDate: "2018-06-07", VoteAverage: 7.3, Runtime: 127,
			Overview: "A grieving family is haunted by tragic and disturbing occurrences.",
			Genres:   []string{"Horror", "Mystery", "Thriller"}},
		{ID: 862, Title: "Toy Story", ReleaseDate: "1995-11-22", VoteAverage: 8.0, Runtime: 81,
			Overview: "A cowboy doll is threatened when a new spaceman figure supplants him as top toy.",
			Genres:   []string{"Animation", "Adventure", "Family", "Comedy"}},
		{ID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15", VoteAverage: 8.4, Runtime: 139,
			Overview: "An insomniac office worker and a soap maker form an underground fight club.",
			Genres:   []string{"Drama"}},
	}
	for i := range movies {
		movies[i].Normalize()
	}
	return movies
}

func samplePage(movies []model.Movie) *model.MoviePage {
	return &model.MoviePage{
		Page:         1,
		TotalPages:   1,
		TotalResults: len(movies),
		Results:      movies,
	}
}

func searchSamples(query, year string) []model.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []model.Movie{}
	for _, m := range SampleMovies() {
		if !strings.Contains(strings.ToLower(m.Title), q) {
			continue
		}
		if year != "" && m.Year() != year {
			continue
		}
		results = append(results, m)
	}
	return results
}
