package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"albumportal/internal/models"
)

const unknownYear = "Unknown"

// ParseYearSpec parses a comma separated list of years ("2019") and
// inclusive ranges ("2021-2022"). Malformed tokens are dropped and reported
// as warnings; the remaining tokens still apply.
func ParseYearSpec(spec string) ([]models.YearRange, []string) {
	var (
		ranges   []models.YearRange
		warnings []string
	)
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if from, to, isRange := strings.Cut(token, "-"); isRange {
			start, okStart := parseYear(from)
			end, okEnd := parseYear(to)
			if !okStart || !okEnd || start > end {
				warnings = append(warnings, fmt.Sprintf("Invalid range: %s", token))
				continue
			}
			ranges = append(ranges, models.YearRange{From: start, To: end})
			continue
		}
		year, ok := parseYear(token)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Invalid year: %s", token))
			continue
		}
		ranges = append(ranges, models.YearRange{From: year, To: year})
	}
	return ranges, warnings
}

// parseYear accepts exactly four digits.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(s)
	return y, err == nil
}

// Search filters the general listing by name and year expression and groups
// the hits by the year of their oldest photo, newest year first.
func (s *AlbumService) Search(ctx context.Context, query, yearSpec string) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	yearSpec = strings.TrimSpace(yearSpec)

	ranges, warnings := ParseYearSpec(yearSpec)
	result := &models.SearchResult{Query: query, YearSpec: yearSpec, Warnings: warnings}
	if query == "" && len(ranges) == 0 {
		return result, nil
	}

	albums, err := s.repo.Search(ctx, models.AlbumFilter{NameContains: query, Years: ranges})
	if err != nil {
		return nil, err
	}
	result.Performed = true
	result.Total = len(albums)
	result.Years = groupByYear(albums)
	return result, nil
}

// groupByYear keeps the incoming order inside each group. Dated groups are
// sorted newest first and the Unknown group, if any, goes last.
func groupByYear(albums []models.Album) []models.YearGroup {
	var (
		groups  []models.YearGroup
		index   = map[int]int{}
		unknown *models.YearGroup
	)
	for _, a := range albums {
		if a.OldestPhotoDate == nil {
			if unknown == nil {
				unknown = &models.YearGroup{Label: unknownYear}
			}
			unknown.Albums = append(unknown.Albums, card(a))
			continue
		}
		y := a.OldestPhotoDate.Year()
		i, ok := index[y]
		if !ok {
			i = len(groups)
			index[y] = i
			groups = append(groups, models.YearGroup{Label: strconv.Itoa(y), Year: y})
		}
		groups[i].Albums = append(groups[i].Albums, card(a))
	}
	slices.SortStableFunc(groups, func(a, b models.YearGroup) int { return b.Year - a.Year })
	if unknown != nil {
		groups = append(groups, *unknown)
	}
	return groups
}
