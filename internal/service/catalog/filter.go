package catalog

import (
	"strings"

	models "github.com/angermaster11/eduhub/internal/domain/models/catalog"
)

// Filter keeps courses whose title, description or tag contains query,
// ignoring case. The query is matched as given, spaces included. An empty
// query returns courses itself.
func Filter(courses []models.Course, query string) []models.Course {
	if query == "" {
		return courses
	}
	q := strings.ToLower(query)

	matched := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Tag), q) {
			matched = append(matched, c)
		}
	}
	return matched
}
