// Package coach turns parsed VCF gene data into subject-specific
// health guidance reports.
package coach

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownSubject is returned for subjects outside the knowledge base.
var ErrUnknownSubject = errors.New("coach: subject not covered, use 'sport', 'nutrition' or 'therapies'")

// Subjects maps canonical subject keys to display labels.
var Subjects = map[string]string{
	"sport":     "Sport",
	"nutrition": "Nutrition",
	"therapies": "Therapies",
}

// subjectSynonyms maps common variants to canonical keys.
var subjectSynonyms = map[string]string{
	"diet":     "nutrition",
	"food":     "nutrition",
	"therapy":  "therapies",
	"training": "sport",
	"exercise": "sport",
}

// NormalizeSubjects canonicalizes the requested subjects, dropping
// duplicates and unknown values. An empty request selects all subjects.
func NormalizeSubjects(subjects []string) []string {
	if len(subjects) == 0 {
		return allSubjects()
	}

	var normalized []string
	seen := make(map[string]bool)
	for _, subject := range subjects {
		key := strings.ToLower(strings.TrimSpace(subject))
		if key == "" {
			continue
		}
		if _, ok := Subjects[key]; !ok {
			key = subjectSynonyms[key]
		}
		if _, ok := Subjects[key]; !ok {
			continue
		}
		if !seen[key] {
			seen[key] = true
			normalized = append(normalized, key)
		}
	}
	if len(normalized) == 0 {
		return allSubjects()
	}
	return normalized
}

// SubjectLabel returns the display label for a subject key.
func SubjectLabel(key string) string {
	if label, ok := Subjects[key]; ok {
		return label
	}
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func allSubjects() []string {
	keys := make([]string, 0, len(Subjects))
	for key := range Subjects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
