package catalog

import "strings"

var Categories = []string{
	"Literature", "Fiction", "Classic", "Fantasy", "Philosophy", "Biography",
	"Education", "Thriller", "Mystery", "Teenage", "Adventure", "Law",
}

var categorySynonyms = map[string]string{
	"fiction":       "Fiction",
	"novels":        "Fiction",
	"story":         "Fiction",
	"stories":       "Fiction",
	"fantasy":       "Fantasy",
	"magic":         "Fantasy",
	"thriller":      "Thriller",
	"thrillers":     "Thriller",
	"suspense":      "Thriller",
	"mystery":       "Mystery",
	"mysteries":     "Mystery",
	"detective":     "Mystery",
	"biography":     "Biography",
	"biographies":   "Biography",
	"memoir":        "Biography",
	"memoirs":       "Biography",
	"literature":    "Literature",
	"classic":       "Classic",
	"classics":      "Classic",
	"philosophy":    "Philosophy",
	"philosophical": "Philosophy",
	"teen":          "Teenage",
	"teenage":       "Teenage",
	"young adult":   "Teenage",
	"ya":            "Teenage",
	"adventure":     "Adventure",
	"adventures":    "Adventure",
	"education":     "Education",
	"educational":   "Education",
	"law":           "Law",
	"legal":         "Law",
}

// MapCategory maps a spoken category word to a canonical category.
func MapCategory(spoken string) (string, bool) {
	c, ok := categorySynonyms[strings.ToLower(strings.TrimSpace(spoken))]
	return c, ok
}
