package core

import "strings"

// CategoryOther is assigned when nothing better is known.
const CategoryOther = "Other"

// Categories is the closed set the categorizer may assign.
var Categories = []string{
	"Salary",
	"Income",
	"Food",
	"Groceries",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Shopping",
	"Health",
	"Education",
	"Travel",
	"Savings",
	CategoryOther,
}

// NormalizeCategory maps free text onto Categories, case-insensitively.
func NormalizeCategory(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `."'*`)
	for _, c := range Categories {
		if strings.EqualFold(c, s) {
			return c
		}
	}
	return CategoryOther
}
