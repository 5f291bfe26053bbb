package services

import (
	"sort"
	"strings"
	"unicode"
)

// First names must come from a fixed approved list so that a first name
// alone cannot identify a person.
var approvedNames = map[string]struct{}{}

func init() {
	for _, n := range []string{
		// Gender-neutral
		"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Quinn", "Avery",
		"Sam", "Charlie", "Jamie", "Drew", "Skyler", "Reese", "Finley", "Rowan",

		// Common male names
		"James", "John", "Michael", "David", "Daniel", "Matthew", "Andrew", "Ryan",
		"William", "Joseph", "Thomas", "Christopher", "Anthony", "Mark", "Steven",
		"Paul", "Kevin", "Brian", "Jason", "Eric", "Adam", "Nathan", "Justin",
		"Brandon", "Tyler", "Aaron", "Benjamin", "Nicholas", "Kyle", "Jeremy",
		"Ethan", "Noah", "Lucas", "Mason", "Oliver", "Henry", "Sebastian", "Jack",
		"Leo", "Max", "Oscar", "Felix", "Hugo", "Arthur", "Louis", "Theo",

		// Common female names
		"Emma", "Olivia", "Sophia", "Isabella", "Mia", "Charlotte", "Amelia", "Emily",
		"Elizabeth", "Sofia", "Ella", "Grace", "Chloe", "Victoria", "Madison", "Luna",
		"Hannah", "Lily", "Zoe", "Nora", "Leah", "Hazel", "Violet", "Aurora",
		"Sarah", "Jessica", "Ashley", "Amanda", "Jennifer", "Stephanie", "Nicole",
		"Michelle", "Rachel", "Laura", "Katherine", "Rebecca", "Megan", "Anna",
		"Julia", "Claire", "Alice", "Lucy", "Ruby", "Eva", "Ivy", "Eleanor",

		// International
		"Omar", "Ali", "Ahmed", "Yusuf", "Hassan", "Ibrahim", "Khalid", "Tariq",
		"Wei", "Ming", "Chen", "Lin", "Yuki", "Hana", "Kenji", "Sakura",
		"Maria", "Carlos", "Diego", "Pablo", "Elena", "Miguel", "Ana",
		"Pierre", "Marie", "Jean", "Sophie", "Luca", "Marco", "Giulia",
		"Hans", "Klaus", "Lukas", "Sven", "Erik", "Ingrid", "Freya",
	} {
		approvedNames[n] = struct{}{}
	}
}

// NormalizeName trims whitespace and title-cases the name ("  aLEX " -> "Alex").
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// IsApprovedName reports whether the normalized name is in the approved list.
func IsApprovedName(name string) bool {
	_, ok := approvedNames[NormalizeName(name)]
	return ok
}

// ApprovedNames returns the approved first names, sorted.
func ApprovedNames() []string {
	names := make([]string, 0, len(approvedNames))
	for n := range approvedNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
