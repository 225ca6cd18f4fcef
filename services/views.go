package services

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	ds "github.com/oaiiae/huma-phonebook/datastores"
)

// The views below are computed from the active set on every call and are
// never stored.

type Section struct {
	Letter   string
	Contacts []ds.Contact
}

// Sections groups contacts by the upper-cased first letter of their name.
// Sections are sorted by letter and contacts by name inside a section.
// Names without a readable first letter go under "#".
func Sections(contacts []ds.Contact) []Section {
	index := map[string]int{}
	var sections []Section
	for _, c := range contacts {
		letter := "#"
		if r, _ := utf8.DecodeRuneInString(c.Name); r != utf8.RuneError {
			letter = string(unicode.ToUpper(r))
		}
		i, ok := index[letter]
		if !ok {
			i = len(sections)
			index[letter] = i
			sections = append(sections, Section{Letter: letter})
		}
		sections[i].Contacts = append(sections[i].Contacts, c)
	}

	slices.SortFunc(sections, func(a, b Section) int { return strings.Compare(a.Letter, b.Letter) })
	for _, s := range sections {
		slices.SortStableFunc(s.Contacts, func(a, b ds.Contact) int {
			return cmp.Compare(strings.ToUpper(a.Name), strings.ToUpper(b.Name))
		})
	}
	return sections
}

func Favourites(contacts []ds.Contact) []ds.Contact {
	return filter(contacts, func(c ds.Contact) bool { return c.IsFavourite })
}

func Blocked(contacts []ds.Contact) []ds.Contact {
	return filter(contacts, func(c ds.Contact) bool { return c.IsBlocked })
}

func filter(contacts []ds.Contact, keep func(ds.Contact) bool) []ds.Contact {
	out := []ds.Contact{}
	for _, c := range contacts {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// ResolvedCall is a call with the contact whose phone matches its number, if any.
type ResolvedCall struct {
	ds.Call
	Contact *ds.Contact
}

// ResolveCalls matches calls to contacts by phone number. The first
// contact with an equal phone wins.
func ResolveCalls(calls []ds.Call, contacts []ds.Contact) []ResolvedCall {
	byPhone := make(map[string]*ds.Contact, len(contacts))
	for i := range contacts {
		if _, ok := byPhone[contacts[i].Phone]; !ok {
			byPhone[contacts[i].Phone] = &contacts[i]
		}
	}

	out := make([]ResolvedCall, 0, len(calls))
	for _, call := range calls {
		out = append(out, ResolvedCall{Call: call, Contact: byPhone[call.Number]})
	}
	return out
}
