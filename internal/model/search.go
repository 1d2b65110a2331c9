package model

const SearchResultLimit = 5

type SearchResult struct {
	Users     []UserSummary  `json:"users"`
	Creations []CreationView `json:"creations"`
}
