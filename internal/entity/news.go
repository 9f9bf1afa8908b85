package entity

// Company is one row of the tracked companies list.
type Company struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CompanyNews holds the headlines found for one company in a fetch window.
type CompanyNews struct {
	Company Company  `json:"company"`
	Titles  []string `json:"titles"`
}

// TitleSummary is the model-written summary of one headline.
type TitleSummary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}
