package models

// Family represents a household holding a utility card. Rows are stored
// by the external store; the ID is assigned there, never client-side.
// Members carries the nested member rows when the store returns a
// referenced select.
type Family struct {
	ID           int64    `json:"id,omitempty"`
	UserID       string   `json:"user_id"`
	FamilyName   string   `json:"family_name"`
	Address      string   `json:"address"`
	AnnualIncome int      `json:"annual_income"`
	SchemeType   string   `json:"scheme_type"`
	Fee          int      `json:"fee"`
	Discount     int      `json:"discount"`
	CardNumber   string   `json:"card_number"`
	Members      []Member `json:"family_members,omitempty"`
}
