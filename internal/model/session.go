package model

// Session is the view of one front-end session.
type Session struct {
	ID              string `json:"id"`
	LoggedIn        bool   `json:"loggedIn"`
	Account         string `json:"account,omitempty"`
	Address         string `json:"address,omitempty"`
	Balance         string `json:"balance"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"`
	LastTransaction string `json:"lastTransaction,omitempty"`
	LastError       string `json:"lastError,omitempty"`
}
