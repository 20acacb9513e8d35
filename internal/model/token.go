package model

import "time"

type Wallet struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// Transaction is a submitted mutation. ID refers to a pending transaction;
// nothing here reflects whether it was sealed.
type Transaction struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Signer      string    `json:"signer"`
	Recipient   string    `json:"recipient,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
