// Package domain holds the logical entity records stored by the
// repository layer. These are plain data shapes: field constraints are
// enforced by the schema layer in front of the API, and storage-only
// fields (keys, entity discriminators) never appear here.
package domain

// User is a registered account. IDs are caller-assigned (they come from
// the external identity provider) and globally unique.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Transaction is a personal expense belonging to a single user.
// Amount is in minor currency units; Date is epoch seconds.
type Transaction struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Location string `json:"location"`
	Details  string `json:"details"`
	Amount   int64  `json:"amount"`
	Date     int64  `json:"date"`
	Category string `json:"category"`
}

// SharedTransaction is an expense split between the participants of a
// tracker. Payer is the participant who fronted the amount. Split, when
// present, maps participant id to the fraction of the amount they owe;
// an absent split means an even division. Unsettled marks transactions
// still contributing to the outstanding balance between participants.
type SharedTransaction struct {
	ID           string             `json:"id"`
	Tracker      string             `json:"tracker"`
	Location     string             `json:"location"`
	Details      string             `json:"details"`
	Amount       int64              `json:"amount"`
	Date         int64              `json:"date"`
	Category     string             `json:"category"`
	Participants []string           `json:"participants"`
	Payer        string             `json:"payer"`
	Unsettled    bool               `json:"unsettled,omitempty"`
	Split        map[string]float64 `json:"split,omitempty"`
}

// Tracker is a named group of users sharing expenses. Users keeps its
// creation order.
type Tracker struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Users []string `json:"users"`
}
