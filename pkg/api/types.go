// Package api defines the request payloads accepted by the HTTP
// surface. Field constraints live here as validate tags; by the time a
// payload reaches the repositories it is assumed well-formed.
package api

// CreateUserRequest registers an account. The id comes from the
// external identity provider.
type CreateUserRequest struct {
	ID       string `json:"id" validate:"required"`
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// CreateTransactionRequest logs a personal expense. Amount is in minor
// currency units; Date is epoch seconds.
type CreateTransactionRequest struct {
	Location string `json:"location" validate:"required"`
	Details  string `json:"details"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Date     int64  `json:"date" validate:"required,gt=0"`
	Category string `json:"category" validate:"required"`
}

// UpdateTransactionRequest overwrites an existing personal expense.
type UpdateTransactionRequest struct {
	Location string `json:"location" validate:"required"`
	Details  string `json:"details"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Date     int64  `json:"date" validate:"required,gt=0"`
	Category string `json:"category" validate:"required"`
}

// CreateSharedTransactionRequest logs an expense split between the
// participants of a tracker. Split, when present, maps participant id
// to owed fraction; omitted means an even split.
type CreateSharedTransactionRequest struct {
	Location     string             `json:"location" validate:"required"`
	Details      string             `json:"details"`
	Amount       int64              `json:"amount" validate:"required,gt=0"`
	Date         int64              `json:"date" validate:"required,gt=0"`
	Category     string             `json:"category" validate:"required"`
	Participants []string           `json:"participants" validate:"required,min=1,dive,required"`
	Payer        string             `json:"payer" validate:"required"`
	Unsettled    bool               `json:"unsettled"`
	Split        map[string]float64 `json:"split,omitempty"`
}

// UpdateSharedTransactionRequest overwrites an existing shared
// transaction with a new body.
type UpdateSharedTransactionRequest struct {
	Location     string             `json:"location" validate:"required"`
	Details      string             `json:"details"`
	Amount       int64              `json:"amount" validate:"required,gt=0"`
	Date         int64              `json:"date" validate:"required,gt=0"`
	Category     string             `json:"category" validate:"required"`
	Participants []string           `json:"participants" validate:"required,min=1,dive,required"`
	Payer        string             `json:"payer" validate:"required"`
	Unsettled    bool               `json:"unsettled"`
	Split        map[string]float64 `json:"split,omitempty"`
}

// DeleteSharedTransactionRequest removes a shared transaction. The
// caller supplies the authoritative participants list.
type DeleteSharedTransactionRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
}

// SettleEntry identifies one shared transaction to settle.
type SettleEntry struct {
	ID           string   `json:"id" validate:"required"`
	Tracker      string   `json:"tracker" validate:"required"`
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
}

// SettleTransactionsRequest settles a batch of shared transactions.
type SettleTransactionsRequest struct {
	Transactions []SettleEntry `json:"transactions" validate:"required,min=1,dive"`
}

// CreateTrackerRequest creates an expense-sharing group. Sharing needs
// at least two members.
type CreateTrackerRequest struct {
	Name  string   `json:"name" validate:"required"`
	Users []string `json:"users" validate:"required,min=2,dive,required"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
