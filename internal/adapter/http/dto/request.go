package dto

import (
	"encoding/json"
	"errors"

	"github.com/iho/bobpool/internal/domain"
	"github.com/iho/bobpool/internal/usecase"
)

// Amount accepts a JSON number or string and keeps the raw text; the domain
// parser decides what is a valid amount.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a number or a string")
	}
	*a = Amount(n.String())

	return nil
}

// LineItemRequest is one priced row of a deposit.
type LineItemRequest struct {
	Label string `json:"label"`
	Price Amount `json:"price"`
}

// CreateDepositRequest represents a split deposit.
type CreateDepositRequest struct {
	Participants []string          `json:"participants"`
	Items        []LineItemRequest `json:"items"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDepositRequest) ToUseCaseInput(restaurantID int64) usecase.RecordDepositInput {
	items := make([]domain.LineItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = domain.LineItem{Label: item.Label, Price: string(item.Price)}
	}

	return usecase.RecordDepositInput{
		RestaurantID: restaurantID,
		Participants: r.Participants,
		Items:        items,
	}
}

// CreateWithdrawalRequest represents a single withdrawal.
type CreateWithdrawalRequest struct {
	Participant string `json:"participant"`
	Amount      Amount `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWithdrawalRequest) ToUseCaseInput(restaurantID int64) (usecase.RecordWithdrawalInput, error) {
	amount, err := domain.ParseAmount(string(r.Amount))
	if err != nil {
		return usecase.RecordWithdrawalInput{}, err
	}

	return usecase.RecordWithdrawalInput{
		RestaurantID: restaurantID,
		Participant:  r.Participant,
		Amount:       amount,
	}, nil
}

// ReviseEntryRequest carries a new spend amount. An empty amount resumes the
// draft kept from a failed save.
type ReviseEntryRequest struct {
	SpendAmount Amount `json:"spend_amount"`
}
