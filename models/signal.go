package models

import "time"

// Signal is one address's weighted support for one project. At most one live
// signal exists per (project, address) pair; repeat signaling accumulates.
type Signal struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Address   string    `json:"address"`
	Amount    int       `json:"amount"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// SupporterSignal annotates a signal with the referenced project's name and
// category. The project fields are absent if the project no longer exists.
type SupporterSignal struct {
	Signal
	ProjectName     string `json:"projectName,omitempty"`
	ProjectCategory string `json:"projectCategory,omitempty"`
}

// Signal amounts are clamped to this range on every write.
const (
	MinSignalAmount = 1
	MaxSignalAmount = 100
)

// ClampAmount forces an amount into [MinSignalAmount, MaxSignalAmount].
// Unparseable or absent amounts arrive as values below the minimum and
// therefore default to MinSignalAmount.
func ClampAmount(amount int) int {
	if amount < MinSignalAmount {
		return MinSignalAmount
	}
	if amount > MaxSignalAmount {
		return MaxSignalAmount
	}
	return amount
}
