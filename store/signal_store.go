package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/signalboard/signalboard-backend/errs"
	"github.com/signalboard/signalboard-backend/models"
)

type SignalStore struct {
	state *state
}

func newSignalStore(state *state) *SignalStore {
	return &SignalStore{state}
}

// Upsert records support from an address for a project. A repeat signal from
// the same address accumulates the amount onto the existing record instead of
// creating a second one, and replaces the message only when a new non-empty
// message is supplied. The owning project's denormalized counters are updated
// in the same critical section. Returns created=true when a new record was
// made rather than accumulated.
func (s *SignalStore) Upsert(projectID, address string, amount int, message string) (*models.Signal, models.ProjectSummary, bool, error) {
	address = models.NormalizeAddress(address)
	amount = models.ClampAmount(amount)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	project, ok := s.state.projects[projectID]
	if !ok {
		return nil, models.ProjectSummary{}, false, errs.NewNotFound("project")
	}

	if existing := s.findLocked(projectID, address); existing != nil {
		existing.Amount += amount
		if message != "" {
			existing.Message = message
		}
		existing.UpdatedAt = time.Now().UTC()

		// Supporter already counted; only the running total moves.
		project.TotalSignal += amount

		return cloneSignal(existing), project.Summary(), false, nil
	}

	signal := &models.Signal{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Address:   address,
		Amount:    amount,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.state.signals[signal.ID] = signal

	project.SupportCount++
	project.TotalSignal += amount

	return cloneSignal(signal), project.Summary(), true, nil
}

// Remove deletes the live signal for a (project, address) pair and decrements
// the project's counters, floored at zero to guard against drift.
func (s *SignalStore) Remove(projectID, address string) (string, error) {
	address = models.NormalizeAddress(address)

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	project, ok := s.state.projects[projectID]
	if !ok {
		return "", errs.NewNotFound("project")
	}

	signal := s.findLocked(projectID, address)
	if signal == nil {
		return "", errs.NewNotFound("signal")
	}

	project.SupportCount--
	if project.SupportCount < 0 {
		project.SupportCount = 0
	}
	project.TotalSignal -= signal.Amount
	if project.TotalSignal < 0 {
		project.TotalSignal = 0
	}
	delete(s.state.signals, signal.ID)

	return signal.ID, nil
}

// SupporterActivity aggregates every live signal by an address across all
// projects, newest first, annotated with the referenced project's name and
// category. Project fields are simply absent if the project no longer exists.
func (s *SignalStore) SupporterActivity(address string) (signals []models.SupporterSignal, projects, totalAmount int) {
	address = models.NormalizeAddress(address)

	s.state.mu.RLock()
	signals = make([]models.SupporterSignal, 0)
	seen := make(map[string]struct{})
	for _, sig := range s.state.signals {
		if sig.Address != address {
			continue
		}
		annotated := models.SupporterSignal{Signal: *cloneSignal(sig)}
		if project, ok := s.state.projects[sig.ProjectID]; ok {
			annotated.ProjectName = project.Name
			annotated.ProjectCategory = project.Category
		}
		signals = append(signals, annotated)
		seen[sig.ProjectID] = struct{}{}
		totalAmount += sig.Amount
	}
	s.state.mu.RUnlock()

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].CreatedAt.After(signals[j].CreatedAt)
	})
	return signals, len(seen), totalAmount
}

// RecentForProject returns up to limit signals for a project, newest first.
func (s *SignalStore) RecentForProject(projectID string, limit int) []models.Signal {
	s.state.mu.RLock()
	signals := make([]models.Signal, 0)
	for _, sig := range s.state.signals {
		if sig.ProjectID == projectID {
			signals = append(signals, *cloneSignal(sig))
		}
	}
	s.state.mu.RUnlock()

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].CreatedAt.After(signals[j].CreatedAt)
	})
	if limit > 0 && len(signals) > limit {
		signals = signals[:limit]
	}
	return signals
}

// findLocked scans for the live signal of a (project, address) pair.
// Caller must hold the state mutex.
func (s *SignalStore) findLocked(projectID, address string) *models.Signal {
	for _, sig := range s.state.signals {
		if sig.ProjectID == projectID && sig.Address == address {
			return sig
		}
	}
	return nil
}
