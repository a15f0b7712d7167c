package store

import (
	"sync"

	"github.com/signalboard/signalboard-backend/models"
)

// state is the registry's entire dataset: two keyed collections behind one
// mutex. Sharing the mutex is what makes a project delete and its signal
// cascade, or a signal write and its counter update, atomic with respect to
// any other request.
type state struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	signals  map[string]*models.Signal
}

type Store struct {
	projectStore *ProjectStore
	signalStore  *SignalStore
}

// New initializes a Store with each sub-store sharing the same in-memory
// state. Nothing is persisted: all registry state is lost on restart.
func New() Store {
	st := &state{
		projects: make(map[string]*models.Project),
		signals:  make(map[string]*models.Signal),
	}
	return Store{
		projectStore: newProjectStore(st),
		signalStore:  newSignalStore(st),
	}
}

// Accessor methods for each sub-store

func (s Store) Projects() *ProjectStore {
	return s.projectStore
}

func (s Store) Signals() *SignalStore {
	return s.signalStore
}

// Stats holds the aggregate counters served by the stats endpoint.
type Stats struct {
	Projects    int `json:"projects"`
	Signals     int `json:"signals"`
	TotalSignal int `json:"totalSignal"`
	Supporters  int `json:"supporters"`
}

func (s Store) Stats() Stats {
	st := s.projectStore.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	stats := Stats{
		Projects: len(st.projects),
		Signals:  len(st.signals),
	}

	supporters := make(map[string]struct{})
	for _, sig := range st.signals {
		stats.TotalSignal += sig.Amount
		supporters[sig.Address] = struct{}{}
	}
	stats.Supporters = len(supporters)

	return stats
}

func cloneProject(p *models.Project) *models.Project {
	clone := *p
	clone.Tags = append([]string(nil), p.Tags...)
	return &clone
}

func cloneSignal(s *models.Signal) *models.Signal {
	clone := *s
	return &clone
}
