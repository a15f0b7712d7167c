package store

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/signalboard/signalboard-backend/errs"
	"github.com/signalboard/signalboard-backend/models"
)

type ProjectStore struct {
	state *state
}

func newProjectStore(state *state) *ProjectStore {
	return &ProjectStore{state}
}

// NewProject carries the attributes of a project registration. Validation of
// required fields happens at the handler; the store normalizes and stores.
type NewProject struct {
	Name        string
	Description string
	URL         string
	Logo        string
	Category    string
	Tags        []string
	Owner       string
}

// List pagination bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// DefaultSearchLimit caps search results unless the caller asks for fewer.
const DefaultSearchLimit = 20

// ListQuery describes a filtered, sorted, paginated project listing.
// Zero values mean "no filter". Sort is one of "support", "signal",
// "oldest", "recent"; anything else sorts by most recent.
type ListQuery struct {
	Category   string
	Tag        string
	MinSupport int
	Sort       string
	Offset     int
	Limit      int
}

// Add registers a new project: assigns an identifier, coerces the category,
// truncates tags, zeroes the counters and stamps both timestamps.
func (s *ProjectStore) Add(np NewProject) *models.Project {
	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        np.Name,
		Description: np.Description,
		URL:         np.URL,
		Logo:        np.Logo,
		Category:    models.NormalizeCategory(np.Category),
		Tags:        models.TruncateTags(np.Tags),
		Owner:       models.NormalizeAddress(np.Owner),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	s.state.projects[project.ID] = project
	return cloneProject(project)
}

// FindByID returns a project by its identifier
func (s *ProjectStore) FindByID(id string) (*models.Project, error) {
	s.state.mu.RLock()
	defer s.state.mu.RUnlock()

	project, ok := s.state.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}
	return cloneProject(project), nil
}

// List applies filters, then sort, then pagination, and returns the page
// along with the pre-pagination total and the effective offset/limit.
func (s *ProjectStore) List(q ListQuery) (projects []*models.Project, total, offset, limit int) {
	offset = q.Offset
	if offset < 0 {
		offset = 0
	}
	limit = q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	s.state.mu.RLock()
	matched := make([]*models.Project, 0, len(s.state.projects))
	tag := strings.ToLower(q.Tag)
	for _, p := range s.state.projects {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if tag != "" && !containsTag(p.Tags, tag) {
			continue
		}
		if p.SupportCount < q.MinSupport {
			continue
		}
		matched = append(matched, cloneProject(p))
	}
	s.state.mu.RUnlock()

	sortProjects(matched, q.Sort)

	total = len(matched)
	if offset >= total {
		return []*models.Project{}, total, offset, limit
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, offset, limit
}

// containsTag compares stored tags verbatim against the lowercased query,
// so case-mismatched stored tags do not match. Lookup-side behavior only.
func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sortProjects(projects []*models.Project, order string) {
	switch order {
	case "support":
		sort.SliceStable(projects, func(i, j int) bool {
			return projects[i].SupportCount > projects[j].SupportCount
		})
	case "signal":
		sort.SliceStable(projects, func(i, j int) bool {
			return projects[i].TotalSignal > projects[j].TotalSignal
		})
	case "oldest":
		sort.SliceStable(projects, func(i, j int) bool {
			return projects[i].CreatedAt.Before(projects[j].CreatedAt)
		})
	default: // "recent"
		sort.SliceStable(projects, func(i, j int) bool {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		})
	}
}

// Update applies a partial update. Only fields present in the request are
// overwritten; the category is accepted only if recognized, tags are
// re-truncated. If an owner is supplied and does not match the stored owner
// the update is rejected.
func (s *ProjectStore) Update(id string, upd models.ProjectUpdate) (*models.Project, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	project, ok := s.state.projects[id]
	if !ok {
		return nil, errs.NewNotFound("project")
	}

	if upd.Owner != nil && models.NormalizeAddress(*upd.Owner) != project.Owner {
		return nil, errs.NewOwnerMismatchError()
	}

	if upd.Name != nil && *upd.Name != "" {
		project.Name = *upd.Name
	}
	if upd.Description != nil {
		project.Description = *upd.Description
	}
	if upd.URL != nil {
		project.URL = *upd.URL
	}
	if upd.Logo != nil {
		project.Logo = *upd.Logo
	}
	if upd.Category != nil && models.IsValidCategory(*upd.Category) {
		project.Category = *upd.Category
	}
	if upd.Tags != nil {
		project.Tags = models.TruncateTags(upd.Tags)
	}
	project.UpdatedAt = time.Now().UTC()

	return cloneProject(project), nil
}

// Delete removes a project and cascades to every signal referencing it.
// The owner check only runs when an owner value is supplied.
// TODO: require owner unconditionally once registered clients send it on
// every delete; today an omitted owner field bypasses the check.
func (s *ProjectStore) Delete(id string, owner *string) (removedSignals int, err error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	project, ok := s.state.projects[id]
	if !ok {
		return 0, errs.NewNotFound("project")
	}

	if owner != nil && models.NormalizeAddress(*owner) != project.Owner {
		return 0, errs.NewOwnerMismatchError()
	}

	for sigID, sig := range s.state.signals {
		if sig.ProjectID == id {
			delete(s.state.signals, sigID)
			removedSignals++
		}
	}
	delete(s.state.projects, id)

	return removedSignals, nil
}

// Search matches a query case-insensitively against project names,
// descriptions and tags, sorted by support count descending.
func (s *ProjectStore) Search(query string, limit int) []*models.Project {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(query)

	s.state.mu.RLock()
	matched := make([]*models.Project, 0)
	for _, p := range s.state.projects {
		if matchesQuery(p, q) {
			matched = append(matched, cloneProject(p))
		}
	}
	s.state.mu.RUnlock()

	sortProjects(matched, "support")
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func matchesQuery(p *models.Project, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// CategoryCounts counts live projects per category, including categories with
// zero projects, sorted by count descending.
func (s *ProjectStore) CategoryCounts() []models.CategoryCount {
	counts := make(map[string]int, len(models.Categories))

	s.state.mu.RLock()
	for _, p := range s.state.projects {
		counts[p.Category]++
	}
	s.state.mu.RUnlock()

	result := make([]models.CategoryCount, 0, len(models.Categories))
	for _, name := range models.Categories {
		result = append(result, models.CategoryCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result
}

// TagCounts counts tag occurrences across all live projects, sorted by count
// descending (name ascending on ties), limited to the top entries.
func (s *ProjectStore) TagCounts(limit int) []models.TagCount {
	counts := make(map[string]int)

	s.state.mu.RLock()
	for _, p := range s.state.projects {
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}
	s.state.mu.RUnlock()

	result := make([]models.TagCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, models.TagCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
