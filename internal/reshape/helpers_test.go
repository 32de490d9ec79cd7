package reshape

import (
	"context"
	"errors"
	"sync"

	"github.com/foospace/sprintsync/internal/types"
)

// taskSpec describes a task record for tests; zero fields are left out of
// the property bag entirely.
type taskSpec struct {
	id        string
	number    int
	name      string
	parent    string
	assignees []string
	points    string
	project   string
	status    string
}

func taskRecord(s taskSpec) types.Record {
	props := map[string]types.Property{}
	if s.number != 0 {
		n := s.number
		props["Task ID"] = types.Property{Type: types.PropUniqueID, UniqueID: &types.UniqueID{Prefix: "TASK-", Number: &n}}
	}
	if s.name != "" {
		props["Task name"] = types.Property{Type: types.PropTitle, Title: []types.RichText{{PlainText: s.name}}}
	}
	if s.parent != "" {
		props["Parent-task"] = types.Property{Type: types.PropRelation, Relation: []types.Ref{{ID: s.parent}}}
	}
	if s.assignees != nil {
		people := make([]types.Person, len(s.assignees))
		for i := range s.assignees {
			name := s.assignees[i]
			people[i] = types.Person{Name: &name}
		}
		props["Assignee"] = types.Property{Type: types.PropPeople, People: people}
	}
	if s.points != "" {
		props["Estimates"] = types.Property{Type: types.PropSelect, Select: &types.Option{Name: s.points}}
	}
	if s.project != "" {
		props["Project"] = types.Property{Type: types.PropRelation, Relation: []types.Ref{{ID: s.project}}}
	}
	if s.status != "" {
		props["Status"] = types.Property{Type: types.PropStatus, Status: &types.Option{Name: s.status}}
	}
	return types.Record{ID: s.id, Properties: props}
}

func newExtractor() *Extractor {
	return &Extractor{
		Names:      types.DefaultPropertyNames(),
		Projects:   ProjectMap{"proj-1": "Checkout"},
		Parents:    map[string]string{},
		Department: "DTI",
		Completed:  types.NewStatusSet("Done", "Released"),
	}
}

type fakeTitles struct {
	mu     sync.Mutex
	titles map[string]string
	fail   map[string]error
	calls  map[string]int
}

func (f *fakeTitles) PageTitle(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if err, ok := f.fail[id]; ok {
		return "", err
	}
	if t, ok := f.titles[id]; ok {
		return t, nil
	}
	return "", types.ErrPageNotFound
}

var errBoom = errors.New("boom")
