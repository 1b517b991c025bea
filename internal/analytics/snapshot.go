package analytics

import (
	"encoding/json"
	"sort"
	"time"
)

// SessionSet is a set of session ids serialised as a sorted JSON array.
type SessionSet map[string]struct{}

func (s SessionSet) Add(id string) { s[id] = struct{}{} }

func (s SessionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s SessionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s SessionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *SessionSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	set := make(SessionSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	*s = set
	return nil
}

// Counter maps a label to a count.
type Counter map[string]int

// Snapshot is the persisted analytics document.
type Snapshot struct {
	PageViews      Counter    `json:"pageViews"`
	UniqueVisitors SessionSet `json:"uniqueVisitors"`
	Referrers      Counter    `json:"referrers"`
	Browsers       Counter    `json:"browsers"`
	Devices        Counter    `json:"devices"`
	Countries      Counter    `json:"countries"`
	Cities         Counter    `json:"cities"`
	ViewsByDay     Counter    `json:"viewsByDay"`
	ViewsByHour    Counter    `json:"viewsByHour"`
	TotalViews     int        `json:"totalViews"`
	LastUpdated    time.Time  `json:"lastUpdated,omitempty"`
}

// NewSnapshot returns an empty snapshot with every map allocated.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.normalize()
	return s
}

// normalize fills maps missing from older or partial documents.
func (s *Snapshot) normalize() {
	for _, c := range []*Counter{&s.PageViews, &s.Referrers, &s.Browsers, &s.Devices,
		&s.Countries, &s.Cities, &s.ViewsByDay, &s.ViewsByHour} {
		if *c == nil {
			*c = Counter{}
		}
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = SessionSet{}
	}
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		PageViews:      cloneCounter(s.PageViews),
		UniqueVisitors: make(SessionSet, len(s.UniqueVisitors)),
		Referrers:      cloneCounter(s.Referrers),
		Browsers:       cloneCounter(s.Browsers),
		Devices:        cloneCounter(s.Devices),
		Countries:      cloneCounter(s.Countries),
		Cities:         cloneCounter(s.Cities),
		ViewsByDay:     cloneCounter(s.ViewsByDay),
		ViewsByHour:    cloneCounter(s.ViewsByHour),
		TotalViews:     s.TotalViews,
		LastUpdated:    s.LastUpdated,
	}
	for id := range s.UniqueVisitors {
		out.UniqueVisitors.Add(id)
	}
	return out
}

func cloneCounter(c Counter) Counter {
	out := make(Counter, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Stat is one row of a ranked breakdown.
type Stat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the dashboard view of a snapshot.
type Summary struct {
	TotalViews     int       `json:"totalViews"`
	UniqueVisitors int       `json:"uniqueVisitors"`
	TopPages       []Stat    `json:"topPages"`
	TopReferrers   []Stat    `json:"topReferrers"`
	Browsers       []Stat    `json:"browsers"`
	Devices        []Stat    `json:"devices"`
	Countries      []Stat    `json:"countries"`
	ViewsByDay     Counter   `json:"viewsByDay"`
	ViewsByHour    Counter   `json:"viewsByHour"`
	LastUpdated    time.Time `json:"lastUpdated,omitempty"`
}

// Summarize ranks the snapshot's counters, keeping at most top rows each.
// top <= 0 keeps everything.
func Summarize(s *Snapshot, top int) Summary {
	return Summary{
		TotalViews:     s.TotalViews,
		UniqueVisitors: len(s.UniqueVisitors),
		TopPages:       rank(s.PageViews, top),
		TopReferrers:   rank(s.Referrers, top),
		Browsers:       rank(s.Browsers, top),
		Devices:        rank(s.Devices, top),
		Countries:      rank(s.Countries, top),
		ViewsByDay:     s.ViewsByDay,
		ViewsByHour:    s.ViewsByHour,
		LastUpdated:    s.LastUpdated,
	}
}

func rank(c Counter, top int) []Stat {
	out := make([]Stat, 0, len(c))
	for k, v := range c {
		out = append(out, Stat{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
