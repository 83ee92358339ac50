package resource

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// Test models

type Comment struct {
	ID   int    `jsonapi:"primary,comments"`
	Text string `jsonapi:"attr,text"`
}

type Author struct {
	ID    int     `jsonapi:"primary,people"`
	Name  string  `jsonapi:"attr,name"`
	Posts []*Post `jsonapi:"relation,posts,omitempty"`
}

type Post struct {
	ID       int        `jsonapi:"primary,posts"`
	Title    string     `jsonapi:"attr,title"`
	Views    int        `jsonapi:"attr,views,omitempty"`
	Author   *Author    `jsonapi:"relation,author"`
	Comments []*Comment `jsonapi:"relation,comments"`
}

// Venue is a composite attribute payload carried through json tags.
type Venue struct {
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

type Event struct {
	ID    uuid.UUID `jsonapi:"primary,events"`
	At    time.Time `jsonapi:"attr,at"`
	Tags  []string  `jsonapi:"attr,tags,omitempty"`
	Venue Venue     `jsonapi:"attr,venue,omitempty"`
	Note  string    `jsonapi:"-"`
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	MustRegister[Post](r)
	MustRegister[Author](r)
	MustRegister[Comment](r)
	return r
}

func intPtr(i int) *int { return &i }
