package main

import (
	"fmt"
	"sync"

	"github.com/cairnhq/cairn/http/middleware"
)

// users holds every user the demo mints.
var users = &userStore{byID: make(map[uint]user), nextID: 1}

// A userStore keeps the demo's users in memory,
// standing in for the postgres-backed lookup a deployed app uses.
type userStore struct {
	mu     sync.Mutex
	byID   map[uint]user
	nextID uint
}

// findOrCreate returns the user known by name, minting one as needed.
func (us *userStore) findOrCreate(name string) user {
	us.mu.Lock()
	defer us.mu.Unlock()

	for _, u := range us.byID {
		if u.Name == name {
			return u
		}
	}

	u := user{ID: us.nextID, Name: name}
	us.byID[u.ID] = u
	us.nextID++

	return u
}

// get matches middleware.UserStorer so the default middleware stack
// can turn the session's user ID back into a user.
func (us *userStore) get(id uint) (middleware.User, error) {
	us.mu.Lock()
	defer us.mu.Unlock()

	u, ok := us.byID[id]
	if !ok {
		return nil, fmt.Errorf("no user %d", id)
	}

	return u, nil
}

// A user is the demo's own user type; any type answering
// HasAccess and HomePath can ride the middleware stack.
type user struct {
	ID   uint
	Name string
}

func (u user) HasAccess() bool  { return true }
func (u user) HomePath() string { return "/home" }
