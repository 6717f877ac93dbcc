package store

import "github.com/dori/todoql/internal/model"

// Select makes the project with the given ID the active one
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return ErrProjectNotFound
	}
	s.selected = id
	return nil
}

// ClearSelection resets the active project to none
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// SelectedID returns the active project ID, or "" when nothing is selected
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Selected returns a copy of the active project
func (s *Store) Selected() (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.selected)
	if i < 0 {
		return model.Project{}, false
	}
	return s.projects[i].Clone(), true
}
