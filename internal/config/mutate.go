package config

import "fmt"

func AddServer(m *Manifest, entry ServerEntry) error {
	if m == nil {
		return fmt.Errorf("CFG_SERVER: nil manifest")
	}
	for _, existing := range m.Servers {
		if existing.ID == entry.ID {
			return fmt.Errorf("CFG_SERVER: server %q already added", entry.ID)
		}
	}
	m.Servers = append(m.Servers, entry)
	*m = Normalize(*m)
	return Validate(*m)
}

func RemoveServer(m *Manifest, id string) error {
	if m == nil {
		return fmt.Errorf("CFG_SERVER: nil manifest")
	}
	for i, e := range m.Servers {
		if e.ID == id {
			m.Servers = append(m.Servers[:i], m.Servers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("CFG_SERVER: server %q not found", id)
}

func FindServer(m Manifest, id string) (ServerEntry, bool) {
	for _, e := range m.Servers {
		if e.ID == id {
			return e, true
		}
	}
	return ServerEntry{}, false
}

// ReplaceServer swaps an existing entry in place.
func ReplaceServer(m *Manifest, entry ServerEntry) error {
	if m == nil {
		return fmt.Errorf("CFG_SERVER: nil manifest")
	}
	for i := range m.Servers {
		if m.Servers[i].ID == entry.ID {
			m.Servers[i] = entry
			*m = Normalize(*m)
			return Validate(*m)
		}
	}
	return fmt.Errorf("CFG_SERVER: server %q not found", entry.ID)
}
