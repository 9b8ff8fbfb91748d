package config

import (
	"sort"
	"strings"
)

func Normalize(m Manifest) Manifest {
	if m.Version == 0 {
		m.Version = SchemaVersion
	}
	if m.HostConfig == "" {
		m.HostConfig = DefaultHostConfig
	}
	for i := range m.Servers {
		m.Servers[i].ID = strings.TrimSpace(m.Servers[i].ID)
		m.Servers[i].Constraint = strings.TrimSpace(m.Servers[i].Constraint)
		m.Servers[i].Pin = strings.TrimSpace(m.Servers[i].Pin)
	}
	sort.Slice(m.Servers, func(i, j int) bool { return m.Servers[i].ID < m.Servers[j].ID })
	return m
}
