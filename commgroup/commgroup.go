// Package commgroup loads the JSON file describing which ranks belong to
// which communicator group, mirroring the trace-driven workload's
// initialize_comm_group step.
package commgroup

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Group is the set of ranks that participate in one communicator,
// identified by its position in the input file.
type Group struct {
	ID      int
	Members []int
}

// Contains reports whether rank is a member of g.
func (g *Group) Contains(rank int) bool {
	for _, m := range g.Members {
		if m == rank {
			return true
		}
	}
	return false
}

// Load reads filename, a JSON array of rank-ID arrays (one per group), and
// returns the Group that rank belongs to. A filename containing "empty"
// is the sentinel for "no communicator group file was given" and returns
// (nil, nil), matching the trace format's own escape hatch for workloads
// that never call into a comm group.
func Load(filename string, rank int) (*Group, error) {
	if strings.Contains(filename, "empty") {
		return nil, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("commgroup: %w", err)
	}

	var groups [][]int
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&groups); err != nil {
		return nil, fmt.Errorf("commgroup: %w", err)
	}

	for id, members := range groups {
		for _, m := range members {
			if m == rank {
				return &Group{ID: id, Members: members}, nil
			}
		}
	}

	return nil, nil
}
