package commenttree

import (
	"bytes"
	"encoding/json"
)

// KeyFunc reports the identity of a record: its own id and the id of the
// record it replies to. An empty parentID marks a top-level record.
type KeyFunc[T any] func(item T) (id, parentID string)

// Node wraps a record with the replies attached to it.
type Node[T any] struct {
	Item    T
	Replies []*Node[T]
}

// Forest is an ordered list of root nodes.
type Forest[T any] []*Node[T]

const (
	unvisited = iota
	onPath
	done
)

// Build turns a flat list of records into a forest of reply trees.
//
// Children may appear before their parents. Roots and siblings keep the
// relative order they had in items. A record whose parent is not present in
// items is treated as a root, as is a record that names itself as parent.
// When ids repeat, replies attach to the last record carrying that id. A
// parent chain that loops back on itself is cut at the member that appears
// first in items, which becomes a root.
//
// Build never fails and never modifies items.
func Build[T any](items []T, key KeyFunc[T]) Forest[T] {
	forest, _ := BuildWithReport(items, key)
	return forest
}

// BuildWithReport is Build that also describes which fallbacks were applied.
func BuildWithReport[T any](items []T, key KeyFunc[T]) (Forest[T], Report) {
	n := len(items)
	report := Report{Nodes: n}

	nodes := make([]*Node[T], n)
	ids := make([]string, n)
	parentIDs := make([]string, n)
	index := make(map[string]int, n)
	seen := make(map[string]int, n)

	for i, item := range items {
		id, parentID := key(item)
		nodes[i] = &Node[T]{Item: item, Replies: []*Node[T]{}}
		ids[i] = id
		parentIDs[i] = parentID
		index[id] = i
		seen[id]++
		if seen[id] == 2 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
	}

	// up[i] is the position of the node i attaches to, or -1 for a root.
	up := make([]int, n)
	for i := range items {
		up[i] = -1
		switch parentID := parentIDs[i]; {
		case parentID == "":
		case parentID == ids[i]:
			report.SelfParented = append(report.SelfParented, ids[i])
		default:
			p, ok := index[parentID]
			if !ok {
				report.Orphans = append(report.Orphans, ids[i])
				continue
			}
			up[i] = p
		}
	}

	report.Cycles = breakCycles(up, ids)

	roots := make(Forest[T], 0, n)
	for i, node := range nodes {
		if up[i] < 0 {
			roots = append(roots, node)
			continue
		}
		parent := nodes[up[i]]
		parent.Replies = append(parent.Replies, node)
	}
	report.Roots = len(roots)

	return roots, report
}

// breakCycles cuts every loop in the parent links so each node is reachable
// from a root. The loop member with the lowest position becomes a root.
// It returns the ids of each loop found, in parent-chain order.
func breakCycles(up []int, ids []string) [][]string {
	var cycles [][]string
	state := make([]uint8, len(up))
	path := make([]int, 0, 16)

	for i := range up {
		if state[i] != unvisited {
			continue
		}
		path = path[:0]
		j := i
		for j >= 0 && state[j] == unvisited {
			state[j] = onPath
			path = append(path, j)
			j = up[j]
		}

		if j >= 0 && state[j] == onPath {
			start := len(path) - 1
			for path[start] != j {
				start--
			}
			loop := path[start:]
			first := loop[0]
			members := make([]string, 0, len(loop))
			for _, k := range loop {
				if k < first {
					first = k
				}
				members = append(members, ids[k])
			}
			up[first] = -1
			cycles = append(cycles, members)
		}

		for _, k := range path {
			state[k] = done
		}
	}

	return cycles
}

// MarshalJSON encodes the node as its item's JSON object with an added
// "replies" array. Items that do not encode to an object are nested under
// "item".
func (n *Node[T]) MarshalJSON() ([]byte, error) {
	item, err := json.Marshal(n.Item)
	if err != nil {
		return nil, err
	}
	replies := n.Replies
	if replies == nil {
		replies = []*Node[T]{}
	}
	rep, err := json.Marshal(replies)
	if err != nil {
		return nil, err
	}

	item = bytes.TrimSpace(item)
	if len(item) < 2 || item[0] != '{' {
		return json.Marshal(struct {
			Item    json.RawMessage `json:"item"`
			Replies json.RawMessage `json:"replies"`
		}{Item: item, Replies: rep})
	}

	var buf bytes.Buffer
	buf.Grow(len(item) + len(rep) + 12)
	buf.Write(item[:len(item)-1])
	if len(bytes.TrimSpace(item[1:len(item)-1])) > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"replies":`)
	buf.Write(rep)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
