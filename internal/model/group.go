package model

// LinkGroup is an ordered list of links under one key.
// For categorized links the key is the category name, for unknown links
// it is the IP address the links resolved to.
type LinkGroup struct {
	Key   string   `json:"key"`
	Links []string `json:"links"`
}

// GroupList accumulates links under keys while preserving the order in
// which keys were first seen. The zero value is ready to use.
type GroupList struct {
	index  map[string]int
	groups []LinkGroup
}

// Add appends link to the group for key, creating the group on first use.
func (g *GroupList) Add(key, link string) {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	i, ok := g.index[key]
	if !ok {
		i = len(g.groups)
		g.index[key] = i
		g.groups = append(g.groups, LinkGroup{Key: key})
	}
	g.groups[i].Links = append(g.groups[i].Links, link)
}

// Len returns the number of groups.
func (g *GroupList) Len() int {
	return len(g.groups)
}

// Groups returns a copy of the groups in first-seen order.
func (g *GroupList) Groups() []LinkGroup {
	out := make([]LinkGroup, len(g.groups))
	for i, grp := range g.groups {
		links := make([]string, len(grp.Links))
		copy(links, grp.Links)
		out[i] = LinkGroup{Key: grp.Key, Links: links}
	}
	return out
}

// countLinks returns the total number of links across groups.
func countLinks(groups []LinkGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Links)
	}
	return n
}
