package extract

// LinkSet is an ordered set of links: iteration follows first insertion and
// duplicates collapse. The zero value is ready to use.
type LinkSet struct {
	seen  map[string]struct{}
	links []string
}

// Add inserts link and reports whether it was not already present.
func (s *LinkSet) Add(link string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	s.links = append(s.links, link)
	return true
}

// AddAll inserts links in order and returns how many were new.
func (s *LinkSet) AddAll(links []string) int {
	n := 0
	for _, link := range links {
		if s.Add(link) {
			n++
		}
	}
	return n
}

// Contains reports whether link is in the set.
func (s *LinkSet) Contains(link string) bool {
	_, ok := s.seen[link]
	return ok
}

// Len returns the number of distinct links.
func (s *LinkSet) Len() int {
	return len(s.links)
}

// Links returns a copy of the links in first-insertion order.
func (s *LinkSet) Links() []string {
	out := make([]string, len(s.links))
	copy(out, s.links)
	return out
}
