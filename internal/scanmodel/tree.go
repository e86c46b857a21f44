package scanmodel

// Tree is a directory discovered during a scan (including recursion
// roots), generalized away from any particular rendering: a report
// collaborator walks Children to produce whatever output format it needs.
type Tree struct {
	Name     string
	Children []*Tree
}
