package health

// IndexLister lists the indices the cluster holds.
type IndexLister interface {
	Indices() []string
}
