package ports

// Cleaner defines the interface for removing generated outputs.
//
//go:generate mockgen -source=cleaner.go -destination=mocks/mock_cleaner.go -package=mocks
type Cleaner interface {
	// Remove deletes root-relative paths and returns those that existed.
	Remove(root string, paths []string) ([]string, error)
}
