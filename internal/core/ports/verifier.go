package ports

// Verifier defines the interface for checking that files exist.
//
//go:generate mockgen -destination=mocks/verifier_mock.go -package=mocks -source=verifier.go
type Verifier interface {
	// Missing returns the paths that do not exist below root.
	Missing(root string, paths []string) ([]string, error)
}
