package index

import "github.com/kithhq/kith/internal/models"

// ContactIndex defines the interface for contact indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ContactIndex interface {
	UpsertContact(row ContactRow, relations []RelationRow) error
	DeleteContact(path string) error
	GetContact(path string) (*ContactRow, error)
	GetChecksum(path string) (string, error)
	ListContacts(limit, offset int, category, sort string) ([]ContactRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Relations(source string) ([]models.Relation, error)
	RelatedTo(targets []string) ([]models.Relation, error)
	AllContacts() ([]ContactRow, error)
	AllRelations() ([]models.Relation, error)
	PathByName(fullName string) (string, error)
	PathByUID(uid string) (string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ContactIndex at compile time.
var _ ContactIndex = (*DB)(nil)
