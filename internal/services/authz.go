package services

import (
	"storemaster/internal/models"
)

// Identity is the authenticated caller of a service operation.
type Identity struct {
	ID   string
	Role models.Role
}

// OwnsStore is the single ownership predicate for store-scoped resources.
func OwnsStore(identity Identity, store *models.Store) bool {
	return store != nil && identity.ID != "" && store.OwnerID == identity.ID
}
