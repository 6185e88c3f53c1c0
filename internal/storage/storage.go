package storage

// Collection is whole-collection persistence for one JSON "table": every
// read returns the full record list, every write replaces it. Mutations go
// through Update so the read-modify-write cycle runs under the collection's
// exclusive lock and concurrent writers cannot clobber each other.
type Collection[T any] interface {
	Load() ([]T, error)
	Save(records []T) error
	Update(fn func(records []T) ([]T, error)) error
}
