// Package remotestorage uploads published manifests and database backups to
// a remote key/value store.
//
// Two backends exist: an HTTP service that accepts JSON records on
// PUT {url}/storage with a bearer token, and Redis, where each record becomes
// one hash. Callers depend only on the Storage interface. When no backend is
// configured New returns a Storage that rejects every upload with
// ErrInvalidConfiguration.
package remotestorage
