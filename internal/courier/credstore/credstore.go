// Package credstore implements the durable credential store for tenant sessions.
// Each tenant owns one directory under the store root holding an opaque credential
// blob maintained by the protocol engine. The store tracks a resolved-identity
// marker inside the blob so boot restore can tell completed logins from partial ones.
package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/bizline/bizline/internal/common/apperrors"
)

// BlobFileName is the credential blob file within each tenant directory.
// The protocol engine reads and writes its own key material here.
const BlobFileName = "creds.json"

// identityKey is the resolved-identity marker written on first successful open.
const identityKey = "identity"

// Store provides access to per-tenant credential directories under a single root.
type Store struct {
	root string
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Dir returns the credential directory for a tenant.
func (s *Store) Dir(tenantID string) string {
	return filepath.Join(s.root, tenantID)
}

func validTenantID(tenantID string) bool {
	if tenantID == "" || tenantID == "." || tenantID == ".." {
		return false
	}
	return !strings.ContainsAny(tenantID, `/\`)
}

// Ensure creates the tenant's credential directory and an empty blob if absent.
// Returns the directory path.
func (s *Store) Ensure(tenantID string) (string, apperrors.Error) {
	if !validTenantID(tenantID) {
		return "", ErrInvalidTenantID
	}
	dir := s.Dir(tenantID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", ErrStoreIO.MsgErr("unable to create credential directory", err)
	}
	blobPath := filepath.Join(dir, BlobFileName)
	if _, err := os.Stat(blobPath); os.IsNotExist(err) {
		if err := os.WriteFile(blobPath, []byte("{}"), 0600); err != nil {
			return "", ErrStoreIO.MsgErr("unable to create credential blob", err)
		}
	}
	return dir, nil
}

// Read returns the tenant's credential blob.
func (s *Store) Read(tenantID string) ([]byte, apperrors.Error) {
	if !validTenantID(tenantID) {
		return nil, ErrInvalidTenantID
	}
	blob, err := os.ReadFile(filepath.Join(s.Dir(tenantID), BlobFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, ErrStoreIO.MsgErr("unable to read credential blob", err)
	}
	return blob, nil
}

// Identity returns the resolved-identity marker from the tenant's blob,
// or the empty string if the marker is absent or the blob is unreadable.
func (s *Store) Identity(tenantID string) string {
	blob, err := s.Read(tenantID)
	if err != nil {
		return ""
	}
	return gjson.GetBytes(blob, identityKey).String()
}

// SetIdentity writes the resolved-identity marker into the tenant's blob.
// Called once per session on first successful open.
func (s *Store) SetIdentity(tenantID, identity string) apperrors.Error {
	blob, apperr := s.Read(tenantID)
	if apperr != nil {
		return apperr
	}
	if !json.Valid(blob) {
		return ErrCorruptCredentials
	}
	updated, err := sjson.SetBytes(blob, identityKey, identity)
	if err != nil {
		return ErrStoreIO.MsgErr("unable to update credential blob", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(tenantID), BlobFileName), updated, 0600); err != nil {
		return ErrStoreIO.MsgErr("unable to write credential blob", err)
	}
	return nil
}

// HasCompletedLogin reports whether the tenant's blob carries the
// resolved-identity marker, i.e. a prior login actually completed.
func (s *Store) HasCompletedLogin(tenantID string) bool {
	return s.Identity(tenantID) != ""
}

// Erase removes the tenant's credential directory. Erasing an absent
// directory is not an error.
func (s *Store) Erase(tenantID string) apperrors.Error {
	if !validTenantID(tenantID) {
		return ErrInvalidTenantID
	}
	if err := os.RemoveAll(s.Dir(tenantID)); err != nil {
		return ErrStoreIO.MsgErr("unable to erase credentials", err)
	}
	return nil
}

// List returns the tenant ids with a credential directory under the root.
func (s *Store) List() ([]string, apperrors.Error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ErrStoreIO.MsgErr("unable to list credential store", err)
	}
	var tenants []string
	for _, e := range entries {
		if e.IsDir() {
			tenants = append(tenants, e.Name())
		}
	}
	return tenants, nil
}
