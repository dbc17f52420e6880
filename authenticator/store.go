package authenticator

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// DiscoverabilitySupport is a store's capability for discoverable (resident)
// credentials.
type DiscoverabilitySupport int

const (
	// DiscoverabilityFull stores both discoverable and non-discoverable
	// credentials.
	DiscoverabilityFull DiscoverabilitySupport = iota
	// DiscoverabilityOnlyNonDiscoverable refuses resident-key requests.
	DiscoverabilityOnlyNonDiscoverable
	// DiscoverabilityForcedDiscoverable stores every credential as
	// discoverable regardless of the requested options.
	DiscoverabilityForcedDiscoverable
)

// StoreInfo describes a credential store's capabilities.
type StoreInfo struct {
	Discoverability DiscoverabilitySupport
}

// SupportsDiscoverable reports whether resident-key requests can be honored.
func (s StoreInfo) SupportsDiscoverable() bool {
	return s.Discoverability != DiscoverabilityOnlyNonDiscoverable
}

// CredentialStore is the durable-credential collaborator contract.
//
// Implementations must serialize concurrent mutations of the same credential
// record; the core performs read-modify-write of the signature counter and
// relies on Save/Update being effectively atomic. Errors that are
// ctap2.StatusCode values pass through to the host unchanged.
type CredentialStore interface {
	// FindCredentials returns the credentials bound to rpID, restricted to
	// the given descriptors when ids is non-empty. Results are ordered most
	// recently created first; the caller only ever surfaces the first one.
	FindCredentials(ctx context.Context, ids []ctap2.PublicKeyCredentialDescriptor, rpID string) ([]*passkey.Credential, error)

	// SaveCredential persists a newly created credential. It fails with
	// ctap2.StatusKeyStoreFull when capacity is exhausted.
	SaveCredential(ctx context.Context, cred *passkey.Credential, user ctap2.PublicKeyCredentialUserEntity, rp ctap2.PublicKeyCredentialRpEntity, options ctap2.Options) error

	// UpdateCredential replaces the stored record with the same credential
	// id.
	UpdateCredential(ctx context.Context, cred *passkey.Credential) error

	// Info reports the store's capabilities.
	Info() StoreInfo
}

// MemoryStore is an in-memory CredentialStore, primarily for hosts embedding
// a virtual authenticator and for tests. A single mutex serializes all
// access, which also provides the per-credential write atomicity the core
// requires.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	seq      uint64
	items    map[string]memoryItem
}

type memoryItem struct {
	cred passkey.Credential
	user ctap2.PublicKeyCredentialUserEntity
	seq  uint64
}

// NewMemoryStore returns an empty, unbounded store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

// SetCapacity bounds the number of stored credentials. Zero means unbounded.
func (s *MemoryStore) SetCapacity(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacity = n
}

// Len reports the number of stored credentials.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns a copy of the credential with the given id, if present.
func (s *MemoryStore) Get(credentialID []byte) (passkey.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[string(credentialID)]
	return item.cred, ok
}

// Insert places a credential directly into the store, bypassing the Save
// bookkeeping. Intended for seeding tests.
func (s *MemoryStore) Insert(cred passkey.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.items[string(cred.CredentialID)] = memoryItem{cred: cred, seq: s.seq}
}

func (s *MemoryStore) FindCredentials(_ context.Context, ids []ctap2.PublicKeyCredentialDescriptor, rpID string) ([]*passkey.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := []memoryItem{}
	for _, item := range s.items {
		if item.cred.RPID != rpID {
			continue
		}
		if len(ids) > 0 && !descriptorsContain(ids, item.cred.CredentialID) {
			continue
		}
		matches = append(matches, item)
	}

	// Most recently created first. With one credential per account this is
	// the documented multi-match policy, not a protocol mandate.
	sort.Slice(matches, func(i, j int) bool { return matches[i].seq > matches[j].seq })

	out := make([]*passkey.Credential, 0, len(matches))
	for _, item := range matches {
		cred := item.cred
		out = append(out, &cred)
	}
	return out, nil
}

func (s *MemoryStore) SaveCredential(_ context.Context, cred *passkey.Credential, user ctap2.PublicKeyCredentialUserEntity, _ ctap2.PublicKeyCredentialRpEntity, _ ctap2.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A discoverable credential for the same RP and account replaces the
	// previous one rather than accumulating.
	if cred.UserHandle != nil {
		for id, item := range s.items {
			if item.cred.RPID == cred.RPID && bytes.Equal(item.cred.UserHandle, cred.UserHandle) {
				delete(s.items, id)
			}
		}
	}

	if s.capacity > 0 && len(s.items) >= s.capacity {
		if _, exists := s.items[string(cred.CredentialID)]; !exists {
			return ctap2.StatusKeyStoreFull
		}
	}

	s.seq++
	s.items[string(cred.CredentialID)] = memoryItem{cred: *cred, user: user, seq: s.seq}
	return nil
}

func (s *MemoryStore) UpdateCredential(_ context.Context, cred *passkey.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[string(cred.CredentialID)]
	if !ok {
		return ctap2.StatusNoCredentials
	}
	item.cred = *cred
	s.items[string(cred.CredentialID)] = item
	return nil
}

func (s *MemoryStore) Info() StoreInfo {
	return StoreInfo{Discoverability: DiscoverabilityFull}
}

func descriptorsContain(ids []ctap2.PublicKeyCredentialDescriptor, credentialID []byte) bool {
	for _, desc := range ids {
		if bytes.Equal(desc.ID, credentialID) {
			return true
		}
	}
	return false
}
