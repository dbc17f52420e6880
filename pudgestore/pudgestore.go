// Package pudgestore persists credentials in an embedded pudge key-value
// file. It implements the authenticator.CredentialStore contract for hosts
// that need credentials to survive restarts.
package pudgestore

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/recoilme/pudge"

	"github.com/splitsecure/go-ctap2-authenticator/authenticator"
	"github.com/splitsecure/go-ctap2-authenticator/ctap2"
	"github.com/splitsecure/go-ctap2-authenticator/passkey"
)

// Store is a file-backed CredentialStore. A single mutex serializes all
// access, which provides the write atomicity the authenticator core
// requires.
type Store struct {
	mu   sync.Mutex
	db   *pudge.Db
	path string

	// maxCredentials bounds the store; zero means unbounded.
	maxCredentials int
	seq            uint64
}

// record is the at-rest shape of one credential. seq preserves creation
// order so multi-match lookups can keep returning the most recent first.
type record struct {
	Credential passkey.Credential                  `cbor:"1,keyasint"`
	User       ctap2.PublicKeyCredentialUserEntity `cbor:"2,keyasint,omitempty"`
	Seq        uint64                              `cbor:"3,keyasint"`
}

type option struct {
	apply func(*Store)
}

func newoption(fn func(*Store)) option {
	return option{apply: fn}
}

// WithMaxCredentials bounds the number of stored credentials; Save fails
// with CTAP2_ERR_KEY_STORE_FULL beyond it.
func WithMaxCredentials(n int) option {
	return newoption(func(s *Store) {
		s.maxCredentials = n
	})
}

// Open opens or creates the store file at path.
func Open(path string, options ...option) (*Store, error) {
	db, err := pudge.Open(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening credential store %q", path)
	}

	s := &Store{db: db, path: path}
	for _, option := range options {
		option.apply(s)
	}

	if err := s.loadSeq(); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("opened credential store", "path", path)
	return s, nil
}

// Close flushes and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Remove deletes the underlying file. Test helper.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteFile()
}

func (s *Store) FindCredentials(_ context.Context, ids []ctap2.PublicKeyCredentialDescriptor, rpID string) ([]*passkey.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.scan(rpID, ids)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Seq > records[j].Seq })

	out := make([]*passkey.Credential, 0, len(records))
	for i := range records {
		out = append(out, &records[i].Credential)
	}
	return out, nil
}

func (s *Store) SaveCredential(_ context.Context, cred *passkey.Credential, user ctap2.PublicKeyCredentialUserEntity, _ ctap2.PublicKeyCredentialRpEntity, _ ctap2.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A discoverable credential replaces the previous one for the same RP
	// and account.
	if cred.UserHandle != nil {
		existing, err := s.scan(cred.RPID, nil)
		if err != nil {
			return err
		}
		for i := range existing {
			if bytes.Equal(existing[i].Credential.UserHandle, cred.UserHandle) {
				if err := s.db.Delete(existing[i].Credential.CredentialID); err != nil {
					return errors.Wrap(err, "removing superseded credential")
				}
			}
		}
	}

	if s.maxCredentials > 0 {
		count, err := s.db.Count()
		if err != nil {
			return errors.Wrap(err, "counting credentials")
		}
		has, err := s.db.Has(cred.CredentialID)
		if err != nil {
			return errors.Wrap(err, "checking credential id")
		}
		if count >= s.maxCredentials && !has {
			return ctap2.StatusKeyStoreFull
		}
	}

	s.seq++
	return s.put(record{Credential: *cred, User: user, Seq: s.seq})
}

func (s *Store) UpdateCredential(_ context.Context, cred *passkey.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.get(cred.CredentialID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ctap2.StatusNoCredentials
	}

	existing.Credential = *cred
	return s.put(*existing)
}

func (s *Store) Info() authenticator.StoreInfo {
	return authenticator.StoreInfo{Discoverability: authenticator.DiscoverabilityFull}
}

func (s *Store) put(rec record) error {
	value, err := ctap2.EncMode.Marshal(&rec)
	if err != nil {
		return errors.Wrap(err, "encoding credential record")
	}
	if err := s.db.Set(rec.Credential.CredentialID, value); err != nil {
		return errors.Wrap(err, "writing credential record")
	}
	return nil
}

func (s *Store) get(credentialID []byte) (*record, error) {
	var value []byte
	err := s.db.Get(credentialID, &value)
	if err == pudge.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading credential record")
	}

	rec := record{}
	if err := cbor.Unmarshal(value, &rec); err != nil {
		return nil, errors.Wrap(err, "decoding credential record")
	}
	return &rec, nil
}

func (s *Store) scan(rpID string, ids []ctap2.PublicKeyCredentialDescriptor) ([]record, error) {
	keys, err := s.db.Keys(nil, 0, 0, true)
	if err != nil {
		return nil, errors.Wrap(err, "listing credential ids")
	}

	records := []record{}
	for _, key := range keys {
		rec, err := s.get(key)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.Credential.RPID != rpID {
			continue
		}
		if len(ids) > 0 && !descriptorsContain(ids, rec.Credential.CredentialID) {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (s *Store) loadSeq() error {
	keys, err := s.db.Keys(nil, 0, 0, true)
	if err != nil {
		return errors.Wrap(err, "listing credential ids")
	}
	for _, key := range keys {
		rec, err := s.get(key)
		if err != nil {
			return err
		}
		if rec != nil && rec.Seq > s.seq {
			s.seq = rec.Seq
		}
	}
	return nil
}

func descriptorsContain(ids []ctap2.PublicKeyCredentialDescriptor, credentialID []byte) bool {
	for _, desc := range ids {
		if bytes.Equal(desc.ID, credentialID) {
			return true
		}
	}
	return false
}
