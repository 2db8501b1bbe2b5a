package jwtx

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aussiebroadwan/petbook/pkg/cryptox"
)

// KeyManager owns the signing keys for the PetBook API and the KeySet used
// to verify and publish them. Tokens are signed by a randomly chosen
// active key.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	mu      sync.RWMutex
	signers []*Signer
}

// Options configures a KeyManager.
type Options struct {
	Issuer   string
	Audience []string

	// NumKeys is the number of active signing keys. Defaults to 2, capped at 10.
	NumKeys int
}

func (o *Options) normalize() error {
	if o.Issuer == "" {
		return errors.New("jwtx: Issuer is required")
	}
	if o.NumKeys <= 0 {
		o.NumKeys = 2
	}
	if o.NumKeys > 10 {
		o.NumKeys = 10
	}
	return nil
}

// NewEphemeralKeyManager generates in-memory keys. Every issued token
// becomes invalid when the process restarts.
func NewEphemeralKeyManager(opts Options) (*KeyManager, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	km := &KeyManager{KeySet: NewKeySet()}
	for i := 0; i < opts.NumKeys; i++ {
		_, signer, err := newSigner()
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate signer %d: %w", i+1, err)
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}
	km.Verifier = NewVerifier(km.KeySet, opts.Issuer, opts.Audience)
	return km, nil
}

// SigningKeyRecord is a signing key as persisted by a KeyStore. The private
// key is sealed PKCS8 PEM.
type SigningKeyRecord struct {
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time
	RetiredAt           *time.Time
}

// Active reports whether the key may still sign.
func (r SigningKeyRecord) Active() bool { return r.RetiredAt == nil }

// KeyStore is the persistence needed by NewPersistentKeyManager.
type KeyStore interface {
	// ListSigningKeys returns every key, retired ones included, oldest first.
	ListSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// NewPersistentKeyManager loads keys from store, opening each with sealer.
// Retired keys only verify. New keys are generated and stored until
// opts.NumKeys active keys exist.
func NewPersistentKeyManager(ctx context.Context, store KeyStore, sealer *cryptox.Sealer, opts Options) (*KeyManager, error) {
	if store == nil || sealer == nil {
		return nil, errors.New("jwtx: store and sealer are required")
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	records, err := store.ListSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing keys: %w", err)
	}

	km := &KeyManager{KeySet: NewKeySet()}
	for _, rec := range records {
		if rec.Algorithm != AlgorithmEdDSA {
			return nil, fmt.Errorf("jwtx: key %s: unsupported algorithm %q", rec.Kid, rec.Algorithm)
		}
		pemData, err := sealer.Open(rec.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("jwtx: open key %s: %w", rec.Kid, err)
		}
		signer, err := NewSigner(rec.Kid, pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: key %s: %w", rec.Kid, err)
		}

		if rec.Active() {
			if err := km.AddSigner(signer); err != nil {
				return nil, err
			}
		} else if err := km.KeySet.AddSigner(signer); err != nil {
			return nil, err
		}
	}

	for km.NumSigners() < opts.NumKeys {
		pemData, signer, err := newSigner()
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key: %w", err)
		}
		sealed, err := sealer.Seal(pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: seal key: %w", err)
		}
		rec := SigningKeyRecord{
			Kid:                 signer.KID(),
			Algorithm:           AlgorithmEdDSA,
			PrivateKeyEncrypted: sealed,
			CreatedAt:           time.Now().UTC(),
		}
		if err := store.CreateSigningKey(ctx, rec); err != nil {
			return nil, fmt.Errorf("jwtx: store key: %w", err)
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}

	km.Verifier = NewVerifier(km.KeySet, opts.Issuer, opts.Audience)
	return km, nil
}

func newSigner() ([]byte, *Signer, error) {
	kid, err := generateKeyID()
	if err != nil {
		return nil, nil, err
	}
	pemData, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, nil, err
	}
	signer, err := NewSigner(kid, pemData)
	if err != nil {
		return nil, nil, err
	}
	return pemData, signer, nil
}

func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady() && km.NumSigners() > 0
}

// GetSigner returns a random active signer, or nil if there is none.
func (km *KeyManager) GetSigner() *Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner makes signer active for signing and verification.
func (km *KeyManager) AddSigner(signer *Signer) error {
	if signer == nil {
		return errors.New("jwtx: signer cannot be nil")
	}
	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("jwtx: add signer to keyset: %w", err)
	}
	km.signers = append(km.signers, signer)
	return nil
}

// Sign signs claims with a random active key.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	s := km.GetSigner()
	if s == nil {
		return "", errors.New("jwtx: no active signing key")
	}
	return s.Sign(claims)
}

// generateKeyID returns "petbook-<128-bit token>".
func generateKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("jwtx: generate key id: %w", err)
	}
	return "petbook-" + token, nil
}
