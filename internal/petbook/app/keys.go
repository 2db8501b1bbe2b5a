package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/cryptox"
	"github.com/aussiebroadwan/petbook/pkg/jwtx"
)

// InitKeys creates the KeyManager for the configured storage mode.
//
//   - "ephemeral": keys live in memory and every token dies with the
//     process.
//   - "persistent": keys are sealed with the master key and stored in the
//     database, so tokens survive restarts.
func InitKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.Options{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		NumKeys:  cfg.NumKeys,
	}

	if cfg.KeyStorageMode == "persistent" {
		sealer, err := cryptox.LoadSealer(cfg.MasterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load master key: %w", err)
		}
		km, err := jwtx.NewPersistentKeyManager(ctx, store.NewKeyStoreAdapter(db), sealer, opts)
		if err != nil {
			return nil, fmt.Errorf("persistent key manager: %w", err)
		}
		logger.Info("persistent signing keys loaded", "num_keys", km.NumSigners(), "issuer", cfg.Issuer)
		return km, nil
	}

	km, err := jwtx.NewEphemeralKeyManager(opts)
	if err != nil {
		return nil, fmt.Errorf("ephemeral key manager: %w", err)
	}
	logger.Info("generated ephemeral signing keys", "num_keys", km.NumSigners(), "issuer", cfg.Issuer)
	logger.Warn("signing keys are ephemeral, tokens issued before this start are invalid")
	return km, nil
}
