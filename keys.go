package jwtauth

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// LoadKeys reads PEM key files. An empty path leaves that half of the keypair untouched.
//
// The private key is read and stored first, so a failure reading the public key leaves a
// newly loaded private key in place. Read failures wrap both [ErrKeyRead] and the
// underlying *fs.PathError. The contents are not parsed here; an unusable key surfaces
// as [ErrSigning] or [ErrNotConfigured] when it is first used.
func (s *Service) LoadKeys(privatePath, publicPath string) error {
	if s == nil {
		return ErrServiceNotReady
	}

	if privatePath != "" {
		data, err := os.ReadFile(privatePath)
		if err != nil {
			return s.keyReadFailed("private", privatePath, err)
		}
		s.mu.Lock()
		s.privateKey = data
		s.mu.Unlock()
		s.logger.Info("loaded private key", zap.String("path", privatePath))
	}

	if publicPath != "" {
		data, err := os.ReadFile(publicPath)
		if err != nil {
			return s.keyReadFailed("public", publicPath, err)
		}
		s.mu.Lock()
		s.publicKey = data
		s.mu.Unlock()
		s.logger.Info("loaded public key", zap.String("path", publicPath))
	}

	if privatePath != "" || publicPath != "" {
		s.emitAudit(context.Background(), auditEventKeysLoaded, true, auditSubject{}, nil, func() map[string]string {
			return map[string]string{
				"private_path": privatePath,
				"public_path":  publicPath,
			}
		})
	}
	return nil
}

func (s *Service) keyReadFailed(which, path string, err error) error {
	s.logger.Error("key read failed", zap.String("key", which), zap.String("path", path), zap.Error(err))
	wrapped := fmt.Errorf("%w: %s key: %w", ErrKeyRead, which, err)
	s.emitAudit(context.Background(), auditEventKeyLoadFailure, false, auditSubject{}, wrapped, func() map[string]string {
		return map[string]string{
			"key":  which,
			"path": path,
		}
	})
	return wrapped
}
