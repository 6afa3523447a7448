package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/MrEthical07/jwtauth"
	"github.com/MrEthical07/jwtauth/storage"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	privPEM []byte
	pubPEM  []byte
	keyErr  error
)

func keyPair(t *testing.T) ([]byte, []byte) {
	t.Helper()
	keyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			keyErr = err
			return
		}
		pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			keyErr = err
			return
		}
		privPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
		pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})
	})
	require.NoError(t, keyErr)
	return privPEM, pubPEM
}

func newService(t *testing.T, configure func(*jwtauth.Builder)) *jwtauth.Service {
	t.Helper()
	priv, pub := keyPair(t)
	b := jwtauth.New().WithKeyPair(priv, pub).WithStorage(storage.NewMemoryStore())
	if configure != nil {
		configure(b)
	}
	svc, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}
