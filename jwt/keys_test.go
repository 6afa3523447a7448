package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
)

type testKeyPair struct {
	privatePEM []byte
	publicPEM  []byte
}

var (
	testKeysOnce sync.Once
	testKeys     [2]testKeyPair
	testKeysErr  error
)

// rsaKeys returns two distinct PEM keypairs, generated once per test binary.
func rsaKeys(t testing.TB) (testKeyPair, testKeyPair) {
	t.Helper()
	testKeysOnce.Do(func() {
		for i := range testKeys {
			testKeys[i], testKeysErr = generateKeyPair()
			if testKeysErr != nil {
				return
			}
		}
	})
	if testKeysErr != nil {
		t.Fatalf("generate rsa keys: %v", testKeysErr)
	}
	return testKeys[0], testKeys[1]
}

func generateKeyPair() (testKeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return testKeyPair{}, err
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return testKeyPair{}, err
	}
	return testKeyPair{
		privatePEM: pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		publicPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}),
	}, nil
}
