// Package cryptox derives and checks password verifiers. Passwords are never
// stored; only a salted argon2id digest in PHC string form.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32

	// argon2MaxMemory caps the m= parameter (KiB) accepted from a stored
	// verifier.
	argon2MaxMemory = 1 << 20
)

var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Hasher turns passwords into verifiers and checks candidates against them.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify returns (false, nil) on mismatch and an error only when the
	// stored verifier cannot be parsed.
	Verify(password, encoded string) (bool, error)
}

type Argon2idHasher struct {
	rand func([]byte) (int, error)
}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{rand: rand.Read}
}

// Hash returns $argon2id$v=19$m=65536,t=1,p=4$<salt>$<digest>.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := h.rand(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(password, encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(candidate, p.key) == 1, nil
}

type phcParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parsePHC(encoded string) (*phcParams, error) {
	invalid := oops.Code("AUTH_INVALID_HASH")

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, invalid.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, invalid.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, invalid.Wrap(err)
	}
	if version != argon2.Version {
		return nil, invalid.Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, invalid.Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, invalid.Errorf("threads value %d out of range", threads)
	}
	if time == 0 {
		return nil, invalid.Errorf("time value must be positive")
	}
	if memory < 8*threads || memory > argon2MaxMemory {
		return nil, invalid.Errorf("memory value %d out of range", memory)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, invalid.Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, invalid.Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, invalid.Errorf("invalid hash key length: %d", len(key))
	}

	return &phcParams{memory: memory, time: time, threads: uint8(threads), salt: salt, key: key}, nil
}
