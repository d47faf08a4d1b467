package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для ключа локального хранилища
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
)

// DeriveStoreKey выводит ключ шифрования токенов из passphrase.
// salt берется из конфигурации и должен быть одинаковым между запусками,
// иначе сохраненные токены не расшифруются.
func DeriveStoreKey(passphrase, salt string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if salt == "" {
		return nil, fmt.Errorf("salt cannot be empty")
	}

	return argon2.IDKey([]byte(passphrase), []byte(salt), Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}
