package ports

import "context"

// KVStore — долговременное строковое хранилище ключ-значение.
// Переживает рестарт процесса, транзакций не даёт, запись может завершиться ошибкой.
type KVStore interface {
	// Get — (value, true, nil) при наличии ключа, ("", false, nil) при его отсутствии.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove — удаление отсутствующего ключа не ошибка.
	Remove(ctx context.Context, key string) error
	// Keys — все ключи с заданным префиксом, порядок не гарантируется.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
