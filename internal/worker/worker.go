// Package worker — фоновые задачи сервиса.
package worker

import "context"

// Worker — долгоживущая фоновая задача.
type Worker interface {
	Name() string
	// Run блокируется до отмены ctx или неустранимой ошибки.
	Run(ctx context.Context) error
}
