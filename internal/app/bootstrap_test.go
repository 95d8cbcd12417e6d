package app_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/Gunvolt24/storefront-sync/internal/app"
	"github.com/Gunvolt24/storefront-sync/internal/ports/mocks"
)

// логгер-заглушка
type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

func TestAppRun_GracefulShutdown(t *testing.T) {
	// HTTP-сервер на случайном свободном порту
	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}

	ctrl := gomock.NewController(t)
	consumer := mocks.NewMockMessageConsumer(ctrl)
	consumer.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	consumer.EXPECT().Close().Return(nil)

	a := &app.App{
		Logger:        nopLogger{},
		HTTPServer:    srv,
		KafkaConsumer: consumer,
	}

	// Запуск и быстрая остановка
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

// фейковые воркеры: ждут отмены общего контекста
type fakeWorkers struct{ stopped int32 }

func (f *fakeWorkers) Run(ctx context.Context) error {
	<-ctx.Done()
	atomic.StoreInt32(&f.stopped, 1)
	return nil
}

func TestAppRun_WithoutKafka_StopsWorkers(t *testing.T) {
	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}
	fw := &fakeWorkers{}
	a := &app.App{
		Logger:     nopLogger{},
		HTTPServer: srv,
		Workers:    fw,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&fw.stopped) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("workers should stop on shutdown")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
