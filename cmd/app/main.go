package main

//main.go
import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cspnonce/internal/app"
	"cspnonce/internal/core"
)

func main() {
	// 1) Конфиг и логи
	cfg, err := core.Load()
	if err != nil {
		core.LogError("Ошибка конфигурации", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := core.InitLogger(cfg.Env, cfg.LogDir); err != nil {
		core.LogError("Ошибка инициализации логов", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	core.LogInfo("Конфигурация загружена", map[string]interface{}{
		"env":    cfg.Env,
		"secure": cfg.Secure,
		"static": cfg.StaticDir,
	})

	// 2) Контекст для фоновых задач (ротация логов)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.LogDir != "" {
		startLogRotation(ctx)
	}

	// 3) Приложение (хранилище + роутер)
	a, err := app.New(ctx, cfg)
	if err != nil {
		core.LogError("Ошибка инициализации приложения", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// 4) HTTP-сервер с таймаутами (OWASP A05)
	srv := core.Server(cfg, a.Handler)

	// 5) Перехват сигналов
	sigs, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6) Запуск и ожидание завершения
	runServer(srv, cfg)
	waitShutdown(sigs, srv, cfg)

	// 7) Закрытие ресурсов
	if cerr := a.Close(); cerr != nil {
		core.LogError("Ошибка закрытия ресурсов", map[string]interface{}{"error": cerr.Error()})
	}
	core.Close()
}

// startLogRotation — новые файлы логов после полуночи
func startLogRotation(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(untilMidnight(time.Now())):
				if err := core.RotateLog(); err != nil {
					core.LogError("Ошибка ротации логов", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()
}

func untilMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}

// runServer — запуск (ListenAndServe) в горутине
func runServer(srv *http.Server, cfg core.Config) {
	go func() {
		core.LogInfo("http: сервер запущен", map[string]interface{}{
			"addr": srv.Addr,
			"env":  cfg.Env,
			"app":  cfg.AppName,
		})
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			core.LogError("Ошибка работы сервера", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	}()
}

// waitShutdown — ожидание сигналов и graceful shutdown
func waitShutdown(sigs context.Context, srv *http.Server, cfg core.Config) {
	<-sigs.Done()
	core.LogInfo("http: начат процесс завершения", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		core.LogError("Ошибка завершения сервера", map[string]interface{}{"error": err.Error()})
		return
	}
	core.LogInfo("http: завершение выполнено", nil)
}
