package workers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/sirupsen/logrus"

	"goxrpbridge/config"
	"goxrpbridge/workers/handlers"
)

// Worker_HTTP serves the bridge API until an interrupt signal arrives,
// then shuts the server down gracefully. It blocks the calling
// goroutine; main treats its return as the exit trigger.
func Worker_HTTP(h *handlers.Handler, logger *logrus.Logger) {
	log := logger.WithField("component", "http")
	log.Info("starting HTTP service")

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Options("/*", CORSHeaders)

	r.Get("/", h.Info)
	r.Get("/state", h.State)

	r.Get("/balance/xrpl", h.BalanceXRPL)
	r.Get("/balance/evm", h.BalanceEVM)

	r.Post("/api/bridge/xrpl-to-evm", h.SubmitXRPLToEVM)
	r.Post("/api/bridge/evm-to-xrpl", h.SubmitEVMToXRPL)
	r.Get("/api/bridge/status/{requestId}", h.Status)

	r.Get("/swap/rewards/{address}", h.Rewards)

	var server *http.Server

	if config.Config.Server.UseSSL {
		cert, _ := tls.LoadX509KeyPair("certchain.pem", "privatekey.pem")
		server = &http.Server{
			Addr:    ":443",
			Handler: r,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		}
	} else {
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", config.Config.Server.Port),
			Handler: r,
		}
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if config.Config.Server.UseSSL {
			if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Fatal("error listening")
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Fatal("error listening")
			}
		}
	}()
	log.Info("HTTP service started")

	<-done
	log.Info("HTTP service stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("HTTP service shutdown error")
	}
	log.Info("HTTP service shutdown normal")
}

func CORSHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, X-Requested-With")
}
