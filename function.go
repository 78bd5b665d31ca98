// Package pushrelay registers the FCM push relay as a Cloud Function.
//
// Deploy with entry point "send-push", or run locally through cmd/function.
package pushrelay

import (
	"log"
	"net/http"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"agendio-push/internal/config"
	transporthttp "agendio-push/internal/transport/http"
	authmw "agendio-push/internal/transport/http/middleware"
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Push relay config: %v", err)
	}

	pushHandler, err := transporthttp.NewPushHandler(cfg)
	if err != nil {
		log.Fatalf("Push relay init: %v", err)
	}

	var fn http.Handler = pushHandler
	if cfg.RelayJWTSecret != "" {
		fn = authmw.AuthMiddleware(cfg.RelayJWTSecret)(fn)
	}
	functions.HTTP("send-push", fn.ServeHTTP)
}
