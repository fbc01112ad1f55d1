package server

import (
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
)

func New(addr string, router *ginext.Engine) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // must outlive a slow tool invocation
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
