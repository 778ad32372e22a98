package web

import (
	"context"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/status"
	"github.com/mogaika/overgrowth_browser/vfs"
)

var ServerDirectory vfs.Directory
var ServerCache *pack.InstanceCache

func NewRouter(d vfs.Directory, cache *pack.InstanceCache, webPath string) *mux.Router {
	ServerDirectory = d
	ServerCache = cache

	r := mux.NewRouter()
	r.HandleFunc("/action/{file}/{action}", HandlerActionPackFile)
	r.HandleFunc("/json/formats", HandlerAjaxFormats)
	r.HandleFunc("/json/pack/{file}", HandlerAjaxPackFile)
	r.HandleFunc("/json/pack", HandlerAjaxPack)
	r.HandleFunc("/dump/pack/{file}", HandlerDumpPackFile)
	r.HandleFunc("/upload/pack/{file}", HandlerUploadPackFile).Methods(http.MethodPost)
	r.HandleFunc("/ws/status", status.DefaultHub().ServeWs)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

// StartServer serves until ctx is cancelled
func StartServer(ctx context.Context, addr string, d vfs.Directory, cache *pack.InstanceCache, webPath string) error {
	r := NewRouter(d, cache, webPath)

	h := handlers.RecoveryHandler()(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[web] Starting server %v", addr)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
